package rpms

import (
	"strings"

	pathutils "github.com/temirov/bigtop-patches/internal/utils/path"
)

const (
	// DefaultSourcesRoot is the build output directory scanned for artifacts.
	DefaultSourcesRoot = "output"

	// DefaultBasePath is the remote directory holding one repository per operating system.
	DefaultBasePath = "/var/www/html/bigtop/"

	// DefaultServer is the repository host.
	DefaultServer = "repo.bigtop.internal"

	// DefaultUser is the remote account used by ssh and scp.
	DefaultUser = "bigtop"

	// DefaultPort is the ssh port of the repository host.
	DefaultPort = 22

	operatingSystemCentOS7Constant           = "centos7"
	operatingSystemRedHat8Constant           = "redhat8"
	configurationKeySeparatorConstant        = "."
	sourcesRootConfigurationKeyConstant      = "sources_root"
	basePathConfigurationKeyConstant         = "base_path"
	operatingSystemsConfigurationKeyConstant = "operating_systems"
	serverConfigurationKeyConstant           = "server"
	userConfigurationKeyConstant             = "user"
	portConfigurationKeyConstant             = "port"
	failFastConfigurationKeyConstant         = "fail_fast"
)

var configurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration captures settings for the upload-rpms command.
type Configuration struct {
	SourcesRoot      string   `mapstructure:"sources_root"`
	BasePath         string   `mapstructure:"base_path"`
	OperatingSystems []string `mapstructure:"operating_systems"`
	Server           string   `mapstructure:"server"`
	User             string   `mapstructure:"user"`
	Port             int      `mapstructure:"port"`
	FailFast         bool     `mapstructure:"fail_fast"`
}

// DefaultConfiguration provides baseline values.
func DefaultConfiguration() Configuration {
	return Configuration{
		SourcesRoot:      DefaultSourcesRoot,
		BasePath:         DefaultBasePath,
		OperatingSystems: []string{operatingSystemCentOS7Constant, operatingSystemRedHat8Constant},
		Server:           DefaultServer,
		User:             DefaultUser,
		Port:             DefaultPort,
	}
}

// DefaultConfigurationValues returns viper defaults keyed beneath prefix, e.g. "tools.upload".
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	keyPrefix := prefix + configurationKeySeparatorConstant
	return map[string]any{
		keyPrefix + sourcesRootConfigurationKeyConstant:      defaults.SourcesRoot,
		keyPrefix + basePathConfigurationKeyConstant:         defaults.BasePath,
		keyPrefix + operatingSystemsConfigurationKeyConstant: defaults.OperatingSystems,
		keyPrefix + serverConfigurationKeyConstant:           defaults.Server,
		keyPrefix + userConfigurationKeyConstant:             defaults.User,
		keyPrefix + portConfigurationKeyConstant:             defaults.Port,
		keyPrefix + failFastConfigurationKeyConstant:         defaults.FailFast,
	}
}

// Sanitize trims values, drops blank operating systems, expands ~ in the sources root
// and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	defaults := DefaultConfiguration()

	sanitized.SourcesRoot = configurationHomeDirectoryExpander.Expand(defaultIfBlank(configuration.SourcesRoot, defaults.SourcesRoot))
	sanitized.BasePath = defaultIfBlank(configuration.BasePath, defaults.BasePath)
	sanitized.Server = defaultIfBlank(configuration.Server, defaults.Server)
	sanitized.User = defaultIfBlank(configuration.User, defaults.User)
	if sanitized.Port <= 0 {
		sanitized.Port = defaults.Port
	}

	sanitized.OperatingSystems = nil
	for _, operatingSystem := range configuration.OperatingSystems {
		if trimmed := strings.TrimSpace(operatingSystem); len(trimmed) > 0 {
			sanitized.OperatingSystems = append(sanitized.OperatingSystems, trimmed)
		}
	}
	if len(sanitized.OperatingSystems) == 0 {
		sanitized.OperatingSystems = defaults.OperatingSystems
	}

	return sanitized
}

func defaultIfBlank(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
