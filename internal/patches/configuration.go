package patches

import (
	"strings"

	pathutils "github.com/temirov/bigtop-patches/internal/utils/path"
)

const (
	// DefaultPackagesRoot is the packages root relative to a Bigtop checkout.
	DefaultPackagesRoot = "bigtop-packages/src/common"

	// DefaultCommitMessage is the message of the commit created by apply.
	DefaultCommitMessage = "Applying patches"

	packagesRootConfigurationKeyConstant  = "packages_root"
	commitMessageConfigurationKeyConstant = "commit_message"
	failFastConfigurationKeyConstant      = "fail_fast"
	configurationKeySeparatorConstant     = "."
)

var configurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration captures settings shared by the ls and apply commands.
type Configuration struct {
	PackagesRoot  string `mapstructure:"packages_root"`
	CommitMessage string `mapstructure:"commit_message"`
	FailFast      bool   `mapstructure:"fail_fast"`
}

// DefaultConfiguration provides baseline values.
func DefaultConfiguration() Configuration {
	return Configuration{
		PackagesRoot:  DefaultPackagesRoot,
		CommitMessage: DefaultCommitMessage,
		FailFast:      false,
	}
}

// DefaultConfigurationValues returns viper defaults keyed beneath prefix, e.g. "tools.patches".
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + configurationKeySeparatorConstant + packagesRootConfigurationKeyConstant:  defaults.PackagesRoot,
		prefix + configurationKeySeparatorConstant + commitMessageConfigurationKeyConstant: defaults.CommitMessage,
		prefix + configurationKeySeparatorConstant + failFastConfigurationKeyConstant:      defaults.FailFast,
	}
}

// Sanitize trims values, expands ~ in the packages root and restores defaults for blank entries.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	defaults := DefaultConfiguration()

	sanitized.PackagesRoot = strings.TrimSpace(configuration.PackagesRoot)
	if len(sanitized.PackagesRoot) == 0 {
		sanitized.PackagesRoot = defaults.PackagesRoot
	}
	sanitized.PackagesRoot = configurationHomeDirectoryExpander.Expand(sanitized.PackagesRoot)

	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = defaults.CommitMessage
	}

	return sanitized
}
