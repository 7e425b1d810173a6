package rpms

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/execshell"
	"github.com/temirov/bigtop-patches/internal/packages"
	"github.com/temirov/bigtop-patches/internal/utils/flags"
)

const (
	uploadCommandNameConstant             = "upload-rpms"
	uploadCommandHelpConstant             = "Upload built RPMs to the repository server and regenerate its metadata"
	uploadCommandExampleConstant          = "bigtop-patches upload-rpms --os centos7 --package hadoop --dry-run"
	operatingSystemFlagNameConstant       = "os"
	operatingSystemFlagUsageConstant      = "Target operating system (required)."
	operatingSystemSubjectConstant        = "operating system"
	packageFlagNameConstant               = "package"
	packageFlagUsageConstant              = "Upload only the RPMs built for this package (a subdirectory of the sources root)."
	productionFlagNameConstant            = "production"
	productionFlagUsageConstant           = "Upload to the production repository instead of the testing one."
	serverFlagNameConstant                = "server"
	serverFlagUsageConstant               = "Repository server host name."
	userFlagNameConstant                  = "user"
	userFlagUsageConstant                 = "Remote user for ssh and scp."
	portFlagNameConstant                  = "port"
	portFlagUsageConstant                 = "Remote ssh port."
	sourcesRootFlagNameConstant           = "sources-root"
	sourcesRootFlagUsageConstant          = "Directory containing the built RPMs, one subdirectory per package."
	sourcesRootMissingTemplateConstant    = "sources root does not exist: %s"
	sourcesRootInspectionTemplateConstant = "unable to inspect sources root %s: %w"
	invalidPortTemplateConstant           = "invalid port %d (expected 1-65535)"
	missingHostValueTemplateConstant      = "%s is required"
	maximumPortConstant                   = 65535
	inventoryLogMessageConstant           = "RPM discovered"
	inventoryFailureLogMessageConstant    = "unable to read RPM header; uploading anyway"
	logFieldArtifactPathConstant          = "path"
	logFieldArtifactNameConstant          = "name"
	logFieldArtifactVersionConstant       = "version"
	logFieldArtifactReleaseConstant       = "release"
	logFieldArtifactArchitectureConstant  = "arch"
	logFieldArtifactNEVRAConstant         = "nevra"
)

// UploadCommand uploads RPM artifacts to the repository server.
type UploadCommand struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ExecutorProvider      RemoteExecutorProvider
	Executor              RemoteExecutor
	FileSystem            afero.Fs
}

// Name implements commands.Command.
func (command *UploadCommand) Name() string {
	return uploadCommandNameConstant
}

// Help implements commands.Command.
func (command *UploadCommand) Help() string {
	return uploadCommandHelpConstant
}

// ConfigureSubparser implements commands.Command.
func (command *UploadCommand) ConfigureSubparser(subcommand *cobra.Command) error {
	defaults := DefaultConfiguration()

	subcommand.Example = uploadCommandExampleConstant
	subcommand.Args = cobra.NoArgs

	flagSet := subcommand.Flags()
	flagSet.String(operatingSystemFlagNameConstant, "", flags.FormatChoiceUsage("", defaults.OperatingSystems, operatingSystemFlagUsageConstant))
	flagSet.String(packageFlagNameConstant, "", packageFlagUsageConstant)
	flagSet.Bool(productionFlagNameConstant, false, productionFlagUsageConstant)
	flagSet.String(serverFlagNameConstant, defaults.Server, serverFlagUsageConstant)
	flagSet.String(userFlagNameConstant, defaults.User, userFlagUsageConstant)
	flagSet.Int(portFlagNameConstant, defaults.Port, portFlagUsageConstant)
	flagSet.String(sourcesRootFlagNameConstant, defaults.SourcesRoot, sourcesRootFlagUsageConstant)
	flags.BindExecutionFlags(subcommand, flags.ExecutionDefaults{})

	operatingSystemCompletion := flags.ChoiceCompletion(func() []string {
		return resolveConfiguration(command.ConfigurationProvider).OperatingSystems
	})
	if registrationError := subcommand.RegisterFlagCompletionFunc(operatingSystemFlagNameConstant, operatingSystemCompletion); registrationError != nil {
		return registrationError
	}

	packageCompletion := flags.ChoiceCompletion(func() []string {
		configuration := resolveConfiguration(command.ConfigurationProvider)
		registry, registryError := packages.LoadRegistry(resolveFileSystem(command.FileSystem), configuration.SourcesRoot)
		if registryError != nil {
			return nil
		}
		return registry.Names()
	})
	return subcommand.RegisterFlagCompletionFunc(packageFlagNameConstant, packageCompletion)
}

// Execute implements commands.Command.
func (command *UploadCommand) Execute(executionContext context.Context, invocation commands.Invocation) error {
	logger := resolveLogger(command.LoggerProvider)
	configuration := resolveConfiguration(command.ConfigurationProvider)
	fileSystem := resolveFileSystem(command.FileSystem)

	sourcesRoot := stringFlagOrConfigured(invocation.Flags, sourcesRootFlagNameConstant, configuration.SourcesRoot)
	sourcesRootExists, inspectionError := afero.DirExists(fileSystem, sourcesRoot)
	if inspectionError != nil {
		return fmt.Errorf(sourcesRootInspectionTemplateConstant, sourcesRoot, inspectionError)
	}
	if !sourcesRootExists {
		return commands.NewConfigurationErrorf(sourcesRootMissingTemplateConstant, sourcesRoot)
	}

	request, requestError := command.buildRequest(invocation.Flags, configuration)
	if requestError != nil {
		return requestError
	}

	scanRoot := sourcesRoot
	if packageName := stringFlagOrConfigured(invocation.Flags, packageFlagNameConstant, ""); len(packageName) > 0 {
		registry, registryError := packages.LoadRegistry(fileSystem, sourcesRoot)
		if registryError != nil {
			return registryError
		}
		selectedPackage, lookupError := registry.Lookup(packageName)
		if lookupError != nil {
			return lookupError
		}
		scanRoot = selectedPackage.Path
	}

	artifactPaths, discoveryError := NewDiscoverer(fileSystem).Discover(scanRoot)
	if discoveryError != nil {
		return discoveryError
	}
	request.ArtifactPaths = artifactPaths
	logInventory(logger, NewHeaderReader(fileSystem), artifactPaths)

	var executor RemoteExecutor
	if !request.DryRun {
		resolvedExecutor, executorError := command.resolveExecutor()
		if executorError != nil {
			return executorError
		}
		executor = resolvedExecutor
	}

	service := NewUploadService(UploadServiceDependencies{Logger: logger, Executor: executor, Output: invocation.Output})
	return service.Upload(executionContext, request)
}

func (command *UploadCommand) buildRequest(flagSet *pflag.FlagSet, configuration Configuration) (UploadRequest, error) {
	operatingSystem, operatingSystemError := flags.ValidateChoice(
		operatingSystemSubjectConstant,
		stringFlagOrConfigured(flagSet, operatingSystemFlagNameConstant, ""),
		configuration.OperatingSystems,
	)
	if operatingSystemError != nil {
		return UploadRequest{}, commands.NewUsageError(operatingSystemError)
	}

	host := Host{
		Server: stringFlagOrConfigured(flagSet, serverFlagNameConstant, configuration.Server),
		User:   stringFlagOrConfigured(flagSet, userFlagNameConstant, configuration.User),
		Port:   configuration.Port,
	}
	if flagSet != nil && flagSet.Changed(portFlagNameConstant) {
		host.Port, _ = flagSet.GetInt(portFlagNameConstant)
	}
	if host.Port < 1 || host.Port > maximumPortConstant {
		return UploadRequest{}, commands.NewUsageError(fmt.Errorf(invalidPortTemplateConstant, host.Port))
	}
	if len(host.Server) == 0 {
		return UploadRequest{}, commands.NewUsageError(fmt.Errorf(missingHostValueTemplateConstant, serverFlagNameConstant))
	}
	if len(host.User) == 0 {
		return UploadRequest{}, commands.NewUsageError(fmt.Errorf(missingHostValueTemplateConstant, userFlagNameConstant))
	}

	production := false
	if flagSet != nil {
		production, _ = flagSet.GetBool(productionFlagNameConstant)
	}

	executionOptions := flags.ResolveExecutionOptions(flagSet, flags.ExecutionDefaults{FailFast: configuration.FailFast})

	return UploadRequest{
		Host: host,
		Target: Target{
			BasePath:        configuration.BasePath,
			OperatingSystem: operatingSystem,
			Production:      production,
		},
		DryRun:   executionOptions.DryRun,
		FailFast: executionOptions.FailFast,
	}, nil
}

func (command *UploadCommand) resolveExecutor() (RemoteExecutor, error) {
	if command.Executor != nil {
		return command.Executor, nil
	}
	if command.ExecutorProvider != nil {
		return command.ExecutorProvider()
	}
	return execshell.NewShellExecutor(resolveLogger(command.LoggerProvider), execshell.NewOSCommandRunner())
}

func logInventory(logger *zap.Logger, headerReader HeaderReader, artifactPaths []string) {
	for _, artifactPath := range artifactPaths {
		artifact, readError := headerReader.Read(artifactPath)
		if readError != nil {
			logger.Warn(inventoryFailureLogMessageConstant, zap.String(logFieldArtifactPathConstant, artifactPath), zap.Error(readError))
			continue
		}
		logger.Info(
			inventoryLogMessageConstant,
			zap.String(logFieldArtifactPathConstant, artifact.Path),
			zap.String(logFieldArtifactNEVRAConstant, artifact.NEVRA()),
			zap.String(logFieldArtifactNameConstant, artifact.Name),
			zap.String(logFieldArtifactVersionConstant, artifact.Version),
			zap.String(logFieldArtifactReleaseConstant, artifact.Release),
			zap.String(logFieldArtifactArchitectureConstant, artifact.Architecture),
		)
	}
}

func stringFlagOrConfigured(flagSet *pflag.FlagSet, flagName string, configuredValue string) string {
	if flagSet == nil || !flagSet.Changed(flagName) {
		return strings.TrimSpace(configuredValue)
	}
	flagValue, lookupError := flagSet.GetString(flagName)
	if lookupError != nil {
		return strings.TrimSpace(configuredValue)
	}
	return strings.TrimSpace(flagValue)
}
