package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/execshell"
	"github.com/temirov/bigtop-patches/internal/patches"
	"github.com/temirov/bigtop-patches/internal/rpms"
	"github.com/temirov/bigtop-patches/internal/ui"
	"github.com/temirov/bigtop-patches/internal/utils"
	"github.com/temirov/bigtop-patches/internal/utils/flags"
)

const (
	applicationNameConstant                  = "bigtop-patches"
	applicationShortDescriptionConstant      = "Manage Bigtop package patches and publish built RPMs"
	applicationLongDescriptionConstant       = "bigtop-patches lists and applies the .diff patches kept for Bigtop packages and uploads built RPMs to a yum repository host."
	configFileFlagNameConstant               = "config"
	configFileFlagUsageConstant              = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                 = "log-level"
	logLevelFlagDescriptionConstant          = "Override the configured log level."
	logFormatFlagNameConstant                = "log-format"
	logFormatFlagDescriptionConstant         = "Override the configured log format."
	commonConfigurationKeyConstant           = "common"
	commonLogLevelConfigKeyConstant          = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant         = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant                = "BIGTOPPATCHES"
	configurationNameConstant                = "config"
	configurationTypeConstant                = "yaml"
	configurationInitializedMessageConstant  = "configuration initialized"
	configurationLogLevelFieldConstant       = "log_level"
	configurationLogFormatFieldConstant      = "log_format"
	configurationFileFieldConstant           = "config_file"
	configurationLoadErrorTemplateConstant   = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant      = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant          = "unable to flush logger: %w"
	commandRegistrationErrorTemplateConstant = "unable to register commands: %w"
	defaultConfigurationSearchPathConstant   = "."
	toolsConfigurationKeyConstant            = "tools"
	patchesConfigurationKeyConstant          = toolsConfigurationKeyConstant + ".patches"
	uploadConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".upload"
)

var (
	supportedLogLevels  = []string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}
	supportedLogFormats = []string{string(utils.LogFormatConsole), string(utils.LogFormatStructured)}
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for CLI subcommands grouped by tool family.
type ApplicationToolsConfiguration struct {
	Patches patches.Configuration `mapstructure:"patches"`
	Upload  rpms.Configuration    `mapstructure:"upload"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	dispatcher            *commands.Dispatcher
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	shellExecutor         *execshell.ShellExecutor
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	registrationError     error
}

// NewApplication assembles a fully wired CLI application instance logging to stderr.
func NewApplication() *Application {
	return newApplication(utils.NewLoggerFactory())
}

func newApplication(loggerFactory *utils.LoggerFactory) *Application {
	configurationLoader := utils.NewConfigurationLoader(utils.ConfigurationLoaderSettings{
		ConfigurationName: configurationNameConstant,
		ConfigurationType: configurationTypeConstant,
		EnvironmentPrefix: environmentPrefixConstant,
		SearchPaths:       []string{defaultConfigurationSearchPathConstant},
	})
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		dispatcher:          commands.NewDispatcher(),
		configurationLoader: configurationLoader,
		loggerFactory:       loggerFactory,
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return commands.NewUsageError(flagError)
	})
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelInfo), supportedLogLevels, logLevelFlagDescriptionConstant),
	)
	cobraCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), supportedLogFormats, logFormatFlagDescriptionConstant),
	)

	application.rootCommand = cobraCommand
	application.registrationError = application.registerCommands()

	return application
}

func (application *Application) registerCommands() error {
	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	registeredCommands := []commands.Command{
		&patches.ListCommand{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() patches.Configuration {
				return application.configuration.Tools.Patches
			},
		},
		&patches.ApplyCommand{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() patches.Configuration {
				return application.configuration.Tools.Patches
			},
			ExecutorProvider: func() (patches.GitExecutor, error) {
				return application.resolveShellExecutor()
			},
		},
		&rpms.UploadCommand{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() rpms.Configuration {
				return application.configuration.Tools.Upload
			},
			ExecutorProvider: func() (rpms.RemoteExecutor, error) {
				return application.resolveShellExecutor()
			},
		},
	}

	for _, registeredCommand := range registeredCommands {
		if registrationError := application.dispatcher.Register(registeredCommand); registrationError != nil {
			return fmt.Errorf(commandRegistrationErrorTemplateConstant, registrationError)
		}
	}

	if mountError := application.dispatcher.Mount(application.rootCommand); mountError != nil {
		return fmt.Errorf(commandRegistrationErrorTemplateConstant, mountError)
	}
	return nil
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	if application.registrationError != nil {
		return application.registrationError
	}

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range patches.DefaultConfigurationValues(patchesConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range rpms.DefaultConfigurationValues(uploadConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return commands.NewConfigurationError(fmt.Errorf(configurationLoadErrorTemplateConstant, loadError))
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
	)
	if loggerCreationError != nil {
		return commands.NewUsageError(fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError))
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger
	application.shellExecutor = nil

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

// resolveShellExecutor lazily builds the executor shared by apply and upload-rpms.
// Child process output is mirrored to the root command writers.
func (application *Application) resolveShellExecutor() (*execshell.ShellExecutor, error) {
	if application.shellExecutor != nil {
		return application.shellExecutor, nil
	}

	var executorOptions []execshell.ShellExecutorOption
	if application.consoleLogger != nil {
		executorOptions = append(executorOptions, execshell.WithCommandEventObserver(ui.NewConsoleCommandEventLogger(application.consoleLogger)))
	}

	shellExecutor, creationError := execshell.NewShellExecutor(
		application.logger,
		execshell.NewStreamingOSCommandRunner(application.standardOutput(), application.standardError()),
		executorOptions...,
	)
	if creationError != nil {
		return nil, creationError
	}

	application.shellExecutor = shellExecutor
	return shellExecutor, nil
}

func (application *Application) standardOutput() io.Writer {
	if application.rootCommand == nil {
		return os.Stdout
	}
	return application.rootCommand.OutOrStdout()
}

func (application *Application) standardError() io.Writer {
	if application.rootCommand == nil {
		return os.Stderr
	}
	return application.rootCommand.ErrOrStderr()
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := application.syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
