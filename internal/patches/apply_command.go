package patches

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/execshell"
	"github.com/temirov/bigtop-patches/internal/utils/flags"
	pathutils "github.com/temirov/bigtop-patches/internal/utils/path"
)

const (
	applyCommandNameConstant             = "apply"
	applyCommandUseConstant              = "apply <package> <repository>"
	applyCommandHelpConstant             = "Apply, stage and commit the patches of a package in a repository checkout"
	applyCommandExampleConstant          = "bigtop-patches apply hadoop ~/src/hadoop --dry-run"
	applyPositionalArgumentsConstant     = 2
	repositoryArgumentIndexConstant      = 1
	repositoryMissingTemplateConstant    = "Repository directory does not exist: %s"
	repositoryInspectionTemplateConstant = "unable to inspect repository directory %s: %w"
	patchPathResolutionTemplateConstant  = "unable to resolve patch path %s: %w"
)

// ApplyCommand applies the patches of a package to a repository checkout.
type ApplyCommand struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ExecutorProvider      GitExecutorProvider
	Executor              GitExecutor
	FileSystem            afero.Fs
	HomeExpander          *pathutils.HomeExpander
}

// Name implements commands.Command.
func (command *ApplyCommand) Name() string {
	return applyCommandNameConstant
}

// Help implements commands.Command.
func (command *ApplyCommand) Help() string {
	return applyCommandHelpConstant
}

// ConfigureSubparser implements commands.Command.
func (command *ApplyCommand) ConfigureSubparser(subcommand *cobra.Command) error {
	subcommand.Use = applyCommandUseConstant
	subcommand.Example = applyCommandExampleConstant
	subcommand.Args = cobra.ExactArgs(applyPositionalArgumentsConstant)

	packageCompletion := flags.ChoiceCompletion(func() []string {
		return knownPackageNames(resolveFileSystem(command.FileSystem), resolveConfiguration(command.ConfigurationProvider))
	})
	subcommand.ValidArgsFunction = func(cobraCommand *cobra.Command, arguments []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(arguments) == packageArgumentIndexConstant {
			return packageCompletion(cobraCommand, arguments, toComplete)
		}
		if len(arguments) == repositoryArgumentIndexConstant {
			return nil, cobra.ShellCompDirectiveFilterDirs
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	flags.BindExecutionFlags(subcommand, flags.ExecutionDefaults{})
	return nil
}

// Execute implements commands.Command.
func (command *ApplyCommand) Execute(executionContext context.Context, invocation commands.Invocation) error {
	logger := resolveLogger(command.LoggerProvider)
	configuration := resolveConfiguration(command.ConfigurationProvider)
	fileSystem := resolveFileSystem(command.FileSystem)

	selectedPackage, lookupError := lookupPackage(fileSystem, configuration, invocation.Argument(packageArgumentIndexConstant))
	if lookupError != nil {
		return lookupError
	}

	repositoryPath, repositoryError := command.resolveRepository(fileSystem, invocation.Argument(repositoryArgumentIndexConstant))
	if repositoryError != nil {
		return repositoryError
	}

	orderedPatches, listError := NewEnumerator(fileSystem).List(selectedPackage.Path)
	if listError != nil {
		return listError
	}

	patchPaths := make([]string, 0, len(orderedPatches))
	for _, patch := range orderedPatches {
		absolutePatchPath, absoluteError := filepath.Abs(patch.Path)
		if absoluteError != nil {
			return fmt.Errorf(patchPathResolutionTemplateConstant, patch.Path, absoluteError)
		}
		patchPaths = append(patchPaths, absolutePatchPath)
	}

	executionOptions := flags.ResolveExecutionOptions(invocation.Flags, flags.ExecutionDefaults{FailFast: configuration.FailFast})

	var executor GitExecutor
	if !executionOptions.DryRun {
		resolvedExecutor, executorError := command.resolveExecutor()
		if executorError != nil {
			return executorError
		}
		executor = resolvedExecutor
	}

	service := NewApplyService(ApplyServiceDependencies{Logger: logger, Executor: executor, Output: invocation.Output})
	return service.Apply(executionContext, ApplyRequest{
		PackageName:    selectedPackage.Name,
		RepositoryPath: repositoryPath,
		PatchPaths:     patchPaths,
		CommitMessage:  configuration.CommitMessage,
		DryRun:         executionOptions.DryRun,
		FailFast:       executionOptions.FailFast,
	})
}

func (command *ApplyCommand) resolveRepository(fileSystem afero.Fs, repositoryArgument string) (string, error) {
	homeExpander := command.HomeExpander
	if homeExpander == nil {
		homeExpander = pathutils.NewHomeExpander()
	}

	repositoryPath, resolveError := homeExpander.Resolve(repositoryArgument)
	if resolveError != nil {
		return "", commands.NewUsageError(resolveError)
	}

	repositoryExists, existenceError := afero.DirExists(fileSystem, repositoryPath)
	if existenceError != nil {
		return "", fmt.Errorf(repositoryInspectionTemplateConstant, repositoryPath, existenceError)
	}
	if !repositoryExists {
		return "", commands.NewConfigurationErrorf(repositoryMissingTemplateConstant, repositoryPath)
	}
	return repositoryPath, nil
}

func (command *ApplyCommand) resolveExecutor() (GitExecutor, error) {
	if command.Executor != nil {
		return command.Executor, nil
	}
	if command.ExecutorProvider != nil {
		return command.ExecutorProvider()
	}
	return execshell.NewShellExecutor(resolveLogger(command.LoggerProvider), execshell.NewOSCommandRunner())
}
