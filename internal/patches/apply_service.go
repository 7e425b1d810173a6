package patches

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/bigtop-patches/internal/execshell"
)

const (
	gitApplySubcommandConstant           = "apply"
	gitAddSubcommandConstant             = "add"
	gitAddAllFlagConstant                = "-A"
	gitCommitSubcommandConstant          = "commit"
	gitCommitMessageFlagConstant         = "-m"
	dryRunDirectoryLineTemplateConstant  = "cd %s\n"
	dryRunCommandLineTemplateConstant    = "%s\n"
	applyNoticeTemplateConstant          = "Applying %d patches from %s to %s\n"
	noPatchesNoticeTemplateConstant      = "No patches to apply for %s\n"
	stepFailedTemplateConstant           = "patch application step failed: %w"
	stepFailedWarningMessageConstant     = "patch application step failed; continuing"
	applyCompletedMessageConstant        = "patch application finished"
	logFieldRepositoryConstant           = "repository"
	logFieldCommandLineConstant          = "command_line"
	logFieldFailedStepsConstant          = "failed_steps"
	executorNotConfiguredMessageConstant = "git executor not configured"
)

// ErrGitExecutorNotConfigured indicates apply was asked to run commands without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// ApplyRequest describes one patch application.
type ApplyRequest struct {
	PackageName    string
	RepositoryPath string
	PatchPaths     []string
	CommitMessage  string
	DryRun         bool
	FailFast       bool
}

// ApplyServiceDependencies enumerates collaborators required by ApplyService.
type ApplyServiceDependencies struct {
	Logger   *zap.Logger
	Executor GitExecutor
	Output   io.Writer
}

// ApplyService applies, stages and commits patches in a repository checkout.
type ApplyService struct {
	logger   *zap.Logger
	executor GitExecutor
	output   io.Writer
}

// NewApplyService constructs an ApplyService. The executor may be nil for dry runs.
func NewApplyService(dependencies ApplyServiceDependencies) *ApplyService {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}
	return &ApplyService{logger: logger, executor: dependencies.Executor, output: output}
}

// BuildApplyCommands returns the git apply, git add and git commit commands for request,
// each scoped to the repository directory.
func BuildApplyCommands(request ApplyRequest) []execshell.ShellCommand {
	applyArguments := append([]string{gitApplySubcommandConstant}, request.PatchPaths...)
	argumentSets := [][]string{
		applyArguments,
		{gitAddSubcommandConstant, gitAddAllFlagConstant},
		{gitCommitSubcommandConstant, gitCommitMessageFlagConstant, request.CommitMessage},
	}

	gitCommands := make([]execshell.ShellCommand, 0, len(argumentSets))
	for _, arguments := range argumentSets {
		gitCommands = append(gitCommands, execshell.ShellCommand{
			Name: execshell.CommandGit,
			Details: execshell.CommandDetails{
				Arguments:        arguments,
				WorkingDirectory: request.RepositoryPath,
			},
		})
	}
	return gitCommands
}

// Apply prints the commands in dry-run mode, otherwise runs them in order. Failing steps
// are logged and skipped unless FailFast is set. Without patches nothing is executed, since
// a bare git apply would read a patch from standard input.
func (service *ApplyService) Apply(executionContext context.Context, request ApplyRequest) error {
	gitCommands := BuildApplyCommands(request)

	if request.DryRun {
		if _, writeError := fmt.Fprintf(service.output, dryRunDirectoryLineTemplateConstant, request.RepositoryPath); writeError != nil {
			return writeError
		}
		for _, gitCommand := range gitCommands {
			if _, writeError := fmt.Fprintf(service.output, dryRunCommandLineTemplateConstant, gitCommand.CommandLine()); writeError != nil {
				return writeError
			}
		}
		return nil
	}

	if len(request.PatchPaths) == 0 {
		_, writeError := fmt.Fprintf(service.output, noPatchesNoticeTemplateConstant, request.PackageName)
		return writeError
	}

	if service.executor == nil {
		return ErrGitExecutorNotConfigured
	}

	if _, writeError := fmt.Fprintf(service.output, applyNoticeTemplateConstant, len(request.PatchPaths), request.PackageName, request.RepositoryPath); writeError != nil {
		return writeError
	}

	failedSteps := 0
	for _, gitCommand := range gitCommands {
		_, executionError := service.executor.ExecuteGit(executionContext, gitCommand.Details)
		if executionError == nil {
			continue
		}
		if request.FailFast {
			return fmt.Errorf(stepFailedTemplateConstant, executionError)
		}
		failedSteps++
		service.logger.Warn(
			stepFailedWarningMessageConstant,
			zap.String(logFieldRepositoryConstant, request.RepositoryPath),
			zap.String(logFieldCommandLineConstant, gitCommand.CommandLine()),
			zap.Error(executionError),
		)
	}

	service.logger.Info(
		applyCompletedMessageConstant,
		zap.String(logFieldPackageConstant, request.PackageName),
		zap.String(logFieldRepositoryConstant, request.RepositoryPath),
		zap.Int(logFieldPatchCountConstant, len(request.PatchPaths)),
		zap.Int(logFieldFailedStepsConstant, failedSteps),
	)
	return nil
}
