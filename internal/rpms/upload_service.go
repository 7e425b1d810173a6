package rpms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/bigtop-patches/internal/execshell"
)

const (
	sshPortFlagConstant                     = "-p"
	scpPortFlagConstant                     = "-P"
	remoteMakeDirectoryCommandConstant      = "mkdir"
	remoteMakeParentsFlagConstant           = "-p"
	createRepositoryCommandTemplateConstant = "cd %s && createrepo ."
	dryRunNoticeConstant                    = "Dry run\n"
	dryRunCommandLineTemplateConstant       = "%s\n"
	uploadNoticeTemplateConstant            = "Uploading %d RPMs to %s:%s\n"
	regenerateNoticeTemplateConstant        = "Regenerating repository metadata in %s\n"
	stepFailedTemplateConstant              = "upload step failed: %w"
	stepFailedWarningMessageConstant        = "upload step failed; continuing"
	uploadCompletedMessageConstant          = "upload finished"
	logFieldServerConstant                  = "server"
	logFieldTargetConstant                  = "target"
	logFieldArtifactCountConstant           = "artifact_count"
	logFieldCommandLineConstant             = "command_line"
	logFieldFailedStepsConstant             = "failed_steps"
	executorNotConfiguredMessageConstant    = "remote executor not configured"
)

// ErrRemoteExecutorNotConfigured indicates an upload was asked to run commands without an executor.
var ErrRemoteExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// UploadRequest describes one upload.
type UploadRequest struct {
	Host          Host
	Target        Target
	ArtifactPaths []string
	DryRun        bool
	FailFast      bool
}

// UploadPlan holds the commands of an upload in execution order. Copy is nil when there
// are no artifacts.
type UploadPlan struct {
	MakeDirectory    execshell.ShellCommand
	Copy             *execshell.ShellCommand
	CreateRepository execshell.ShellCommand
}

// Commands lists the planned commands in execution order.
func (plan UploadPlan) Commands() []execshell.ShellCommand {
	plannedCommands := []execshell.ShellCommand{plan.MakeDirectory}
	if plan.Copy != nil {
		plannedCommands = append(plannedCommands, *plan.Copy)
	}
	return append(plannedCommands, plan.CreateRepository)
}

// BuildUploadPlan derives the ssh and scp commands for request.
func BuildUploadPlan(request UploadRequest) UploadPlan {
	remotePath := request.Target.RemotePath()
	portValue := strconv.Itoa(request.Host.Port)

	plan := UploadPlan{
		MakeDirectory: execshell.ShellCommand{
			Name: execshell.CommandSSH,
			Details: execshell.CommandDetails{Arguments: []string{
				sshPortFlagConstant, portValue, request.Host.Destination(),
				remoteMakeDirectoryCommandConstant, remoteMakeParentsFlagConstant, remotePath,
			}},
		},
		CreateRepository: execshell.ShellCommand{
			Name: execshell.CommandSSH,
			Details: execshell.CommandDetails{Arguments: []string{
				sshPortFlagConstant, portValue, request.Host.Destination(),
				fmt.Sprintf(createRepositoryCommandTemplateConstant, remotePath),
			}},
		},
	}

	if len(request.ArtifactPaths) > 0 {
		copyArguments := append([]string{scpPortFlagConstant, portValue}, request.ArtifactPaths...)
		copyArguments = append(copyArguments, request.Host.CopyDestination(remotePath))
		plan.Copy = &execshell.ShellCommand{Name: execshell.CommandSCP, Details: execshell.CommandDetails{Arguments: copyArguments}}
	}

	return plan
}

// UploadServiceDependencies enumerates collaborators required by UploadService.
type UploadServiceDependencies struct {
	Logger   *zap.Logger
	Executor RemoteExecutor
	Output   io.Writer
}

// UploadService creates the remote directory, copies artifacts and regenerates metadata.
type UploadService struct {
	logger   *zap.Logger
	executor RemoteExecutor
	output   io.Writer
}

// NewUploadService constructs an UploadService. The executor may be nil for dry runs.
func NewUploadService(dependencies UploadServiceDependencies) *UploadService {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := dependencies.Output
	if output == nil {
		output = io.Discard
	}
	return &UploadService{logger: logger, executor: dependencies.Executor, output: output}
}

// Upload prints the plan in dry-run mode, otherwise executes it. Failing steps are logged
// and skipped unless FailFast is set.
func (service *UploadService) Upload(executionContext context.Context, request UploadRequest) error {
	plan := BuildUploadPlan(request)

	if request.DryRun {
		if _, writeError := io.WriteString(service.output, dryRunNoticeConstant); writeError != nil {
			return writeError
		}
		for _, plannedCommand := range plan.Commands() {
			if _, writeError := fmt.Fprintf(service.output, dryRunCommandLineTemplateConstant, plannedCommand.CommandLine()); writeError != nil {
				return writeError
			}
		}
		return nil
	}

	if service.executor == nil {
		return ErrRemoteExecutorNotConfigured
	}

	remotePath := request.Target.RemotePath()
	failedSteps := 0
	runStep := func(plannedCommand execshell.ShellCommand) error {
		var executionError error
		if plannedCommand.Name == execshell.CommandSCP {
			_, executionError = service.executor.ExecuteSCP(executionContext, plannedCommand.Details)
		} else {
			_, executionError = service.executor.ExecuteSSH(executionContext, plannedCommand.Details)
		}
		if executionError == nil {
			return nil
		}
		if request.FailFast {
			return fmt.Errorf(stepFailedTemplateConstant, executionError)
		}
		failedSteps++
		service.logger.Warn(
			stepFailedWarningMessageConstant,
			zap.String(logFieldCommandLineConstant, plannedCommand.CommandLine()),
			zap.Error(executionError),
		)
		return nil
	}

	if stepError := runStep(plan.MakeDirectory); stepError != nil {
		return stepError
	}

	if plan.Copy != nil {
		if _, writeError := fmt.Fprintf(service.output, uploadNoticeTemplateConstant, len(request.ArtifactPaths), request.Host.Server, remotePath); writeError != nil {
			return writeError
		}
		if stepError := runStep(*plan.Copy); stepError != nil {
			return stepError
		}
	}

	if _, writeError := fmt.Fprintf(service.output, regenerateNoticeTemplateConstant, remotePath); writeError != nil {
		return writeError
	}
	if stepError := runStep(plan.CreateRepository); stepError != nil {
		return stepError
	}

	service.logger.Info(
		uploadCompletedMessageConstant,
		zap.String(logFieldServerConstant, request.Host.Server),
		zap.String(logFieldTargetConstant, remotePath),
		zap.Int(logFieldArtifactCountConstant, len(request.ArtifactPaths)),
		zap.Int(logFieldFailedStepsConstant, failedSteps),
	)
	return nil
}
