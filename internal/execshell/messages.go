package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitApplySubcommandNameConstant  = "apply"
	gitAddSubcommandNameConstant    = "add"
	gitCommitSubcommandNameConstant = "commit"
	gitMessageFlagConstant          = "-m"
	sshPortFlagConstant             = "-p"
	scpPortFlagConstant             = "-P"
	remoteMakeDirectoryCommand      = "mkdir"
	remoteChangeDirectoryPrefix     = "cd "
	remoteCommandSeparator          = " && "
	remoteCreateRepositoryCommand   = "createrepo"
)

const (
	gitApplyStartTemplateConstant                       = "Applying %d patches in %s"
	gitApplySuccessTemplateConstant                     = "Applied %d patches in %s"
	gitApplyFailureTemplateConstant                     = "Failed to apply patches in %s (exit code %d%s)"
	gitApplyExecutionFailureTemplateConstant            = "Unable to apply patches in %s: %s"
	gitAddStartTemplateConstant                         = "Staging changes in %s"
	gitAddSuccessTemplateConstant                       = "Staged changes in %s"
	gitAddFailureTemplateConstant                       = "Failed to stage changes in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant              = "Unable to stage changes in %s: %s"
	gitCommitStartTemplateConstant                      = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant                    = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant                    = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant           = "Unable to create commit in %s with message %q: %s"
	sshMakeDirectoryStartTemplateConstant               = "Creating %s on %s"
	sshMakeDirectorySuccessTemplateConstant             = "Created %s on %s"
	sshMakeDirectoryFailureTemplateConstant             = "Failed to create %s on %s (exit code %d%s)"
	sshMakeDirectoryExecutionFailureTemplateConstant    = "Unable to create %s on %s: %s"
	sshCreateRepositoryStartTemplateConstant            = "Regenerating repository metadata in %s on %s"
	sshCreateRepositorySuccessTemplateConstant          = "Regenerated repository metadata in %s on %s"
	sshCreateRepositoryFailureTemplateConstant          = "Failed to regenerate repository metadata in %s on %s (exit code %d%s)"
	sshCreateRepositoryExecutionFailureTemplateConstant = "Unable to regenerate repository metadata in %s on %s: %s"
	scpStartTemplateConstant                            = "Copying %d files to %s"
	scpSuccessTemplateConstant                          = "Copied %d files to %s"
	scpFailureTemplateConstant                          = "Failed to copy %d files to %s (exit code %d%s)"
	scpExecutionFailureTemplateConstant                 = "Unable to copy %d files to %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandSSH:
		return formatter.describeSSHMessage(command, result, failure, stage)
	case CommandSCP:
		return formatter.describeSCPMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)
	failureDescription := formatter.describeFailure(failure)

	switch strings.TrimSpace(command.Details.Arguments[0]) {
	case gitApplySubcommandNameConstant:
		patchCount := len(formatter.collectOperands(command.Details.Arguments[1:], nil))
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitApplyStartTemplateConstant, patchCount, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitApplySuccessTemplateConstant, patchCount, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitApplyFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitApplyExecutionFailureTemplateConstant, workingDirectory, failureDescription)
		}
	case gitAddSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitAddStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitAddSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitAddFailureTemplateConstant, workingDirectory, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitAddExecutionFailureTemplateConstant, workingDirectory, failureDescription)
		}
	case gitCommitSubcommandNameConstant:
		commitMessage := formatter.findFlagValue(command.Details.Arguments, gitMessageFlagConstant)
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, commitMessage)
		case messageStageSuccess:
			return fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory, commitMessage)
		case messageStageFailure:
			return fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, commitMessage, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitCommitExecutionFailureTemplateConstant, workingDirectory, commitMessage, failureDescription)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeSSHMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	destination, remoteArguments := formatter.splitSSHArguments(command.Details.Arguments)
	if len(destination) == 0 || len(remoteArguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	remoteCommand := strings.Join(remoteArguments, " ")
	standardErrorSuffix := formatter.formatStandardErrorSuffix(result.StandardError)
	failureDescription := formatter.describeFailure(failure)

	if remoteArguments[0] == remoteMakeDirectoryCommand {
		remoteDirectory := formatter.ensureValue(remoteArguments[len(remoteArguments)-1])
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(sshMakeDirectoryStartTemplateConstant, remoteDirectory, destination)
		case messageStageSuccess:
			return fmt.Sprintf(sshMakeDirectorySuccessTemplateConstant, remoteDirectory, destination)
		case messageStageFailure:
			return fmt.Sprintf(sshMakeDirectoryFailureTemplateConstant, remoteDirectory, destination, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(sshMakeDirectoryExecutionFailureTemplateConstant, remoteDirectory, destination, failureDescription)
		}
	}

	if strings.Contains(remoteCommand, remoteCreateRepositoryCommand) {
		remoteDirectory := formatter.extractRemoteDirectory(remoteCommand)
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(sshCreateRepositoryStartTemplateConstant, remoteDirectory, destination)
		case messageStageSuccess:
			return fmt.Sprintf(sshCreateRepositorySuccessTemplateConstant, remoteDirectory, destination)
		case messageStageFailure:
			return fmt.Sprintf(sshCreateRepositoryFailureTemplateConstant, remoteDirectory, destination, result.ExitCode, standardErrorSuffix)
		case messageStageExecutionFailure:
			return fmt.Sprintf(sshCreateRepositoryExecutionFailureTemplateConstant, remoteDirectory, destination, failureDescription)
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeSCPMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	operands := formatter.collectOperands(command.Details.Arguments, map[string]struct{}{scpPortFlagConstant: {}})
	if len(operands) < 2 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	destination := operands[len(operands)-1]
	fileCount := len(operands) - 1

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(scpStartTemplateConstant, fileCount, destination)
	case messageStageSuccess:
		return fmt.Sprintf(scpSuccessTemplateConstant, fileCount, destination)
	case messageStageFailure:
		return fmt.Sprintf(scpFailureTemplateConstant, fileCount, destination, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(scpExecutionFailureTemplateConstant, fileCount, destination, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	return fmt.Sprintf(commandLabelTemplateConstant, command.CommandLine(), formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

// collectOperands returns the non-flag arguments, skipping the values of flags listed in valueFlags.
func (formatter CommandMessageFormatter) collectOperands(arguments []string, valueFlags map[string]struct{}) []string {
	operands := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if len(trimmed) == 0 {
			continue
		}
		if _, takesValue := valueFlags[trimmed]; takesValue {
			index++
			continue
		}
		if strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		operands = append(operands, trimmed)
	}
	return operands
}

// splitSSHArguments separates the destination from the remote command; options after the destination belong to the remote command.
func (formatter CommandMessageFormatter) splitSSHArguments(arguments []string) (string, []string) {
	for index := 0; index < len(arguments); index++ {
		trimmed := strings.TrimSpace(arguments[index])
		if trimmed == sshPortFlagConstant {
			index++
			continue
		}
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		return trimmed, arguments[index+1:]
	}
	return emptyStringConstant, nil
}

func (formatter CommandMessageFormatter) findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return fallbackUnknownValueLabelConstant
}

func (formatter CommandMessageFormatter) extractRemoteDirectory(remoteCommand string) string {
	if !strings.HasPrefix(remoteCommand, remoteChangeDirectoryPrefix) {
		return fallbackUnknownValueLabelConstant
	}
	directoryAndRest := strings.TrimPrefix(remoteCommand, remoteChangeDirectoryPrefix)
	directory, _, _ := strings.Cut(directoryAndRest, remoteCommandSeparator)
	return formatter.ensureValue(directory)
}
