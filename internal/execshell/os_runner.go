package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
)

// OSCommandRunner executes commands using the operating system facilities.
// Output is captured for the ExecutionResult and, when mirror writers are
// configured, streamed to them while the process runs.
type OSCommandRunner struct {
	standardOutputMirror io.Writer
	standardErrorMirror  io.Writer
}

// NewOSCommandRunner constructs a runner backed by os/exec that only captures output.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// NewStreamingOSCommandRunner constructs a runner that also mirrors process output to the provided writers.
func NewStreamingOSCommandRunner(standardOutputMirror io.Writer, standardErrorMirror io.Writer) *OSCommandRunner {
	return &OSCommandRunner{
		standardOutputMirror: standardOutputMirror,
		standardErrorMirror:  standardErrorMirror,
	}
}

// Run executes the supplied command and blocks until it exits.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = mirrorWriter(&standardOutputBuffer, runner.standardOutputMirror)
	executable.Stderr = mirrorWriter(&standardErrorBuffer, runner.standardErrorMirror)

	runError := executable.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}
	if runError == nil {
		return result, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}

	return ExecutionResult{}, runError
}

func mirrorWriter(buffer *bytes.Buffer, mirror io.Writer) io.Writer {
	if mirror == nil {
		return buffer
	}
	return io.MultiWriter(buffer, mirror)
}
