package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/temirov/bigtop-patches/internal/commands"
)

const (
	testListCommandNameConstant  = "ls"
	testApplyCommandNameConstant = "apply"
	testPackageArgumentConstant  = "hadoop"
	testOutputTemplateConstant   = "%s executed with %v\n"
)

type stubCommand struct {
	name               string
	configureFailure   error
	executionFailure   error
	executedArguments  []string
	executionCount     int
	executionContextOK bool
}

func (command *stubCommand) Name() string {
	return command.name
}

func (command *stubCommand) Help() string {
	return "stub " + command.name
}

func (command *stubCommand) ConfigureSubparser(subcommand *cobra.Command) error {
	subcommand.Args = cobra.ExactArgs(1)
	subcommand.Flags().Bool("dry-run", false, "")
	return command.configureFailure
}

func (command *stubCommand) Execute(executionContext context.Context, invocation commands.Invocation) error {
	command.executionCount++
	command.executedArguments = invocation.Arguments
	command.executionContextOK = executionContext != nil && invocation.Flags != nil && invocation.Flags.Lookup("dry-run") != nil
	fmt.Fprintf(invocation.Output, testOutputTemplateConstant, command.name, invocation.Arguments)
	return command.executionFailure
}

func TestDispatcherRegisterRejectsDuplicatesAndInvalidCommands(testInstance *testing.T) {
	dispatcher := commands.NewDispatcher()

	require.NoError(testInstance, dispatcher.Register(&stubCommand{name: testListCommandNameConstant}))
	require.ErrorIs(testInstance, dispatcher.Register(&stubCommand{name: testListCommandNameConstant}), commands.ErrDuplicateCommand)
	require.Error(testInstance, dispatcher.Register(nil))
	require.Error(testInstance, dispatcher.Register(&stubCommand{name: " "}))

	require.NoError(testInstance, dispatcher.Register(&stubCommand{name: testApplyCommandNameConstant}))
	require.Equal(testInstance, []string{testApplyCommandNameConstant, testListCommandNameConstant}, dispatcher.Names())

	registered, found := dispatcher.Lookup(testApplyCommandNameConstant)
	require.True(testInstance, found)
	require.Equal(testInstance, testApplyCommandNameConstant, registered.Name())

	_, found = dispatcher.Lookup("upload")
	require.False(testInstance, found)
}

func TestDispatcherMountRoutesExactlyOneCommand(testInstance *testing.T) {
	listCommand := &stubCommand{name: testListCommandNameConstant}
	applyCommand := &stubCommand{name: testApplyCommandNameConstant}

	dispatcher := commands.NewDispatcher()
	require.NoError(testInstance, dispatcher.Register(listCommand))
	require.NoError(testInstance, dispatcher.Register(applyCommand))

	outputBuffer := &bytes.Buffer{}
	root := &cobra.Command{Use: "bigtop-patches", SilenceUsage: true, SilenceErrors: true}
	root.SetOut(outputBuffer)
	require.NoError(testInstance, dispatcher.Mount(root))

	root.SetArgs([]string{testListCommandNameConstant, testPackageArgumentConstant})
	require.NoError(testInstance, root.Execute())

	require.Equal(testInstance, 1, listCommand.executionCount)
	require.Zero(testInstance, applyCommand.executionCount)
	require.Equal(testInstance, []string{testPackageArgumentConstant}, listCommand.executedArguments)
	require.True(testInstance, listCommand.executionContextOK)
	require.Equal(testInstance, "ls executed with [hadoop]\n", outputBuffer.String())
}

func TestDispatcherMountReportsArgumentErrorsAsUsageErrors(testInstance *testing.T) {
	listCommand := &stubCommand{name: testListCommandNameConstant}
	dispatcher := commands.NewDispatcher()
	require.NoError(testInstance, dispatcher.Register(listCommand))

	root := &cobra.Command{Use: "bigtop-patches", SilenceUsage: true, SilenceErrors: true}
	root.SetOut(&bytes.Buffer{})
	require.NoError(testInstance, dispatcher.Mount(root))

	root.SetArgs([]string{testListCommandNameConstant})
	executionError := root.Execute()

	var usageError commands.UsageError
	require.ErrorAs(testInstance, executionError, &usageError)
	require.Equal(testInstance, commands.ExitCodeUsage, commands.ExitCode(executionError))
	require.Zero(testInstance, listCommand.executionCount)
}

func TestDispatcherMountPropagatesSubparserFailures(testInstance *testing.T) {
	missingRoot := commands.NewConfigurationErrorf("packages root %s does not exist", "/missing")
	dispatcher := commands.NewDispatcher()
	require.NoError(testInstance, dispatcher.Register(&stubCommand{name: testListCommandNameConstant, configureFailure: missingRoot}))

	mountError := dispatcher.Mount(&cobra.Command{Use: "bigtop-patches"})

	var configurationError commands.ConfigurationError
	require.ErrorAs(testInstance, mountError, &configurationError)
	require.ErrorContains(testInstance, mountError, "unable to configure ls")
	require.Error(testInstance, dispatcher.Mount(nil))
}

func TestExitCode(testInstance *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
	}{
		{name: "success", err: nil, expectedCode: commands.ExitCodeSuccess},
		{name: "usage", err: commands.NewUsageError(errors.New("unknown package")), expectedCode: commands.ExitCodeUsage},
		{name: "wrapped_usage", err: fmt.Errorf("ls: %w", commands.NewUsageError(errors.New("unknown package"))), expectedCode: commands.ExitCodeUsage},
		{name: "configuration", err: commands.NewConfigurationError(errors.New("Repository directory does not exist")), expectedCode: commands.ExitCodeFailure},
		{name: "other", err: errors.New("git exited with code 1"), expectedCode: commands.ExitCodeFailure},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedCode, commands.ExitCode(testCase.err))
		})
	}
}

func TestErrorConstructorsIgnoreNilCauses(testInstance *testing.T) {
	require.NoError(testInstance, commands.NewUsageError(nil))
	require.NoError(testInstance, commands.NewConfigurationError(nil))

	cause := errors.New("Repository directory does not exist")
	configurationError := commands.NewConfigurationError(cause)
	require.ErrorIs(testInstance, configurationError, cause)
	require.Equal(testInstance, cause.Error(), configurationError.Error())
}

func TestInvocationArgument(testInstance *testing.T) {
	invocation := commands.Invocation{Arguments: []string{testPackageArgumentConstant}}
	require.Equal(testInstance, testPackageArgumentConstant, invocation.Argument(0))
	require.Empty(testInstance, invocation.Argument(1))
	require.Empty(testInstance, invocation.Argument(-1))
}
