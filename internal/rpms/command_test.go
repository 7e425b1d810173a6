package rpms_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/execshell"
	"github.com/temirov/bigtop-patches/internal/rpms"
)

const (
	testSourcesRootConstant       = "/build/output"
	testHadoopArtifactConstant    = testSourcesRootConstant + "/hadoop/x86_64/hadoop-3.3.6-1.el8.x86_64.rpm"
	testZookeeperArtifactConstant = testSourcesRootConstant + "/zookeeper/zookeeper-3.8.4-1.el8.noarch.rpm"
	testServerConstant            = "repo.example.org"
	testUserConstant              = "release"
	testBasePathConstant          = "/srv/bigtop/"
	testUploadStepWarningConstant = "upload step failed; continuing"
	testInventoryWarningConstant  = "unable to read RPM header; uploading anyway"
)

type recordingRemoteExecutor struct {
	recordedCommands []execshell.ShellCommand
	failures         map[execshell.CommandName]error
}

func (executor *recordingRemoteExecutor) ExecuteSSH(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record(execshell.CommandSSH, details)
}

func (executor *recordingRemoteExecutor) ExecuteSCP(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return executor.record(execshell.CommandSCP, details)
}

func (executor *recordingRemoteExecutor) record(name execshell.CommandName, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, execshell.ShellCommand{Name: name, Details: details})
	return execshell.ExecutionResult{}, executor.failures[name]
}

func (executor *recordingRemoteExecutor) commandLines() []string {
	commandLines := make([]string, 0, len(executor.recordedCommands))
	for _, recordedCommand := range executor.recordedCommands {
		commandLines = append(commandLines, recordedCommand.CommandLine())
	}
	return commandLines
}

type uploadHarness struct {
	fileSystem afero.Fs
	executor   *recordingRemoteExecutor
	logs       *observer.ObservedLogs
	output     *bytes.Buffer
	root       *cobra.Command
	config     rpms.Configuration
}

func newUploadHarness(testInstance *testing.T, artifactPaths ...string) *uploadHarness {
	testInstance.Helper()

	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, fileSystem.MkdirAll(testSourcesRootConstant+"/hadoop", 0o755))
	require.NoError(testInstance, fileSystem.MkdirAll(testSourcesRootConstant+"/zookeeper", 0o755))
	for _, artifactPath := range artifactPaths {
		require.NoError(testInstance, afero.WriteFile(fileSystem, artifactPath, []byte("not a real rpm"), 0o644))
	}

	observerCore, observedLogs := observer.New(zapcore.DebugLevel)
	logger := zap.New(observerCore)

	harness := &uploadHarness{
		fileSystem: fileSystem,
		executor:   &recordingRemoteExecutor{failures: map[execshell.CommandName]error{}},
		logs:       observedLogs,
		output:     &bytes.Buffer{},
		config: rpms.Configuration{
			SourcesRoot:      testSourcesRootConstant,
			BasePath:         testBasePathConstant,
			OperatingSystems: []string{"centos7", "redhat8"},
			Server:           testServerConstant,
			User:             testUserConstant,
			Port:             22,
		},
	}

	dispatcher := commands.NewDispatcher()
	require.NoError(testInstance, dispatcher.Register(&rpms.UploadCommand{
		LoggerProvider:        func() *zap.Logger { return logger },
		ConfigurationProvider: func() rpms.Configuration { return harness.config },
		Executor:              harness.executor,
		FileSystem:            fileSystem,
	}))

	harness.root = &cobra.Command{Use: "bigtop-patches", SilenceUsage: true, SilenceErrors: true}
	harness.root.SetOut(harness.output)
	harness.root.SetErr(&bytes.Buffer{})
	require.NoError(testInstance, dispatcher.Mount(harness.root))
	return harness
}

func (harness *uploadHarness) run(arguments ...string) error {
	harness.root.SetArgs(append([]string{"upload-rpms"}, arguments...))
	return harness.root.Execute()
}

func (harness *uploadHarness) outputLines() []string {
	return strings.Split(strings.TrimSuffix(harness.output.String(), "\n"), "\n")
}

func TestUploadCommandDryRun(testInstance *testing.T) {
	testCases := []struct {
		name          string
		artifacts     []string
		arguments     []string
		expectedLines []string
	}{
		{
			name:      "empty_sources_root_omits_copy",
			arguments: []string{"--os", "centos7", "--dry-run"},
			expectedLines: []string{
				"Dry run",
				"ssh -p 22 release@repo.example.org mkdir -p /srv/bigtop/centos7testing",
				"ssh -p 22 release@repo.example.org cd /srv/bigtop/centos7testing && createrepo .",
			},
		},
		{
			name:      "production_copies_all_artifacts",
			artifacts: []string{testHadoopArtifactConstant, testZookeeperArtifactConstant},
			arguments: []string{"--os", "redhat8", "--production", "--port", "2222", "--dry-run"},
			expectedLines: []string{
				"Dry run",
				"ssh -p 2222 release@repo.example.org mkdir -p /srv/bigtop/redhat8",
				"scp -P 2222 " + testHadoopArtifactConstant + " " + testZookeeperArtifactConstant + " release@repo.example.org:/srv/bigtop/redhat8",
				"ssh -p 2222 release@repo.example.org cd /srv/bigtop/redhat8 && createrepo .",
			},
		},
		{
			name:      "package_filter_and_overrides",
			artifacts: []string{testHadoopArtifactConstant, testZookeeperArtifactConstant},
			arguments: []string{"--os", "redhat8", "--package", "zookeeper", "--server", "mirror", "--user", "ops", "--dry-run"},
			expectedLines: []string{
				"Dry run",
				"ssh -p 22 ops@mirror mkdir -p /srv/bigtop/redhat8testing",
				"scp -P 22 " + testZookeeperArtifactConstant + " ops@mirror:/srv/bigtop/redhat8testing",
				"ssh -p 22 ops@mirror cd /srv/bigtop/redhat8testing && createrepo .",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newUploadHarness(testInstance, testCase.artifacts...)

			require.NoError(testInstance, harness.run(testCase.arguments...))
			require.Equal(testInstance, testCase.expectedLines, harness.outputLines())
			require.Empty(testInstance, harness.executor.recordedCommands)
		})
	}
}

func TestUploadCommandExecutesPlan(testInstance *testing.T) {
	harness := newUploadHarness(testInstance, testHadoopArtifactConstant)

	require.NoError(testInstance, harness.run("--os", "centos7"))

	require.Equal(testInstance, []string{
		"Uploading 1 RPMs to repo.example.org:/srv/bigtop/centos7testing",
		"Regenerating repository metadata in /srv/bigtop/centos7testing",
	}, harness.outputLines())
	require.Equal(testInstance, []string{
		"ssh -p 22 release@repo.example.org mkdir -p /srv/bigtop/centos7testing",
		"scp -P 22 " + testHadoopArtifactConstant + " release@repo.example.org:/srv/bigtop/centos7testing",
		"ssh -p 22 release@repo.example.org cd /srv/bigtop/centos7testing && createrepo .",
	}, harness.executor.commandLines())
	require.Equal(testInstance, []string{"-p", "22", "release@repo.example.org", "cd /srv/bigtop/centos7testing && createrepo ."}, harness.executor.recordedCommands[2].Details.Arguments)

	inventoryWarnings := harness.logs.FilterMessage(testInventoryWarningConstant).All()
	require.Len(testInstance, inventoryWarnings, 1)
}

func TestUploadCommandWithoutArtifactsSkipsCopy(testInstance *testing.T) {
	harness := newUploadHarness(testInstance)

	require.NoError(testInstance, harness.run("--os", "redhat8"))
	require.Equal(testInstance, []string{"Regenerating repository metadata in /srv/bigtop/redhat8testing"}, harness.outputLines())
	require.Equal(testInstance, []execshell.CommandName{execshell.CommandSSH, execshell.CommandSSH}, []execshell.CommandName{
		harness.executor.recordedCommands[0].Name,
		harness.executor.recordedCommands[1].Name,
	})
	require.Len(testInstance, harness.executor.recordedCommands, 2)
}

func TestUploadCommandFailureHandling(testInstance *testing.T) {
	copyFailure := errors.New("scp exited with code 1: lost connection")

	testCases := []struct {
		name               string
		arguments          []string
		configuredFailFast bool
		expectError        bool
		expectedCommands   int
		expectedWarnings   int
	}{
		{
			name:             "continues_by_default",
			arguments:        []string{"--os", "centos7"},
			expectedCommands: 3,
			expectedWarnings: 1,
		},
		{
			name:             "fail_fast_flag_aborts",
			arguments:        []string{"--os", "centos7", "--fail-fast"},
			expectError:      true,
			expectedCommands: 2,
		},
		{
			name:               "fail_fast_configuration_aborts",
			arguments:          []string{"--os", "centos7"},
			configuredFailFast: true,
			expectError:        true,
			expectedCommands:   2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newUploadHarness(testInstance, testHadoopArtifactConstant)
			harness.config.FailFast = testCase.configuredFailFast
			harness.executor.failures[execshell.CommandSCP] = copyFailure

			executionError := harness.run(testCase.arguments...)
			if testCase.expectError {
				require.ErrorIs(testInstance, executionError, copyFailure)
				require.Equal(testInstance, commands.ExitCodeFailure, commands.ExitCode(executionError))
			} else {
				require.NoError(testInstance, executionError)
			}

			require.Len(testInstance, harness.executor.recordedCommands, testCase.expectedCommands)
			require.Len(testInstance, harness.logs.FilterMessage(testUploadStepWarningConstant).All(), testCase.expectedWarnings)
		})
	}
}

func TestUploadCommandRejectsInvalidInput(testInstance *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		configure        func(harness *uploadHarness)
		expectedExitCode int
		expectedMessage  string
	}{
		{
			name:             "missing_operating_system",
			arguments:        []string{"--dry-run"},
			expectedExitCode: commands.ExitCodeUsage,
			expectedMessage:  "operating system is required (choose from centos7, redhat8)",
		},
		{
			name:             "invalid_operating_system",
			arguments:        []string{"--os", "ubuntu22"},
			expectedExitCode: commands.ExitCodeUsage,
			expectedMessage:  `invalid operating system "ubuntu22"`,
		},
		{
			name:             "unknown_package",
			arguments:        []string{"--os", "centos7", "--package", "kafka"},
			expectedExitCode: commands.ExitCodeUsage,
			expectedMessage:  `invalid package "kafka" (choose from hadoop, zookeeper)`,
		},
		{
			name:             "invalid_port",
			arguments:        []string{"--os", "centos7", "--port", "70000"},
			expectedExitCode: commands.ExitCodeUsage,
			expectedMessage:  "invalid port 70000",
		},
		{
			name:             "positional_arguments",
			arguments:        []string{"hadoop"},
			expectedExitCode: commands.ExitCodeUsage,
			expectedMessage:  "unknown command",
		},
		{
			name:             "missing_sources_root",
			arguments:        []string{"--os", "centos7", "--sources-root", "/nowhere", "--dry-run"},
			expectedExitCode: commands.ExitCodeFailure,
			expectedMessage:  "sources root does not exist: /nowhere",
		},
		{
			name:      "missing_configured_sources_root",
			arguments: []string{"--os", "bogus"},
			configure: func(harness *uploadHarness) {
				harness.config.SourcesRoot = "/nowhere"
			},
			expectedExitCode: commands.ExitCodeFailure,
			expectedMessage:  "sources root does not exist: /nowhere",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newUploadHarness(testInstance, testHadoopArtifactConstant)
			if testCase.configure != nil {
				testCase.configure(harness)
			}

			executionError := harness.run(testCase.arguments...)
			require.Error(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedExitCode, commands.ExitCode(executionError))
			require.ErrorContains(testInstance, executionError, testCase.expectedMessage)
			require.Empty(testInstance, harness.executor.recordedCommands)
			require.Empty(testInstance, harness.output.String())
		})
	}
}
