// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DryRunFlagName prints external commands instead of running them.
	DryRunFlagName = "dry-run"

	// FailFastFlagName aborts on the first failing external command.
	FailFastFlagName = "fail-fast"

	dryRunFlagUsageConstant   = "Print the commands that would run without executing them."
	failFastFlagUsageConstant = "Stop at the first failing external command instead of continuing."
)

// ExecutionDefaults describes default flag values shared across commands.
type ExecutionDefaults struct {
	DryRun   bool
	FailFast bool
}

// ExecutionOptions captures the resolved execution flag values for one invocation.
type ExecutionOptions struct {
	DryRun   bool
	FailFast bool
}

// BindExecutionFlags attaches --dry-run and --fail-fast to the command's local flags.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults) {
	if command == nil {
		return
	}

	flagSet := command.Flags()
	flagSet.Bool(DryRunFlagName, defaults.DryRun, dryRunFlagUsageConstant)
	flagSet.Bool(FailFastFlagName, defaults.FailFast, failFastFlagUsageConstant)
}

// ResolveExecutionOptions reads the execution flags, falling back to configured values
// for flags the operator did not set explicitly.
func ResolveExecutionOptions(flagSet *pflag.FlagSet, configured ExecutionDefaults) ExecutionOptions {
	return ExecutionOptions{
		DryRun:   resolveBoolFlag(flagSet, DryRunFlagName, configured.DryRun),
		FailFast: resolveBoolFlag(flagSet, FailFastFlagName, configured.FailFast),
	}
}

func resolveBoolFlag(flagSet *pflag.FlagSet, flagName string, configuredValue bool) bool {
	if flagSet == nil || flagSet.Lookup(flagName) == nil {
		return configuredValue
	}
	if !flagSet.Changed(flagName) {
		return configuredValue
	}
	flagValue, lookupError := flagSet.GetBool(flagName)
	if lookupError != nil {
		return configuredValue
	}
	return flagValue
}
