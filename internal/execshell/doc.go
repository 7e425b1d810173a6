// Package execshell runs the external tools the CLI orchestrates.
//
// ShellExecutor wraps a CommandRunner (OSCommandRunner by default), logs each
// invocation, notifies a CommandEventObserver and turns non-zero exit codes
// into CommandFailedError values. CommandMessageFormatter renders git, ssh and
// scp invocations as operator-facing sentences.
package execshell
