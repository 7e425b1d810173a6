package commands

import (
	"errors"
	"fmt"
)

const (
	// ExitCodeSuccess reports a completed invocation.
	ExitCodeSuccess = 0

	// ExitCodeFailure reports configuration errors and external command failures.
	ExitCodeFailure = 1

	// ExitCodeUsage reports invalid command-line input.
	ExitCodeUsage = 2
)

// UsageError reports invalid command-line input such as an unknown package name,
// an unsupported operating system or a wrong number of arguments.
type UsageError struct {
	Cause error
}

// NewUsageError wraps cause as a UsageError.
func NewUsageError(cause error) error {
	if cause == nil {
		return nil
	}
	return UsageError{Cause: cause}
}

// Error returns the cause message.
func (usageError UsageError) Error() string {
	return usageError.Cause.Error()
}

// Unwrap exposes the cause.
func (usageError UsageError) Unwrap() error {
	return usageError.Cause
}

// ConfigurationError reports a missing prerequisite, typically a directory, detected
// before any external effect.
type ConfigurationError struct {
	Cause error
}

// NewConfigurationError wraps cause as a ConfigurationError.
func NewConfigurationError(cause error) error {
	if cause == nil {
		return nil
	}
	return ConfigurationError{Cause: cause}
}

// NewConfigurationErrorf formats a ConfigurationError.
func NewConfigurationErrorf(format string, arguments ...any) error {
	return ConfigurationError{Cause: fmt.Errorf(format, arguments...)}
}

// Error returns the cause message.
func (configurationError ConfigurationError) Error() string {
	return configurationError.Cause.Error()
}

// Unwrap exposes the cause.
func (configurationError ConfigurationError) Unwrap() error {
	return configurationError.Cause
}

// ExitCode maps an invocation error to the process exit status.
func ExitCode(invocationError error) int {
	if invocationError == nil {
		return ExitCodeSuccess
	}
	var usageError UsageError
	if errors.As(invocationError, &usageError) {
		return ExitCodeUsage
	}
	return ExitCodeFailure
}
