package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Command is a named, self-describing subcommand.
type Command interface {
	// Name is the unique token used for dispatch.
	Name() string
	// Help is a one-line description.
	Help() string
	// ConfigureSubparser registers flags, positional argument rules and completions.
	ConfigureSubparser(subcommand *cobra.Command) error
	// Execute performs the command's effect.
	Execute(executionContext context.Context, invocation Invocation) error
}

// Invocation carries the parsed input of a single subcommand execution.
type Invocation struct {
	Arguments []string
	Flags     *pflag.FlagSet
	Output    io.Writer
}

// Argument returns the positional argument at index or an empty string.
func (invocation Invocation) Argument(index int) string {
	if index < 0 || index >= len(invocation.Arguments) {
		return ""
	}
	return invocation.Arguments[index]
}
