package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

const (
	nilCommandMessageConstant              = "command is nil"
	emptyCommandNameMessageConstant        = "command name is empty"
	duplicateCommandTemplateConstant       = "command %s already registered"
	nilRootCommandMessageConstant          = "root command is nil"
	subparserConfigurationTemplateConstant = "unable to configure %s: %w"
)

// ErrDuplicateCommand indicates a second registration under an existing name.
var ErrDuplicateCommand = errors.New("duplicate command")

// Dispatcher maps command names to Command implementations.
type Dispatcher struct {
	commandsByName map[string]Command
	orderedNames   []string
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{commandsByName: make(map[string]Command)}
}

// Register adds command under its Name.
func (dispatcher *Dispatcher) Register(command Command) error {
	if command == nil {
		return errors.New(nilCommandMessageConstant)
	}
	commandName := strings.TrimSpace(command.Name())
	if len(commandName) == 0 {
		return errors.New(emptyCommandNameMessageConstant)
	}
	if _, exists := dispatcher.commandsByName[commandName]; exists {
		return fmt.Errorf("%w: "+duplicateCommandTemplateConstant, ErrDuplicateCommand, commandName)
	}
	dispatcher.commandsByName[commandName] = command
	dispatcher.orderedNames = append(dispatcher.orderedNames, commandName)
	return nil
}

// Lookup returns the command registered under name.
func (dispatcher *Dispatcher) Lookup(name string) (Command, bool) {
	command, exists := dispatcher.commandsByName[name]
	return command, exists
}

// Names returns the registered command names in sorted order.
func (dispatcher *Dispatcher) Names() []string {
	names := append([]string{}, dispatcher.orderedNames...)
	sort.Strings(names)
	return names
}

// Mount attaches one Cobra subcommand per registered command to root, in registration order.
// Argument validation failures are reported as UsageError.
func (dispatcher *Dispatcher) Mount(root *cobra.Command) error {
	if root == nil {
		return errors.New(nilRootCommandMessageConstant)
	}

	for _, commandName := range dispatcher.orderedNames {
		subcommand, buildError := buildSubcommand(dispatcher.commandsByName[commandName])
		if buildError != nil {
			return buildError
		}
		root.AddCommand(subcommand)
	}
	return nil
}

func buildSubcommand(command Command) (*cobra.Command, error) {
	subcommand := &cobra.Command{
		Use:   command.Name(),
		Short: command.Help(),
		RunE: func(cobraCommand *cobra.Command, arguments []string) error {
			executionContext := cobraCommand.Context()
			if executionContext == nil {
				executionContext = context.Background()
			}
			return command.Execute(executionContext, Invocation{
				Arguments: arguments,
				Flags:     cobraCommand.Flags(),
				Output:    cobraCommand.OutOrStdout(),
			})
		},
	}

	if configurationError := command.ConfigureSubparser(subcommand); configurationError != nil {
		return nil, fmt.Errorf(subparserConfigurationTemplateConstant, command.Name(), configurationError)
	}

	if argumentValidator := subcommand.Args; argumentValidator != nil {
		subcommand.Args = func(cobraCommand *cobra.Command, arguments []string) error {
			return NewUsageError(argumentValidator(cobraCommand, arguments))
		}
	}

	return subcommand, nil
}
