package patches

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/packages"
	"github.com/temirov/bigtop-patches/internal/utils/flags"
)

const (
	listCommandNameConstant         = "ls"
	listCommandUseConstant          = "ls <package>"
	listCommandHelpConstant         = "List the patches of a package in application order"
	listCommandExampleConstant      = "bigtop-patches ls hadoop"
	listOutputLineTemplateConstant  = "%s\n"
	listLogMessageConstant          = "patches listed"
	logFieldPackageConstant         = "package"
	logFieldPatchCountConstant      = "patch_count"
	packageArgumentIndexConstant    = 0
	listPositionalArgumentsConstant = 1
)

// ListCommand prints the patch file names of a package, one per line.
type ListCommand struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            afero.Fs
}

// Name implements commands.Command.
func (command *ListCommand) Name() string {
	return listCommandNameConstant
}

// Help implements commands.Command.
func (command *ListCommand) Help() string {
	return listCommandHelpConstant
}

// ConfigureSubparser implements commands.Command.
func (command *ListCommand) ConfigureSubparser(subcommand *cobra.Command) error {
	subcommand.Use = listCommandUseConstant
	subcommand.Example = listCommandExampleConstant
	subcommand.Args = cobra.ExactArgs(listPositionalArgumentsConstant)
	subcommand.ValidArgsFunction = flags.ChoiceCompletion(func() []string {
		return knownPackageNames(resolveFileSystem(command.FileSystem), resolveConfiguration(command.ConfigurationProvider))
	})
	return nil
}

// Execute implements commands.Command.
func (command *ListCommand) Execute(executionContext context.Context, invocation commands.Invocation) error {
	logger := resolveLogger(command.LoggerProvider)
	configuration := resolveConfiguration(command.ConfigurationProvider)
	fileSystem := resolveFileSystem(command.FileSystem)

	selectedPackage, lookupError := lookupPackage(fileSystem, configuration, invocation.Argument(packageArgumentIndexConstant))
	if lookupError != nil {
		return lookupError
	}

	orderedPatches, listError := NewEnumerator(fileSystem).List(selectedPackage.Path)
	if listError != nil {
		return listError
	}

	for _, patch := range orderedPatches {
		if _, writeError := fmt.Fprintf(invocation.Output, listOutputLineTemplateConstant, patch.Name); writeError != nil {
			return writeError
		}
	}

	logger.Debug(
		listLogMessageConstant,
		zap.String(logFieldPackageConstant, selectedPackage.Name),
		zap.Int(logFieldPatchCountConstant, len(orderedPatches)),
	)
	return nil
}

func lookupPackage(fileSystem afero.Fs, configuration Configuration, packageName string) (packages.Package, error) {
	registry, registryError := packages.LoadRegistry(fileSystem, configuration.PackagesRoot)
	if registryError != nil {
		return packages.Package{}, registryError
	}
	return registry.Lookup(packageName)
}

func knownPackageNames(fileSystem afero.Fs, configuration Configuration) []string {
	registry, registryError := packages.LoadRegistry(fileSystem, configuration.PackagesRoot)
	if registryError != nil {
		return nil
	}
	return registry.Names()
}
