package packages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/temirov/bigtop-patches/internal/commands"
	"github.com/temirov/bigtop-patches/internal/utils/flags"
)

const (
	packageChoiceSubjectConstant     = "package"
	rootMissingTemplateConstant      = "%w: %s"
	rootNotDirectoryTemplateConstant = "%w: %s is not a directory"
	rootInspectionTemplateConstant   = "unable to inspect %s: %w"
	rootListingTemplateConstant      = "unable to list %s: %w"
)

// ErrRootMissing indicates the packages root directory does not exist.
var ErrRootMissing = errors.New("packages root does not exist")

// Package is a named directory beneath the packages root.
type Package struct {
	Name string
	Path string
}

// Registry maps package names to their directories.
type Registry struct {
	packagesByName map[string]Package
	sortedNames    []string
}

// LoadRegistry enumerates the immediate subdirectories of rootPath. A missing root is a
// commands.ConfigurationError; a root without subdirectories yields an empty Registry.
func LoadRegistry(fileSystem afero.Fs, rootPath string) (Registry, error) {
	rootInfo, statError := fileSystem.Stat(rootPath)
	if statError != nil {
		if errors.Is(statError, os.ErrNotExist) {
			return Registry{}, commands.NewConfigurationError(fmt.Errorf(rootMissingTemplateConstant, ErrRootMissing, rootPath))
		}
		return Registry{}, fmt.Errorf(rootInspectionTemplateConstant, rootPath, statError)
	}
	if !rootInfo.IsDir() {
		return Registry{}, commands.NewConfigurationError(fmt.Errorf(rootNotDirectoryTemplateConstant, ErrRootMissing, rootPath))
	}

	entries, listError := afero.ReadDir(fileSystem, rootPath)
	if listError != nil {
		return Registry{}, fmt.Errorf(rootListingTemplateConstant, rootPath, listError)
	}

	registry := Registry{
		packagesByName: make(map[string]Package, len(entries)),
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		packageName := entry.Name()
		registry.packagesByName[packageName] = Package{Name: packageName, Path: filepath.Join(rootPath, packageName)}
		registry.sortedNames = append(registry.sortedNames, packageName)
	}
	sort.Strings(registry.sortedNames)

	return registry, nil
}

// Names returns the package names in sorted order.
func (registry Registry) Names() []string {
	return append([]string{}, registry.sortedNames...)
}

// Lookup returns the named package or a commands.UsageError listing the valid names.
func (registry Registry) Lookup(name string) (Package, error) {
	validatedName, validationError := flags.ValidateChoice(packageChoiceSubjectConstant, name, registry.sortedNames)
	if validationError != nil {
		return Package{}, commands.NewUsageError(validationError)
	}
	return registry.packagesByName[validatedName], nil
}
