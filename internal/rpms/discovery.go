package rpms

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	rpmSuffixConstant              = ".rpm"
	discoveryErrorTemplateConstant = "unable to discover RPMs under %s: %w"
)

// Discoverer finds RPM artifacts beneath a directory.
type Discoverer struct {
	fileSystem afero.Fs
}

// NewDiscoverer constructs a Discoverer over fileSystem.
func NewDiscoverer(fileSystem afero.Fs) Discoverer {
	return Discoverer{fileSystem: fileSystem}
}

// Discover walks rootPath recursively and returns the sorted paths of regular *.rpm files.
func (discoverer Discoverer) Discover(rootPath string) ([]string, error) {
	artifactPaths := make([]string, 0)
	walkError := afero.Walk(discoverer.fileSystem, rootPath, func(walkedPath string, fileInfo os.FileInfo, visitError error) error {
		if visitError != nil {
			return visitError
		}
		if fileInfo.Mode().IsRegular() && strings.HasSuffix(fileInfo.Name(), rpmSuffixConstant) {
			artifactPaths = append(artifactPaths, walkedPath)
		}
		return nil
	})
	if walkError != nil {
		return nil, fmt.Errorf(discoveryErrorTemplateConstant, rootPath, walkError)
	}

	sort.Strings(artifactPaths)
	return artifactPaths, nil
}
