package rpms

import (
	"fmt"

	"github.com/sassoftware/go-rpmutils"
	"github.com/spf13/afero"
)

const (
	inventoryOpenErrorTemplateConstant   = "unable to open %s: %w"
	inventoryHeaderErrorTemplateConstant = "unable to read RPM header of %s: %w"
	nevraTemplateConstant                = "%s-%s-%s.%s"
)

// Artifact describes an RPM file and the identity recorded in its header.
type Artifact struct {
	Path         string
	Name         string
	Version      string
	Release      string
	Architecture string
}

// NEVRA renders name-version-release.arch.
func (artifact Artifact) NEVRA() string {
	return fmt.Sprintf(nevraTemplateConstant, artifact.Name, artifact.Version, artifact.Release, artifact.Architecture)
}

// HeaderReader extracts artifact identities from RPM headers.
type HeaderReader struct {
	fileSystem afero.Fs
}

// NewHeaderReader constructs a HeaderReader over fileSystem.
func NewHeaderReader(fileSystem afero.Fs) HeaderReader {
	return HeaderReader{fileSystem: fileSystem}
}

// Read parses the header of the RPM at artifactPath. The payload is not read.
func (reader HeaderReader) Read(artifactPath string) (Artifact, error) {
	artifactFile, openError := reader.fileSystem.Open(artifactPath)
	if openError != nil {
		return Artifact{}, fmt.Errorf(inventoryOpenErrorTemplateConstant, artifactPath, openError)
	}
	defer artifactFile.Close()

	rpmPackage, readError := rpmutils.ReadRpm(artifactFile)
	if readError != nil {
		return Artifact{}, fmt.Errorf(inventoryHeaderErrorTemplateConstant, artifactPath, readError)
	}

	return Artifact{
		Path:         artifactPath,
		Name:         headerString(rpmPackage, rpmutils.NAME),
		Version:      headerString(rpmPackage, rpmutils.VERSION),
		Release:      headerString(rpmPackage, rpmutils.RELEASE),
		Architecture: headerString(rpmPackage, rpmutils.ARCH),
	}, nil
}

func headerString(rpmPackage *rpmutils.Rpm, tag int) string {
	tagValue, lookupError := rpmPackage.Header.Get(tag)
	if lookupError != nil {
		return ""
	}

	switch typedValue := tagValue.(type) {
	case string:
		return typedValue
	case []byte:
		return string(typedValue)
	case []string:
		if len(typedValue) > 0 {
			return typedValue[0]
		}
		return ""
	default:
		return fmt.Sprintf("%v", typedValue)
	}
}
