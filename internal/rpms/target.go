package rpms

import "fmt"

const (
	testingSuffixConstant                 = "testing"
	remoteDestinationTemplateConstant     = "%s@%s"
	remoteCopyDestinationTemplateConstant = "%s@%s:%s"
)

// Target identifies the remote repository directory for an upload.
type Target struct {
	BasePath        string
	OperatingSystem string
	Production      bool
}

// RemotePath returns BasePath + OperatingSystem, suffixed with "testing" unless Production is set.
func (target Target) RemotePath() string {
	suffix := testingSuffixConstant
	if target.Production {
		suffix = ""
	}
	return target.BasePath + target.OperatingSystem + suffix
}

// Host identifies the repository server and the account used to reach it.
type Host struct {
	Server string
	User   string
	Port   int
}

// Destination renders user@server.
func (host Host) Destination() string {
	return fmt.Sprintf(remoteDestinationTemplateConstant, host.User, host.Server)
}

// CopyDestination renders user@server:remotePath.
func (host Host) CopyDestination(remotePath string) string {
	return fmt.Sprintf(remoteCopyDestinationTemplateConstant, host.User, host.Server, remotePath)
}
