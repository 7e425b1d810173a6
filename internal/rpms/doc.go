// Package rpms uploads built RPM artifacts to a remote yum repository host.
//
// Artifacts are discovered beneath the sources root, copied with scp into a
// directory derived from the operating system and the production/testing
// selection, and the repository metadata is regenerated remotely with
// createrepo over ssh.
package rpms
