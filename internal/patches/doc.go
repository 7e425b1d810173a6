// Package patches lists and applies the ordered *.diff files kept for each
// package under the packages root.
//
// Patches are ordered by the first run of digits in their file name, so
// 1-c.diff precedes 002-b.diff which precedes 010-a.diff. The apply command
// feeds all of a package's patches to a single git apply invocation inside the
// target checkout, then stages and commits the result.
package patches
