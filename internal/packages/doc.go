// Package packages discovers the named package directories that live under a
// packages root, for example bigtop-packages/src/common/hadoop.
//
// A Registry is loaded once per invocation and never mutated afterwards.
package packages
