// Package commands defines the contract every bigtop-patches subcommand satisfies
// and the dispatch table that mounts those subcommands on the Cobra root.
package commands
