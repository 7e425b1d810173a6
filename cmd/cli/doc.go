// Package cli constructs the bigtop-patches command-line interface. It wires
// the Cobra root command, the layered configuration loader, zap logging and the
// command dispatcher that mounts ls, apply and upload-rpms.
package cli
