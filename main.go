package main

import (
	"fmt"
	"os"

	"github.com/temirov/bigtop-patches/cmd/cli"
	"github.com/temirov/bigtop-patches/internal/commands"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the bigtop-patches command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(commands.ExitCode(executionError))
	}
}
