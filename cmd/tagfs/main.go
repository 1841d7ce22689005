package main

import (
	"fmt"
	"os"

	"github.com/jamesblissett/tagfs/cmd/tagfs/cli"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return cli.Root().Execute(os.Args[1:])
}
