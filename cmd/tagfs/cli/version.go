package cli

import (
	"fmt"

	"github.com/jamesblissett/tagfs/lib/version"
)

func versionCommand() *Command {
	return &Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Printf("tagfs %s\n", version.Full())
			return nil
		},
	}
}
