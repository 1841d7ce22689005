package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
)

func renameCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "rename",
		Summary: "Rename a path prefix across every tagging",
		Usage:   "tagfs rename <old-prefix> <new-prefix>",
		Description: `Rewrite every tagged path beginning with old-prefix to begin with
new-prefix instead, leaving its tags unchanged. Useful after moving or
renaming a directory on the host filesystem outside of tagfs's view.`,
		Examples: []Example{
			{Description: "Move a renamed directory's taggings", Command: "tagfs rename /media/old-name /media/new-name"},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("rename", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return usageError("usage: tagfs rename <old-prefix> <new-prefix>")
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RenamePrefix(context.Background(), args[0], args[1]); err != nil {
				return &storeError{fmt.Errorf("renaming prefix: %w", err)}
			}
			return nil
		},
	}
}
