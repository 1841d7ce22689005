package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
)

func tagsCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "tags",
		Summary: "List tag names, or the tags attached to a path",
		Usage:   "tagfs tags [path]",
		Description: `With no argument, lists every distinct tag in the store, one per
value (genre=crime and genre=romance list separately).
Given a path, lists the tags attached to that path.

Exits with status 1 when the result would be empty.`,
		Examples: []Example{
			{Description: "List every distinct tag", Command: "tagfs tags"},
			{Description: "List a path's tags", Command: `tagfs tags /film/Heat\ \(1995\)`},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("tags", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) > 1 {
				return usageError("usage: tagfs tags [path]")
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()

			if len(args) == 0 {
				tags, err := store.AllTags(ctx)
				if err != nil {
					return &storeError{fmt.Errorf("listing tags: %w", err)}
				}
				for _, tag := range tags {
					fmt.Println(tag.String())
				}
				if len(tags) == 0 {
					return &ExitError{Code: 1}
				}
				return nil
			}

			tags, err := store.Tags(ctx, args[0])
			if err != nil {
				return &storeError{fmt.Errorf("listing tags for %s: %w", args[0], err)}
			}
			for _, tag := range tags {
				fmt.Println(tag.String())
			}
			if len(tags) == 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
