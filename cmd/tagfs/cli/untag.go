package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

func untagCommand() *Command {
	var configPath, databasePath string
	var all bool

	return &Command{
		Name:    "untag",
		Summary: "Remove one or more tags from a path",
		Usage:   "tagfs untag [--all] <path> <tag>...",
		Description: `Remove one or more tags from a path. With --all, removes every tag
from the path instead; the tag arguments are then omitted.`,
		Examples: []Example{
			{Description: "Remove one tag", Command: `tagfs untag /film/Heat\ \(1995\) genre=crime`},
			{Description: "Remove several tags at once", Command: `tagfs untag /film/Heat\ \(1995\) genre=crime favorite`},
			{Description: "Remove every tag from a path", Command: `tagfs untag --all /film/Heat\ \(1995\)`},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("untag", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			fs.BoolVar(&all, "all", false, "remove every tag from the path")
			return fs
		},
		Run: func(args []string) error {
			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()

			if all {
				if len(args) != 1 {
					return usageError("usage: tagfs untag --all <path>")
				}
				if err := store.UntagAll(ctx, args[0]); err != nil {
					return &storeError{fmt.Errorf("untagging %s: %w", args[0], err)}
				}
				return nil
			}

			if len(args) < 2 {
				return usageError("usage: tagfs untag <path> <tag>...")
			}
			path, tagTexts := args[0], args[1:]

			tags := make([]tagstore.Tag, len(tagTexts))
			for i, tagText := range tagTexts {
				tag, err := tagstore.ParseTag(tagText)
				if err != nil {
					return usageError("invalid tag %q: %v", tagText, err)
				}
				tags[i] = tag
			}

			for _, tag := range tags {
				if err := store.Untag(ctx, path, tag); err != nil {
					return &storeError{fmt.Errorf("untagging %s: %w", path, err)}
				}
			}
			return nil
		},
	}
}
