package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

func tagCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "tag",
		Summary: "Attach one or more tags to a path",
		Usage:   "tagfs tag <path> <tag>...",
		Description: `Attach one or more bare or key=value tags to an absolute path.

Tagging is idempotent: attaching the same tag twice leaves one
tagging. Attaching a bare tag that already exists with a value (or
vice versa) is rejected, since a tag name is either always bare or
always valued. Tags are applied in order; if one is invalid, none of
the later tags are applied either.`,
		Examples: []Example{
			{Description: "Attach a bare tag", Command: `tagfs tag /film/Heat\ \(1995\) favorite`},
			{Description: "Attach several tags at once", Command: `tagfs tag /film/Heat\ \(1995\) favorite genre=crime genre=drama`},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("tag", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return usageError("usage: tagfs tag <path> <tag>...")
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

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			for _, tag := range tags {
				if err := store.Tag(ctx, path, tag); err != nil {
					return &storeError{fmt.Errorf("tagging %s: %w", path, err)}
				}
			}
			return nil
		},
	}
}
