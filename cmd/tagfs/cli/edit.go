package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/editscript"
)

func editCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "edit",
		Summary: "Edit the entire tag store as a text dump",
		Usage:   "tagfs edit",
		Description: `Dump every path/tag mapping in the store to a temporary file in
edit-script format, open it in $VISUAL (or $EDITOR if VISUAL is unset),
and on a clean exit, re-parse the file and replace the store's
contents with it. Any path omitted from the edited file loses every
tag; a path with an unchanged tag set is left alone.

Aborts without applying anything if EDITOR/VISUAL is unset or the
editor exits non-zero.`,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("edit", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return usageError("usage: tagfs edit")
			}

			editor := os.Getenv("VISUAL")
			if editor == "" {
				editor = os.Getenv("EDITOR")
			}
			if editor == "" {
				return usageError("no editor configured: set VISUAL or EDITOR")
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()

			mappings, err := store.Dump(ctx)
			if err != nil {
				return &storeError{fmt.Errorf("dumping tag store: %w", err)}
			}

			tmp, err := os.CreateTemp("", "tagfs-edit-*.tags")
			if err != nil {
				return &storeError{fmt.Errorf("creating temp file: %w", err)}
			}
			defer os.Remove(tmp.Name())

			if err := editscript.Render(tmp, editscript.FromMappings(mappings)); err != nil {
				tmp.Close()
				return &storeError{fmt.Errorf("rendering edit script: %w", err)}
			}
			if err := tmp.Close(); err != nil {
				return &storeError{fmt.Errorf("writing temp file: %w", err)}
			}

			cmd := exec.Command(editor, tmp.Name())
			cmd.Stdin = os.Stdin
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			if err := cmd.Run(); err != nil {
				return usageError("editor exited without saving: %v", err)
			}

			edited, err := os.ReadFile(tmp.Name())
			if err != nil {
				return &storeError{fmt.Errorf("reading edited file: %w", err)}
			}

			blocks, err := editscript.Parse(bytes.NewReader(edited))
			if err != nil {
				return usageError("parsing edited file: %v", err)
			}

			if err := store.ApplyEditScript(ctx, editscript.ToMappings(blocks)); err != nil {
				return &storeError{fmt.Errorf("applying edit script: %w", err)}
			}
			return nil
		},
	}
}
