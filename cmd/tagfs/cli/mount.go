package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/tagfuse"
)

func mountCommand() *Command {
	var configPath, databasePath string
	var allowOther, caseSensitive bool

	return &Command{
		Name:    "mount",
		Summary: "Mount the tag store as a read-only filesystem",
		Usage:   "tagfs mount <dir>",
		Description: `Mount the synthetic query filesystem at dir and block until
interrupted (SIGINT/SIGTERM), at which point it unmounts cleanly.`,
		Examples: []Example{
			{Description: "Mount at ~/tags", Command: "tagfs mount ~/tags"},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("mount", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			fs.BoolVar(&allowOther, "allow-other", false, "allow other users to access the mount")
			fs.BoolVar(&caseSensitive, "case-sensitive", false, "require exact-case tag matching")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("usage: tagfs mount <dir>")
			}
			mountpoint := args[0]

			cfg, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			entryTTL, err := time.ParseDuration(cfg.Mount.EntryTTL)
			if err != nil {
				return usageError("parsing mount.entry_ttl %q: %v", cfg.Mount.EntryTTL, err)
			}
			negativeTTL, err := time.ParseDuration(cfg.Mount.NegativeTTL)
			if err != nil {
				return usageError("parsing mount.negative_ttl %q: %v", cfg.Mount.NegativeTTL, err)
			}

			server, err := tagfuse.Mount(tagfuse.Options{
				Mountpoint:      mountpoint,
				Store:           store,
				AllowOther:      allowOther || cfg.Mount.AllowOther,
				CaseSensitive:   caseSensitive || cfg.Query.CaseSensitive,
				SuggestionLimit: cfg.Query.SuggestionLimit,
				EntryTTL:        entryTTL,
				NegativeTTL:     negativeTTL,
				Logger:          NewCommandLogger(),
			})
			if err != nil {
				return &mountError{fmt.Errorf("mounting at %s: %w", mountpoint, err)}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			done := make(chan struct{})
			go func() {
				server.Wait()
				close(done)
			}()

			select {
			case <-ctx.Done():
				if err := server.Unmount(); err != nil {
					return &mountError{fmt.Errorf("unmounting %s: %w", mountpoint, err)}
				}
				<-done
			case <-done:
			}
			return nil
		},
	}
}
