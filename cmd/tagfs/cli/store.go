package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/config"
	"github.com/jamesblissett/tagfs/lib/tagstore"
)

// configFlag registers the --config flag shared by every subcommand
// that reads configuration.
func configFlag(fs *pflag.FlagSet, dest *string) {
	fs.StringVar(dest, "config", "", "path to config file (default: $TAGFS_CONFIG or none)")
}

// databaseFlag registers the --database flag shared by every
// subcommand that opens the tag store.
func databaseFlag(fs *pflag.FlagSet, dest *string) {
	fs.StringVar(dest, "database", "", "override the database path (default: $TAGFS_DATABASE or the config's database path)")
}

// storeFlags registers both --config and --database on fs.
func storeFlags(fs *pflag.FlagSet, configPath, databasePath *string) {
	configFlag(fs, configPath)
	databaseFlag(fs, databasePath)
}

// loadConfig loads the named config file, or falls back to
// [config.Load]'s TAGFS_CONFIG/default behavior when configPath is
// empty.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	return config.LoadFile(configPath)
}

// openStore loads configuration, applies the --database/TAGFS_DATABASE
// override in that order of precedence, and opens the resulting tag
// store, creating the database's parent directory if necessary.
//
// I/O and store failures are wrapped in a storeError so the exit code
// contract can distinguish them (2) from user errors (1).
func openStore(configPath, databasePath string) (*config.Config, *tagstore.Store, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, &storeError{err}
	}

	if databasePath != "" {
		cfg.Database = databasePath
	} else if envPath := os.Getenv("TAGFS_DATABASE"); envPath != "" {
		cfg.Database = envPath
	}

	if err := cfg.EnsureDatabaseDir(); err != nil {
		return nil, nil, &storeError{err}
	}

	store, err := tagstore.Open(tagstore.Config{
		Path:   cfg.Database,
		Logger: NewCommandLogger(),
	})
	if err != nil {
		return nil, nil, &storeError{fmt.Errorf("opening tag store: %w", err)}
	}

	return cfg, store, nil
}

// storeError wraps a store/config/I-O failure so main can map it to
// exit code 2, distinguishing it from exit code 1 user errors (bad
// arguments, parse failures) and the exit code 3 mount failures
// signaled separately by mountCommand.
type storeError struct{ err error }

func (e *storeError) Error() string { return e.err.Error() }
func (e *storeError) Unwrap() error { return e.err }
func (e *storeError) ExitCode() int { return 2 }

// userError signals exit code 1: bad arguments, a missing path, or a
// query/expression parse failure.
type userError struct{ err error }

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }
func (e *userError) ExitCode() int { return 1 }

func usageError(format string, args ...any) error {
	return &userError{fmt.Errorf(format, args...)}
}

// mountError signals exit code 3: the FUSE mount itself failed.
type mountError struct{ err error }

func (e *mountError) Error() string { return e.err.Error() }
func (e *mountError) Unwrap() error { return e.err }
func (e *mountError) ExitCode() int { return 3 }
