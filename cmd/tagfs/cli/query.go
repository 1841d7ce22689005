package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/tagquery"
)

func queryCommand() *Command {
	var configPath, databasePath string
	var caseSensitive bool

	return &Command{
		Name:    "query",
		Summary: "Evaluate a tag-query expression and print matching paths",
		Usage:   "tagfs query [--case-sensitive] <expression>",
		Description: `Parse and evaluate a tag-query DSL expression against the tag
store, printing one matching path per line in ascending order.

Matching is case-insensitive by default; --case-sensitive requires an
exact match on tag names and values. Exits with status 1 (and no
output) when the expression matches nothing, or when the expression
fails to parse.`,
		Examples: []Example{
			{Description: "Bare tag", Command: `tagfs query favorite`},
			{Description: "Boolean combination", Command: `tagfs query "genre=romance and genre=crime"`},
			{Description: "Exact-case match", Command: `tagfs query --case-sensitive genre=ROMaNce`},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			fs.BoolVar(&caseSensitive, "case-sensitive", false, "require exact-case matching")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("usage: tagfs query [--case-sensitive] <expression>")
			}

			expr, err := tagquery.Parse(args[0])
			if err != nil {
				return usageError("parsing query: %v", err)
			}

			cfg, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := tagquery.Evaluate(context.Background(), store, expr, caseSensitive || cfg.Query.CaseSensitive)
			if err != nil {
				return &storeError{fmt.Errorf("evaluating query: %w", err)}
			}

			for _, path := range paths {
				fmt.Println(path)
			}

			if len(paths) == 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
