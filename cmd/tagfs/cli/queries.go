package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesblissett/tagfs/lib/tagquery"
)

func saveQueryCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "save-query",
		Summary: "Save a query expression under a name",
		Usage:   "tagfs save-query <name> <expression>",
		Examples: []Example{
			{Description: "Save a query", Command: `tagfs save-query noir "genre=crime"`},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("save-query", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return usageError("usage: tagfs save-query <name> <expression>")
			}

			if _, err := tagquery.Parse(args[1]); err != nil {
				return usageError("parsing query: %v", err)
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveQuery(context.Background(), args[0], args[1]); err != nil {
				return &storeError{fmt.Errorf("saving query %q: %w", args[0], err)}
			}
			return nil
		},
	}
}

func deleteQueryCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "delete-query",
		Summary: "Delete a saved query",
		Usage:   "tagfs delete-query <name>",
		Examples: []Example{
			{Description: "Delete a saved query", Command: "tagfs delete-query noir"},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("delete-query", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError("usage: tagfs delete-query <name>")
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteQuery(context.Background(), args[0]); err != nil {
				return &storeError{fmt.Errorf("deleting query %q: %w", args[0], err)}
			}
			return nil
		},
	}
}

func listQueriesCommand() *Command {
	var configPath, databasePath string

	return &Command{
		Name:    "list-queries",
		Summary: "List saved queries",
		Usage:   "tagfs list-queries",
		Description: `Lists every saved query, one per line, as "name\texpression".

Exits with status 1 when no queries are saved.`,
		Examples: []Example{
			{Description: "List saved queries", Command: "tagfs list-queries"},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list-queries", pflag.ContinueOnError)
			storeFlags(fs, &configPath, &databasePath)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return usageError("usage: tagfs list-queries")
			}

			_, store, err := openStore(configPath, databasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			queries, err := store.ListQueries(context.Background())
			if err != nil {
				return &storeError{fmt.Errorf("listing queries: %w", err)}
			}
			for _, q := range queries {
				fmt.Printf("%s\t%s\n", q.Name, q.Expression)
			}
			if len(queries) == 0 {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
