package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommandExecuteDispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "tagfs",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "query",
				Run: func(args []string) error {
					called = "query"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"query"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "query" {
		t.Errorf("dispatched to %q, want %q", called, "query")
	}
}

func TestCommandExecuteFlagParsing(t *testing.T) {
	var caseSensitive bool
	var target string

	command := &Command{
		Name: "query",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.BoolVar(&caseSensitive, "case-sensitive", false, "exact-case matching")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--case-sensitive", "genre=crime"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !caseSensitive {
		t.Error("caseSensitive = false, want true")
	}
	if target != "genre=crime" {
		t.Errorf("target = %q, want %q", target, "genre=crime")
	}
}

func TestCommandExecuteUnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "tagfs",
		Subcommands: []*Command{
			{Name: "query"},
			{Name: "mount"},
		},
	}

	err := root.Execute([]string{"mont"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "mount"`) {
		t.Errorf("error = %q, want suggestion for 'mount'", err.Error())
	}
}

func TestCommandExecuteHelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "tagfs",
				Summary: "Tag-oriented file management",
				Subcommands: []*Command{
					{Name: "query", Summary: "Evaluate a query"},
				},
			}

			if err := root.Execute([]string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommandExecuteNoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "tagfs",
		Subcommands: []*Command{
			{Name: "query", Summary: "Evaluate a query"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommandPrintHelp(t *testing.T) {
	command := &Command{
		Name:        "tagfs",
		Description: "Tag-oriented file management backed by a synthetic filesystem.",
		Subcommands: []*Command{
			{Name: "tag", Summary: "Attach one or more tags to a path"},
			{Name: "query", Summary: "Evaluate a tag-query expression"},
		},
		Examples: []Example{
			{
				Description: "Tag a file",
				Command:     "tagfs tag /film/Heat favorite",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Tag-oriented file management",
		"Usage:",
		"tagfs <command> [flags]",
		"Commands:",
		"tag",
		"Attach one or more tags to a path",
		"Examples:",
		"tagfs tag /film/Heat favorite",
		"Run 'tagfs <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommandFullName(t *testing.T) {
	root := &Command{Name: "tagfs"}
	query := &Command{Name: "query", parent: root}

	if got := root.fullName(); got != "tagfs" {
		t.Errorf("root.fullName() = %q, want %q", got, "tagfs")
	}
	if got := query.fullName(); got != "tagfs query" {
		t.Errorf("query.fullName() = %q, want %q", got, "tagfs query")
	}
}
