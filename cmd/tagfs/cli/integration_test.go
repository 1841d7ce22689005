package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCommand executes command with args and --database pointed at
// dbPath, capturing stdout.
func runCommand(t *testing.T, command *Command, dbPath string, args ...string) (string, error) {
	t.Helper()

	stdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	full := append([]string{"--database", dbPath}, args...)
	runErr := command.Execute(full)

	os.Stdout = stdout
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), runErr
}

func TestCLITagQueryRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	if _, err := runCommand(t, tagCommand(), dbPath, "/film/Heat", "favorite", "genre=crime"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if _, err := runCommand(t, tagCommand(), dbPath, "/film/Casino", "genre=crime"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	out, err := runCommand(t, queryCommand(), dbPath, "genre=crime")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("query output = %q, want 2 lines", out)
	}

	out, err = runCommand(t, queryCommand(), dbPath, "favorite")
	if err != nil {
		t.Fatalf("query favorite: %v", err)
	}
	if strings.TrimSpace(out) != "/film/Heat" {
		t.Errorf("query favorite = %q, want /film/Heat", out)
	}
}

func TestCLIQueryEmptyResultExitsOne(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	_, err := runCommand(t, queryCommand(), dbPath, "nonexistent")
	if err == nil {
		t.Fatal("query with no matches: want error")
	}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("error = %v, want ExitCode() interface", err)
	}
	if coder.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", coder.ExitCode())
	}
}

func TestCLIQueryParseErrorIsUserError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	_, err := runCommand(t, queryCommand(), dbPath, "and")
	if err == nil {
		t.Fatal("query with malformed expression: want error")
	}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("error = %v, want ExitCode() interface", err)
	}
	if coder.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", coder.ExitCode())
	}
}

func TestCLIUntagVariadic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	if _, err := runCommand(t, tagCommand(), dbPath, "/film/Heat", "favorite", "genre=crime", "genre=drama"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if _, err := runCommand(t, untagCommand(), dbPath, "/film/Heat", "genre=crime", "genre=drama"); err != nil {
		t.Fatalf("untag: %v", err)
	}

	out, err := runCommand(t, tagsCommand(), dbPath, "/film/Heat")
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if strings.TrimSpace(out) != "favorite" {
		t.Errorf("remaining tags = %q, want favorite", out)
	}
}

func TestCLIUntagAll(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	if _, err := runCommand(t, tagCommand(), dbPath, "/film/Heat", "favorite", "genre=crime"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if _, err := runCommand(t, untagCommand(), dbPath, "--all", "/film/Heat"); err != nil {
		t.Fatalf("untag --all: %v", err)
	}

	_, err := runCommand(t, tagsCommand(), dbPath, "/film/Heat")
	if err == nil {
		t.Fatal("tags after untag --all: want ExitError for empty result")
	}
}

func TestCLISaveDeleteListQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	if _, err := runCommand(t, saveQueryCommand(), dbPath, "noir", "genre=crime"); err != nil {
		t.Fatalf("save-query: %v", err)
	}

	out, err := runCommand(t, listQueriesCommand(), dbPath)
	if err != nil {
		t.Fatalf("list-queries: %v", err)
	}
	if !strings.Contains(out, "noir\tgenre=crime") {
		t.Errorf("list-queries output = %q, want to contain noir entry", out)
	}

	if _, err := runCommand(t, deleteQueryCommand(), dbPath, "noir"); err != nil {
		t.Fatalf("delete-query: %v", err)
	}

	_, err = runCommand(t, listQueriesCommand(), dbPath)
	if err == nil {
		t.Fatal("list-queries after delete: want ExitError for empty result")
	}
}

func TestCLIRenamePrefix(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tags.db")

	if _, err := runCommand(t, tagCommand(), dbPath, "/old/Heat", "favorite"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if _, err := runCommand(t, renameCommand(), dbPath, "/old", "/new"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	out, err := runCommand(t, queryCommand(), dbPath, "favorite")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "/new/Heat" {
		t.Errorf("query after rename = %q, want /new/Heat", out)
	}
}

func TestCLIDatabaseFlagTakesPrecedenceOverEnv(t *testing.T) {
	flagPath := filepath.Join(t.TempDir(), "flag.db")
	envPath := filepath.Join(t.TempDir(), "env.db")

	t.Setenv("TAGFS_DATABASE", envPath)

	if _, err := runCommand(t, tagCommand(), flagPath, "/film/Heat", "favorite"); err != nil {
		t.Fatalf("tag: %v", err)
	}

	if _, err := os.Stat(flagPath); err != nil {
		t.Errorf("expected database at flag path %s: %v", flagPath, err)
	}
	if _, err := os.Stat(envPath); err == nil {
		t.Errorf("did not expect database at env path %s", envPath)
	}
}
