// Package tagstore provides the SQLite-backed tag store: the
// association between paths and the tags attached to them, plus
// saved query expressions. It is the single source of truth consulted
// by both the CLI and the FUSE mount.
package tagstore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/jamesblissett/tagfs/lib/sqlitepool"
)

// Store wraps a SQLite connection pool with tagfs's tagging
// operations. Store is safe for concurrent use; callers never see the
// underlying *sqlite.Conn.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger

	// OnMutate, if set, is invoked after every operation that changes
	// tag data (Tag, Untag, UntagAll, ApplyEditScript, RenamePrefix,
	// SaveQuery, DeleteQuery). The FUSE mount wires this to invalidate
	// its entry cache; the CLI leaves it nil.
	OnMutate func()
}

// Config holds the parameters for opening a [Store].
type Config struct {
	// Path is the filesystem path to the SQLite database file. Use
	// ":memory:" for an in-memory store, mainly useful in tests.
	Path string

	// PoolSize is the number of pooled connections. Defaults to 4.
	PoolSize int

	// Logger receives operational messages. Defaults to a disabled
	// logger when nil.
	Logger *slog.Logger
}

// Open locates an existing tag store database, or creates and
// initializes one, applying schema migrations as needed.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tagstore: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) notify() {
	if s.OnMutate != nil {
		s.OnMutate()
	}
}

// getTag looks up a tag by name, returning ok=false if it doesn't
// exist yet.
func getTag(conn *sqlite.Conn, name string) (id int64, takesValue bool, ok bool, err error) {
	err = sqlitex.Execute(conn,
		"SELECT tag_id, takes_value FROM tags WHERE name = ?",
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id = stmt.ColumnInt64(0)
				takesValue = stmt.ColumnInt(1) != 0
				ok = true
				return nil
			},
		})
	return id, takesValue, ok, err
}

func createTag(conn *sqlite.Conn, name string, takesValue bool) (int64, error) {
	err := sqlitex.Execute(conn,
		"INSERT INTO tags (name, takes_value) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{name, takesValue}})
	if err != nil {
		return 0, err
	}
	return conn.LastInsertRowID(), nil
}

// Tag attaches a tag to a path, creating the tag name on first use.
// If the tag name already exists, its value-taking requirement must
// match this call: giving a value for a bare tag, or omitting one for
// a valued tag, fails with a [ValueMismatchError]. Retagging the exact
// same path/tag/value is idempotent and leaves a single tagging.
func (s *Store) Tag(ctx context.Context, path string, tag Tag) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: tag: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("tagstore: tag: %w", err)
	}
	defer endTransaction(&err)

	tagID, takesValue, ok, err := getTag(conn, tag.Name)
	if err != nil {
		return fmt.Errorf("tagstore: tag: %w", err)
	}
	if ok {
		if takesValue && !tag.HasValue {
			return &ValueMismatchError{Tag: tag.Name, TakesValue: true}
		}
		if !takesValue && tag.HasValue {
			return &ValueMismatchError{Tag: tag.Name, TakesValue: false}
		}
	} else {
		tagID, err = createTag(conn, tag.Name, tag.HasValue)
		if err != nil {
			return fmt.Errorf("tagstore: tag: creating %q: %w", tag.Name, err)
		}
	}

	var value any
	if tag.HasValue {
		value = tag.Value
	}

	if err := sqlitex.Execute(conn,
		`INSERT INTO taggings (path, tag_id, value) VALUES (?, ?, ?)
		ON CONFLICT(tag_id, value_key, path) DO NOTHING`,
		&sqlitex.ExecOptions{Args: []any{path, tagID, value}}); err != nil {
		return fmt.Errorf("tagstore: tag: %w", err)
	}
	if conn.Changes() > 0 {
		s.notify()
	}
	return nil
}

// Untag removes a single tag (optionally with a specific value) from
// a path. A no-op, not an error, if no matching tagging exists.
func (s *Store) Untag(ctx context.Context, path string, tag Tag) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: untag: %w", err)
	}
	defer s.pool.Put(conn)

	var query string
	var args []any
	if tag.HasValue {
		query = `DELETE FROM taggings
			WHERE path = ? AND value = ?
			AND tag_id IN (SELECT tag_id FROM tags WHERE name = ?)`
		args = []any{path, tag.Value, tag.Name}
	} else {
		query = `DELETE FROM taggings
			WHERE path = ?
			AND tag_id IN (SELECT tag_id FROM tags WHERE name = ?)`
		args = []any{path, tag.Name}
	}

	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("tagstore: untag: %w", err)
	}
	if conn.Changes() > 0 {
		s.notify()
	}
	return nil
}

// UntagAll removes every tag from a path. A no-op, not an error, if
// the path had no tags.
func (s *Store) UntagAll(ctx context.Context, path string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: untag all: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM taggings WHERE path = ?",
		&sqlitex.ExecOptions{Args: []any{path}})
	if err != nil {
		return fmt.Errorf("tagstore: untag all: %w", err)
	}
	if conn.Changes() > 0 {
		s.notify()
	}
	return nil
}

// Tags returns every tag attached to path, ordered ascending by tag
// text ("name" or "name=value").
func (s *Store) Tags(ctx context.Context, path string) ([]Tag, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: tags: %w", err)
	}
	defer s.pool.Put(conn)

	var tags []Tag
	err = sqlitex.Execute(conn,
		`SELECT tags.name, taggings.value
		FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
		WHERE taggings.path = ?
		ORDER BY tags.name || coalesce('=' || taggings.value, '')`,
		&sqlitex.ExecOptions{
			Args: []any{path},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tags = append(tags, columnsToTag(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: tags: %w", err)
	}
	return tags, nil
}

func columnsToTag(stmt *sqlite.Stmt) Tag {
	name := stmt.ColumnText(0)
	if stmt.ColumnIsNull(1) {
		return Tag{Name: name}
	}
	return Tag{Name: name, Value: stmt.ColumnText(1), HasValue: true}
}

// PathsWithTag returns every path carrying tag (optionally restricted
// to a specific value), ordered ascending by path.
func (s *Store) PathsWithTag(ctx context.Context, tag Tag) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: paths with tag: %w", err)
	}
	defer s.pool.Put(conn)

	var query string
	var args []any
	if tag.HasValue {
		query = `SELECT taggings.path
			FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
			WHERE tags.name = ? AND taggings.value = ?
			ORDER BY taggings.path`
		args = []any{tag.Name, tag.Value}
	} else {
		query = `SELECT taggings.path
			FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
			WHERE tags.name = ?
			ORDER BY taggings.path`
		args = []any{tag.Name}
	}

	var paths []string
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			paths = append(paths, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tagstore: paths with tag: %w", err)
	}
	return paths, nil
}

// MatchTag returns every path satisfying tag under the given
// case-sensitivity rule, sorted by path text. When caseSensitive is
// false, both the tag name and (if present) its value are compared
// with SQLite's NOCASE collation; when true, comparison is exact.
// This is the leaf operation the tag-query builder composes into
// "and"/"or"/"not" expressions.
func (s *Store) MatchTag(ctx context.Context, tag Tag, caseSensitive bool) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: match tag: %w", err)
	}
	defer s.pool.Put(conn)

	collate := "COLLATE NOCASE"
	if caseSensitive {
		collate = ""
	}

	var query string
	var args []any
	if tag.HasValue {
		query = fmt.Sprintf(`SELECT DISTINCT taggings.path
			FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
			WHERE tags.name = ? %[1]s AND taggings.value = ? %[1]s
			ORDER BY taggings.path`, collate)
		args = []any{tag.Name, tag.Value}
	} else {
		query = fmt.Sprintf(`SELECT DISTINCT taggings.path
			FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
			WHERE tags.name = ? %s
			ORDER BY taggings.path`, collate)
		args = []any{tag.Name}
	}

	var paths []string
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			paths = append(paths, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("tagstore: match tag: %w", err)
	}
	return paths, nil
}

// AllTaggedPaths returns every distinct path that carries at least
// one tag, sorted by path text. This is the universe against which a
// top-level "not" expression, or an empty query, is evaluated.
func (s *Store) AllTaggedPaths(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: all tagged paths: %w", err)
	}
	defer s.pool.Put(conn)

	var paths []string
	err = sqlitex.Execute(conn, "SELECT DISTINCT path FROM taggings ORDER BY path",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				paths = append(paths, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: all tagged paths: %w", err)
	}
	return paths, nil
}

// Values returns every distinct value used with the given tag name,
// ordered ascending.
func (s *Store) Values(ctx context.Context, tagName string) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: values: %w", err)
	}
	defer s.pool.Put(conn)

	var values []string
	err = sqlitex.Execute(conn,
		`SELECT DISTINCT taggings.value
		FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
		WHERE tags.name = ? AND taggings.value IS NOT NULL
		ORDER BY taggings.value ASC`,
		&sqlitex.ExecOptions{
			Args: []any{tagName},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				values = append(values, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: values: %w", err)
	}
	return values, nil
}

// AllTags returns every distinct tag entity currently in use,
// preserving values: a value-taking tag with two distinct values in
// the store yields two results. Sorted by name, then value.
func (s *Store) AllTags(ctx context.Context) ([]Tag, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: all tags: %w", err)
	}
	defer s.pool.Put(conn)

	var tags []Tag
	err = sqlitex.Execute(conn,
		`SELECT DISTINCT tags.name, taggings.value, tags.takes_value
		FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
		ORDER BY tags.name, taggings.value`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tags = append(tags, Tag{
					Name:     stmt.ColumnText(0),
					Value:    stmt.ColumnText(1),
					HasValue: stmt.ColumnInt(2) != 0,
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: all tags: %w", err)
	}
	return tags, nil
}

// AllKeys returns every distinct value-taking tag name currently in
// use, sorted alphabetically. Bare tags have no key of their own and
// are excluded; see [Store.AllTags] for those.
func (s *Store) AllKeys(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: all keys: %w", err)
	}
	defer s.pool.Put(conn)

	var names []string
	err = sqlitex.Execute(conn,
		`SELECT DISTINCT tags.name
		FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
		WHERE tags.takes_value = 1
		ORDER BY tags.name`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				names = append(names, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: all keys: %w", err)
	}
	return names, nil
}

// Dump returns every path/tag mapping in the store, ordered by
// tagging_id so that a path's tags remain grouped and stable.
func (s *Store) Dump(ctx context.Context) ([]Mapping, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: dump: %w", err)
	}
	defer s.pool.Put(conn)

	var mappings []Mapping
	err = sqlitex.Execute(conn,
		`SELECT taggings.path, tags.name, taggings.value
		FROM taggings JOIN tags ON tags.tag_id = taggings.tag_id
		ORDER BY taggings.tagging_id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				path := stmt.ColumnText(0)
				tag := columnsToTagShifted(stmt)
				mappings = append(mappings, Mapping{Path: path, Tag: tag})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: dump: %w", err)
	}
	return mappings, nil
}

func columnsToTagShifted(stmt *sqlite.Stmt) Tag {
	name := stmt.ColumnText(1)
	if stmt.ColumnIsNull(2) {
		return Tag{Name: name}
	}
	return Tag{Name: name, Value: stmt.ColumnText(2), HasValue: true}
}

// RenamePrefix rewrites every path beginning with oldPrefix to begin
// with newPrefix instead, preserving the remainder of the path. Used
// when files move or are renamed outside tagfs's view, so taggings
// are not orphaned.
func (s *Store) RenamePrefix(ctx context.Context, oldPrefix, newPrefix string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: rename prefix: %w", err)
	}
	defer s.pool.Put(conn)

	escaped := escapeLikePattern(oldPrefix)

	err = sqlitex.Execute(conn,
		`UPDATE taggings
		SET path = ? || substr(path, length(?) + 1)
		WHERE path LIKE (? || '%') ESCAPE '\'
			AND substr(path, 1, length(?)) = ?`,
		&sqlitex.ExecOptions{Args: []any{newPrefix, oldPrefix, escaped, oldPrefix, oldPrefix}})
	if err != nil {
		return fmt.Errorf("tagstore: rename prefix: %w", err)
	}

	s.notify()
	return nil
}

func escapeLikePattern(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' || c == '_' || c == '\\' {
			b = append(b, '\\')
		}
		b = append(b, c)
	}
	return string(b)
}

// SaveQuery stores a named query expression for later retrieval under
// the "@" directory. Overwrites any existing query with the same
// name.
func (s *Store) SaveQuery(ctx context.Context, name, expression string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: save query: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO queries (name, expression) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET expression = excluded.expression`,
		&sqlitex.ExecOptions{Args: []any{name, expression}})
	if err != nil {
		return fmt.Errorf("tagstore: save query: %w", err)
	}

	s.notify()
	return nil
}

// LoadQuery returns the expression saved under name, or ok=false if
// no query exists with that name.
func (s *Store) LoadQuery(ctx context.Context, name string) (expression string, ok bool, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", false, fmt.Errorf("tagstore: load query: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "SELECT expression FROM queries WHERE name = ?",
		&sqlitex.ExecOptions{
			Args: []any{name},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				expression = stmt.ColumnText(0)
				ok = true
				return nil
			},
		})
	if err != nil {
		return "", false, fmt.Errorf("tagstore: load query: %w", err)
	}
	return expression, ok, nil
}

// DeleteQuery removes a saved query by name. No error if it didn't
// exist.
func (s *Store) DeleteQuery(ctx context.Context, name string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: delete query: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM queries WHERE name = ?",
		&sqlitex.ExecOptions{Args: []any{name}})
	if err != nil {
		return fmt.Errorf("tagstore: delete query: %w", err)
	}

	s.notify()
	return nil
}

// SavedQuery is a single named, stored query expression.
type SavedQuery struct {
	Name       string
	Expression string
}

// ListQueries returns every saved query, ordered by name.
func (s *Store) ListQueries(ctx context.Context) ([]SavedQuery, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("tagstore: list queries: %w", err)
	}
	defer s.pool.Put(conn)

	var queries []SavedQuery
	err = sqlitex.Execute(conn, "SELECT name, expression FROM queries ORDER BY name",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				queries = append(queries, SavedQuery{
					Name:       stmt.ColumnText(0),
					Expression: stmt.ColumnText(1),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("tagstore: list queries: %w", err)
	}
	return queries, nil
}

// ApplyEditScript replaces the entire tag/path mapping with the
// contents of parsed, atomically. Every existing tagging is dropped
// first, so any path omitted from parsed ends up with no tags.
// Queries are untouched.
func (s *Store) ApplyEditScript(ctx context.Context, parsed []Mapping) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("tagstore: apply edit script: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("tagstore: apply edit script: %w", err)
	}
	defer endTransaction(&err)

	if err := sqlitex.ExecuteScript(conn, `
		DELETE FROM taggings;
		DELETE FROM tags;
	`, nil); err != nil {
		return fmt.Errorf("tagstore: apply edit script: clearing: %w", err)
	}

	for _, mapping := range parsed {
		tagID, takesValue, ok, err := getTag(conn, mapping.Tag.Name)
		if err != nil {
			return fmt.Errorf("tagstore: apply edit script: %w", err)
		}
		if !ok {
			tagID, err = createTag(conn, mapping.Tag.Name, mapping.Tag.HasValue)
			if err != nil {
				return fmt.Errorf("tagstore: apply edit script: creating %q: %w", mapping.Tag.Name, err)
			}
		} else if takesValue != mapping.Tag.HasValue {
			return &ValueMismatchError{Tag: mapping.Tag.Name, TakesValue: takesValue}
		}

		var value any
		if mapping.Tag.HasValue {
			value = mapping.Tag.Value
		}
		err = sqlitex.Execute(conn,
			"INSERT INTO taggings (path, tag_id, value) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{mapping.Path, tagID, value}})
		if err != nil {
			if isUniqueViolation(err) {
				return &DuplicateTagInBlockError{Path: mapping.Path, Tag: mapping.Tag}
			}
			return fmt.Errorf("tagstore: apply edit script: %w", err)
		}
	}

	s.notify()
	return nil
}

func isUniqueViolation(err error) bool {
	return sqlite.ErrCode(err) == sqlite.ResultConstraintUnique
}

// DuplicateTagInBlockError is returned by [Store.ApplyEditScript] when
// an edit script block lists the same tag twice for the same path.
type DuplicateTagInBlockError struct {
	Path string
	Tag  Tag
}

func (e *DuplicateTagInBlockError) Error() string {
	return fmt.Sprintf("%q: tag %q listed more than once", e.Path, e.Tag)
}
