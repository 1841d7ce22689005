package tagfuse

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jamesblissett/tagfs/lib/clock"
	"github.com/jamesblissett/tagfs/lib/tagstore"
)

// env holds the state shared by every node in the mount: the tag
// store, the inode allocator, and a mutation version counter used to
// invalidate materialized query results. It is not itself an
// fs.InodeEmbedder; every node type holds a pointer to one.
type env struct {
	store  *tagstore.Store
	clock  clock.Clock
	logger *slog.Logger
	alloc  *allocator
	cache  *resultCache

	// caseSensitive is the default matching mode for query evaluation
	// through the mount. It is set once from Options.CaseSensitive
	// (tagfs mount --case-sensitive) and the mount offers no per-query
	// way to change it, so this is fixed for the mount's lifetime.
	caseSensitive bool

	// suggestionLimit caps how many tag-name children a
	// query-construction directory's Readdir offers, beyond the fixed
	// operator suggestions and the result sentinel. A negative value
	// means unlimited; Mount replaces zero with DefaultSuggestionLimit
	// before it reaches here.
	suggestionLimit int

	mountTime time.Time

	// version is bumped by notifyMutation on every observed store
	// mutation. Materialized result nodes compare their own cached
	// version against this to decide whether to recompute.
	version atomic.Uint64
}

func (e *env) notifyMutation() {
	e.version.Add(1)
}

func (e *env) currentVersion() uint64 {
	return e.version.Load()
}
