package tagfuse

import (
	"context"
	"syscall"

	"github.com/jamesblissett/tagfs/lib/tagquery"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// queryNode is a query-construction directory: the root "?" itself,
// or any directory reached by extending its expression one segment at
// a time. A stored-query directory under "@/<name>" is the same type
// pre-seeded with the saved expression and rooted one level deeper.
//
// Children are computed on demand rather than materialized at
// OnAdd time, since the space of reachable expressions is unbounded.
type queryNode struct {
	gofuse.Inode
	env *env

	// expr is the DSL text accumulated so far: each path segment
	// looked up under a query-construction directory is appended,
	// space-separated. Empty means the query root with no segments
	// yet. Stored-query directories seed this directly from the saved
	// expression text, so the two constructions share one
	// representation.
	expr string

	// keyPrefix identifies this node's root for inode allocation and
	// result caching, unique per distinct root so that "@/noir" and
	// "?/genre=crime" never collide even if they end up with the same
	// expression text.
	keyPrefix string
}

var _ gofuse.InodeEmbedder = (*queryNode)(nil)
var _ gofuse.NodeLookuper = (*queryNode)(nil)
var _ gofuse.NodeReaddirer = (*queryNode)(nil)
var _ gofuse.NodeGetattrer = (*queryNode)(nil)

func (q *queryNode) exprText() string {
	return q.expr
}

func (q *queryNode) key() string {
	return q.keyPrefix + "\x00" + q.exprText()
}

func (q *queryNode) extend(segment string) string {
	if q.expr == "" {
		return segment
	}
	return q.expr + " " + segment
}

func (q *queryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.Nlink = 2
	out.SetTimes(nil, &q.env.mountTime, &q.env.mountTime)
	return 0
}

// Lookup resolves name as, in order: the result sentinel, an operator
// token, a further tag extension, or (for query-construction
// directories, as a convenience alongside the canonical sentinel
// path) the basename of one of the current expression's materialized
// results.
func (q *queryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if name == nameResultSentinel {
		return q.lookupSentinel(ctx, out)
	}

	if isOperatorToken(name) || isValidTagAlphabet(name) {
		child := &queryNode{
			env:       q.env,
			expr:      q.extend(name),
			keyPrefix: q.keyPrefix,
		}
		inode := q.NewPersistentInode(ctx, child, gofuse.StableAttr{
			Mode: syscall.S_IFDIR,
			Ino:  q.env.alloc.allocate(child.key()),
		})
		out.Mode = syscall.S_IFDIR | 0o555
		return inode, 0
	}

	// Direct basename lookup: evaluate the current expression and
	// check whether name matches one of its results' disambiguated
	// basenames, so that a path can be reached without an explicit
	// "=" segment when there is no ambiguity with an operator or tag
	// extension.
	result, errno := q.materialize(ctx)
	if errno != 0 {
		return nil, errno
	}
	for _, r := range result.entries {
		if r.displayName == name {
			return q.makeResultChild(ctx, r)
		}
		if r.displayName+tagsSuffix == name {
			return q.makeTagsChild(ctx, r)
		}
	}

	return nil, syscall.ENOENT
}

func (q *queryNode) lookupSentinel(ctx context.Context, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	child := &resultSentinelNode{env: q.env, query: q}
	inode := q.NewPersistentInode(ctx, child, gofuse.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  q.env.alloc.allocate(q.key() + "\x00="),
	})
	out.Mode = syscall.S_IFDIR | 0o555
	return inode, 0
}

func (q *queryNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry

	for _, op := range operatorSuggestions {
		entries = append(entries, fuse.DirEntry{Name: op, Mode: syscall.S_IFDIR})
	}

	tags, err := q.env.store.AllTags(ctx)
	if err != nil {
		q.env.logger.Error("listing tag names", "error", err)
		return nil, syscall.EIO
	}

	limit := q.env.suggestionLimit
	for i, tag := range tags {
		if limit >= 0 && i >= limit {
			break
		}
		entries = append(entries, fuse.DirEntry{Name: tag.String(), Mode: syscall.S_IFDIR})
	}

	entries = append(entries, fuse.DirEntry{Name: nameResultSentinel, Mode: syscall.S_IFDIR})

	return newSliceDirStream(entries), 0
}

// materializedResult is the disambiguated view of an evaluated
// expression's matching paths.
type materializedResult struct {
	entries []materializedEntry
}

type materializedEntry struct {
	path        string
	displayName string
}

func (q *queryNode) materialize(ctx context.Context) (materializedResult, syscall.Errno) {
	version := q.env.currentVersion()
	if cached, ok := q.env.cache.get(q.key(), version); ok {
		return cached, 0
	}

	expr, err := tagquery.Parse(q.exprText())
	if err != nil {
		// A syntactically invalid expression (reachable only by
		// constructing an expression that is valid segment-by-segment
		// but not overall, e.g. a dangling "and") has no results.
		return materializedResult{}, 0
	}

	paths, err := tagquery.Evaluate(ctx, q.env.store, expr, q.env.caseSensitive)
	if err != nil {
		q.env.logger.Error("evaluating query", "expr", q.exprText(), "error", err)
		return materializedResult{}, syscall.EIO
	}

	result := materializedResult{entries: disambiguateBasenames(paths)}
	q.env.cache.put(q.key(), version, result)
	return result, 0
}

func (q *queryNode) makeResultChild(ctx context.Context, r materializedEntry) (*gofuse.Inode, syscall.Errno) {
	child := &resultSymlinkNode{env: q.env, target: r.path}
	inode := q.NewPersistentInode(ctx, child, gofuse.StableAttr{
		Mode: syscall.S_IFLNK,
		Ino:  q.env.alloc.allocate("result\x00" + q.key() + "\x00" + r.path),
	})
	return inode, 0
}

func (q *queryNode) makeTagsChild(ctx context.Context, r materializedEntry) (*gofuse.Inode, syscall.Errno) {
	child := &tagsProjectionNode{env: q.env, path: r.path}
	inode := q.NewPersistentInode(ctx, child, gofuse.StableAttr{
		Mode: syscall.S_IFREG,
		Ino:  q.env.alloc.allocate("tags\x00" + q.key() + "\x00" + r.path),
	})
	return inode, 0
}
