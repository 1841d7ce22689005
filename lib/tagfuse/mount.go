// Package tagfuse translates filesystem operations into tag-store
// queries, synthesizing the directory trees that represent
// in-progress queries, materialized result sets, per-file tag
// projections, and stored queries. The mount is read-only; all
// mutation goes through the tagging API in [tagstore.Store] and is
// reflected here only by invalidating cached query results.
package tagfuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/jamesblissett/tagfs/lib/clock"
	"github.com/jamesblissett/tagfs/lib/tagstore"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// DefaultSuggestionLimit bounds how many tag-name children a
// query-construction directory's Readdir offers when Options does not
// specify one.
const DefaultSuggestionLimit = 256

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Store is the tag store backing every lookup and readdir.
	Store *tagstore.Store

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// CaseSensitive fixes the matching mode for every query evaluated
	// through the mount. The mount has no per-query equivalent of the
	// CLI's --case-sensitive flag.
	CaseSensitive bool

	// SuggestionLimit caps tag-name children offered under
	// query-construction directories. Zero uses DefaultSuggestionLimit;
	// a negative value means unlimited.
	SuggestionLimit int

	// EntryTTL and NegativeTTL control kernel dentry caching. Zero
	// values use the package defaults below.
	EntryTTL    time.Duration
	NegativeTTL time.Duration

	// Clock provides the mount-start timestamp reported as the
	// modification time of synthetic entries. If nil, defaults to
	// clock.Real().
	Clock clock.Clock

	// Logger receives diagnostic messages. If nil, a no-op logger is
	// used.
	Logger *slog.Logger
}

const (
	defaultEntryTTL    = 1 * time.Second
	defaultNegativeTTL = 1 * time.Second
)

// Mount mounts the tagfs filesystem at the configured mountpoint. The
// caller must call Unmount on the returned server when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	if options.SuggestionLimit == 0 {
		options.SuggestionLimit = DefaultSuggestionLimit
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	entryTTL := options.EntryTTL
	if entryTTL == 0 {
		entryTTL = defaultEntryTTL
	}
	negativeTTL := options.NegativeTTL
	if negativeTTL == 0 {
		negativeTTL = defaultNegativeTTL
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	e := &env{
		store:           options.Store,
		clock:           options.Clock,
		logger:          options.Logger,
		alloc:           newAllocator(),
		cache:           newResultCache(),
		caseSensitive:   options.CaseSensitive,
		suggestionLimit: options.SuggestionLimit,
		mountTime:       options.Clock.Now(),
	}
	options.Store.OnMutate = e.notifyMutation

	root := &rootNode{env: e}

	attrTTL := entryTTL
	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTTL,
		AttrTimeout:     &attrTTL,
		NegativeTimeout: &negativeTTL,
		MountOptions: fuse.MountOptions{
			FsName:     "tagfs",
			Name:       "tagfs",
			AllowOther: options.AllowOther,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting tagfs at %s: %w", options.Mountpoint, err)
	}

	e.logger.Info("tagfs mounted", "mountpoint", options.Mountpoint)
	return server, nil
}

// rootNode is the filesystem root. It has three fixed children: the
// query-construction root "?", the stored-query index "@", and the
// tag browser ".tags".
type rootNode struct {
	gofuse.Inode
	env *env
}

var _ gofuse.InodeEmbedder = (*rootNode)(nil)
var _ gofuse.NodeOnAdder = (*rootNode)(nil)

func (r *rootNode) OnAdd(ctx context.Context) {
	queryRoot := &queryNode{env: r.env, expr: "", keyPrefix: "root"}
	child := r.NewPersistentInode(ctx, queryRoot, gofuse.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  r.env.alloc.allocate("query-root"),
	})
	r.AddChild(nameQueryRoot, child, true)

	storedIndex := &storedQueryIndexNode{env: r.env}
	child = r.NewPersistentInode(ctx, storedIndex, gofuse.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  r.env.alloc.allocate("stored-query-index"),
	})
	r.AddChild(nameStoredQueries, child, true)

	tagBrowser := &tagBrowserRootNode{env: r.env}
	child = r.NewPersistentInode(ctx, tagBrowser, gofuse.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  r.env.alloc.allocate("tag-browser"),
	})
	r.AddChild(nameTagBrowser, child, true)
}

// sliceDirStream implements fs.DirStream from a fixed slice of
// entries computed up front.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}

func newSliceDirStream(entries []fuse.DirEntry) gofuse.DirStream {
	return &sliceDirStream{entries: entries}
}
