package tagfuse

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// storedQueryIndexNode is the "@" directory: one subdirectory per
// saved query, each behaving like a query-construction node
// pre-seeded with the stored expression.
type storedQueryIndexNode struct {
	gofuse.Inode
	env *env
}

var _ gofuse.InodeEmbedder = (*storedQueryIndexNode)(nil)
var _ gofuse.NodeLookuper = (*storedQueryIndexNode)(nil)
var _ gofuse.NodeReaddirer = (*storedQueryIndexNode)(nil)
var _ gofuse.NodeGetattrer = (*storedQueryIndexNode)(nil)

func (s *storedQueryIndexNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.Nlink = 2
	out.SetTimes(nil, &s.env.mountTime, &s.env.mountTime)
	return 0
}

func (s *storedQueryIndexNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	expr, ok, err := s.env.store.LoadQuery(ctx, name)
	if err != nil {
		s.env.logger.Error("loading stored query", "name", name, "error", err)
		return nil, syscall.EIO
	}
	if !ok {
		return nil, syscall.ENOENT
	}

	child := &queryNode{
		env:       s.env,
		expr:      expr,
		keyPrefix: "stored\x00" + name,
	}
	inode := s.NewPersistentInode(ctx, child, gofuse.StableAttr{
		Mode: syscall.S_IFDIR,
		Ino:  s.env.alloc.allocate(child.key()),
	})
	out.Mode = syscall.S_IFDIR | 0o555
	return inode, 0
}

func (s *storedQueryIndexNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	queries, err := s.env.store.ListQueries(ctx)
	if err != nil {
		s.env.logger.Error("listing stored queries", "error", err)
		return nil, syscall.EIO
	}

	entries := make([]fuse.DirEntry, 0, len(queries))
	for _, q := range queries {
		entries = append(entries, fuse.DirEntry{Name: q.Name, Mode: syscall.S_IFDIR})
	}
	return newSliceDirStream(entries), 0
}
