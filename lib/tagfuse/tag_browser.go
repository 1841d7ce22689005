package tagfuse

import (
	"context"
	"syscall"

	"github.com/jamesblissett/tagfs/lib/tagstore"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// tagBrowserRootNode is the ".tags" directory: one subdirectory per
// distinct tag in the store, one per value rather than one per key
// (genre=crime and genre=romance list as separate directories).
type tagBrowserRootNode struct {
	gofuse.Inode
	env *env
}

var _ gofuse.InodeEmbedder = (*tagBrowserRootNode)(nil)
var _ gofuse.NodeLookuper = (*tagBrowserRootNode)(nil)
var _ gofuse.NodeReaddirer = (*tagBrowserRootNode)(nil)
var _ gofuse.NodeGetattrer = (*tagBrowserRootNode)(nil)

func (t *tagBrowserRootNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.Nlink = 2
	out.SetTimes(nil, &t.env.mountTime, &t.env.mountTime)
	return 0
}

func (t *tagBrowserRootNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	tags, err := t.env.store.AllTags(ctx)
	if err != nil {
		t.env.logger.Error("listing tags for browser", "error", err)
		return nil, syscall.EIO
	}

	for _, tag := range tags {
		if tag.String() == name {
			child := &tagDirNode{env: t.env, tag: tag}
			inode := t.NewPersistentInode(ctx, child, gofuse.StableAttr{
				Mode: syscall.S_IFDIR,
				Ino:  t.env.alloc.allocate("tag-dir\x00" + tag.String()),
			})
			out.Mode = syscall.S_IFDIR | 0o555
			return inode, 0
		}
	}

	return nil, syscall.ENOENT
}

func (t *tagBrowserRootNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	tags, err := t.env.store.AllTags(ctx)
	if err != nil {
		t.env.logger.Error("listing tags for browser", "error", err)
		return nil, syscall.EIO
	}

	entries := make([]fuse.DirEntry, 0, len(tags))
	for _, tag := range tags {
		entries = append(entries, fuse.DirEntry{Name: tag.String(), Mode: syscall.S_IFDIR})
	}
	return newSliceDirStream(entries), 0
}

// tagDirNode lists every path carrying one exact tag (name and, if
// any, value), shown under its disambiguated basename alongside a
// ".tags" projection.
type tagDirNode struct {
	gofuse.Inode
	env *env
	tag tagstore.Tag
}

var _ gofuse.InodeEmbedder = (*tagDirNode)(nil)
var _ gofuse.NodeLookuper = (*tagDirNode)(nil)
var _ gofuse.NodeReaddirer = (*tagDirNode)(nil)
var _ gofuse.NodeGetattrer = (*tagDirNode)(nil)

func (t *tagDirNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.Nlink = 2
	out.SetTimes(nil, &t.env.mountTime, &t.env.mountTime)
	return 0
}

func (t *tagDirNode) entries(ctx context.Context) ([]materializedEntry, syscall.Errno) {
	paths, err := t.env.store.PathsWithTag(ctx, t.tag)
	if err != nil {
		t.env.logger.Error("listing paths for tag directory", "tag", t.tag, "error", err)
		return nil, syscall.EIO
	}
	return disambiguateBasenames(paths), 0
}

func (t *tagDirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	entries, errno := t.entries(ctx)
	if errno != 0 {
		return nil, errno
	}

	for _, e := range entries {
		if e.displayName == name {
			child := &resultSymlinkNode{env: t.env, target: e.path}
			inode := t.NewPersistentInode(ctx, child, gofuse.StableAttr{
				Mode: syscall.S_IFLNK,
				Ino:  t.env.alloc.allocate("tag-dir-result\x00" + t.tag.String() + "\x00" + e.path),
			})
			return inode, 0
		}
		if e.displayName+tagsSuffix == name {
			child := &tagsProjectionNode{env: t.env, path: e.path}
			inode := t.NewPersistentInode(ctx, child, gofuse.StableAttr{
				Mode: syscall.S_IFREG,
				Ino:  t.env.alloc.allocate("tag-dir-tags\x00" + t.tag.String() + "\x00" + e.path),
			})
			return inode, 0
		}
	}

	return nil, syscall.ENOENT
}

func (t *tagDirNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, errno := t.entries(ctx)
	if errno != 0 {
		return nil, errno
	}

	out := make([]fuse.DirEntry, 0, len(entries)*2)
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.displayName, Mode: syscall.S_IFLNK})
		out = append(out, fuse.DirEntry{Name: e.displayName + tagsSuffix, Mode: syscall.S_IFREG})
	}
	return newSliceDirStream(out), 0
}
