package tagfuse

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// disambiguateBasenames sorts paths ascending and assigns each a
// display name: the plain basename, or "basename (2)", "basename
// (3)", ... for the second and later result sharing a basename, in
// path-sort order.
func disambiguateBasenames(paths []string) []materializedEntry {
	sorted := append([]string{}, paths...)
	sort.Strings(sorted)

	counts := make(map[string]int)
	entries := make([]materializedEntry, 0, len(sorted))
	for _, p := range sorted {
		base := path.Base(p)
		counts[base]++
		display := base
		if n := counts[base]; n > 1 {
			display = fmt.Sprintf("%s (%d)", base, n)
		}
		entries = append(entries, materializedEntry{path: p, displayName: display})
	}
	return entries
}

// resultSentinelNode is the "=" child of a query-construction
// directory. Reading it evaluates the directory's accumulated
// expression and exposes each matching path as a symlink, with a
// companion "<name>.tags" projection file alongside.
type resultSentinelNode struct {
	gofuse.Inode
	env   *env
	query *queryNode
}

var _ gofuse.InodeEmbedder = (*resultSentinelNode)(nil)
var _ gofuse.NodeLookuper = (*resultSentinelNode)(nil)
var _ gofuse.NodeReaddirer = (*resultSentinelNode)(nil)
var _ gofuse.NodeGetattrer = (*resultSentinelNode)(nil)

func (s *resultSentinelNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	out.Nlink = 2
	out.SetTimes(nil, &s.env.mountTime, &s.env.mountTime)
	return 0
}

func (s *resultSentinelNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	result, errno := s.query.materialize(ctx)
	if errno != 0 {
		return nil, errno
	}

	for _, r := range result.entries {
		if r.displayName == name {
			return s.query.makeResultChild(ctx, r)
		}
		if r.displayName+tagsSuffix == name {
			return s.query.makeTagsChild(ctx, r)
		}
	}

	return nil, syscall.ENOENT
}

func (s *resultSentinelNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	result, errno := s.query.materialize(ctx)
	if errno != 0 {
		return nil, errno
	}

	entries := make([]fuse.DirEntry, 0, len(result.entries)*2)
	for _, r := range result.entries {
		entries = append(entries, fuse.DirEntry{Name: r.displayName, Mode: syscall.S_IFLNK})
		entries = append(entries, fuse.DirEntry{Name: r.displayName + tagsSuffix, Mode: syscall.S_IFREG})
	}

	return newSliceDirStream(entries), 0
}

// resultSymlinkNode represents one matched path as a symbolic link
// whose target is the original absolute path in the host filesystem.
type resultSymlinkNode struct {
	gofuse.Inode
	env    *env
	target string
}

var _ gofuse.InodeEmbedder = (*resultSymlinkNode)(nil)
var _ gofuse.NodeReadlinker = (*resultSymlinkNode)(nil)
var _ gofuse.NodeGetattrer = (*resultSymlinkNode)(nil)

func (r *resultSymlinkNode) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	return []byte(r.target), 0
}

func (r *resultSymlinkNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFLNK | 0o777
	out.Nlink = 1
	out.Size = uint64(len(r.target))
	out.SetTimes(nil, &r.env.mountTime, &r.env.mountTime)
	return 0
}

// tagsProjectionNode is the "<basename>.tags" companion to a result
// symlink. Reading it yields a sorted newline-separated listing of
// the underlying path's tags.
type tagsProjectionNode struct {
	gofuse.Inode
	env  *env
	path string
}

var _ gofuse.InodeEmbedder = (*tagsProjectionNode)(nil)
var _ gofuse.NodeGetattrer = (*tagsProjectionNode)(nil)
var _ gofuse.NodeOpener = (*tagsProjectionNode)(nil)
var _ gofuse.NodeReader = (*tagsProjectionNode)(nil)

func (t *tagsProjectionNode) projection(ctx context.Context) ([]byte, syscall.Errno) {
	tags, err := t.env.store.Tags(ctx, t.path)
	if err != nil {
		t.env.logger.Error("listing tags for projection", "path", t.path, "error", err)
		return nil, syscall.EIO
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.String())
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), 0
}

func (t *tagsProjectionNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	data, errno := t.projection(ctx)
	if errno != 0 {
		return errno
	}
	out.Mode = syscall.S_IFREG | 0o444
	out.Nlink = 1
	out.Size = uint64(len(data))
	out.SetTimes(nil, &t.env.mountTime, &t.env.mountTime)
	return 0
}

func (t *tagsProjectionNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (t *tagsProjectionNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	data, errno := t.projection(ctx)
	if errno != 0 {
		return nil, errno
	}
	if off >= int64(len(data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return fuse.ReadResultData(data[off:end]), 0
}
