package tagstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

func openTestStore(t *testing.T) *tagstore.Store {
	t.Helper()

	store, err := tagstore.Open(tagstore.Config{Path: ":memory:", PoolSize: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestTagAndUntag(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Tag(ctx, "/music/noir.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true}); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	tags, err := store.Tags(ctx, "/music/noir.mp3")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "genre" || tags[0].Value != "noir" {
		t.Fatalf("Tags = %v, want [genre=noir]", tags)
	}

	if err := store.Untag(ctx, "/music/noir.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true}); err != nil {
		t.Fatalf("Untag: %v", err)
	}

	tags, err = store.Tags(ctx, "/music/noir.mp3")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("Tags after untag = %v, want empty", tags)
	}
}

func TestTagDuplicateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Tag(ctx, "/a", tagstore.Tag{Name: "reviewed"}); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := store.Tag(ctx, "/a", tagstore.Tag{Name: "reviewed"}); err != nil {
		t.Fatalf("Tag duplicate: %v, want nil (idempotent)", err)
	}

	tags, err := store.Tags(ctx, "/a")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("Tags after duplicate tag = %v, want exactly one tagging", tags)
	}
}

func TestTag_ValueMismatch(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Tag(ctx, "/a", tagstore.Tag{Name: "rating", Value: "5", HasValue: true}); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	err := store.Tag(ctx, "/b", tagstore.Tag{Name: "rating"})
	var mismatch *tagstore.ValueMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Tag value mismatch = %v, want *ValueMismatchError", err)
	}
}

func TestUntagMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Untag(ctx, "/missing", tagstore.Tag{Name: "x"}); err != nil {
		t.Fatalf("Untag missing: %v, want nil (idempotent no-op)", err)
	}
	if err := store.UntagAll(ctx, "/missing"); err != nil {
		t.Fatalf("UntagAll missing: %v, want nil (idempotent no-op)", err)
	}
}

func TestTagPruning(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Tag(ctx, "/a", tagstore.Tag{Name: "transient"}); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := store.Untag(ctx, "/a", tagstore.Tag{Name: "transient"}); err != nil {
		t.Fatalf("Untag: %v", err)
	}

	tags, err := store.AllTags(ctx)
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("AllTags = %v, want empty after pruning", tags)
	}
}

func TestAllTagsPreservesValues(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "crime", HasValue: true})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "genre", Value: "romance", HasValue: true})
	mustTag(t, store, "/c.mp3", tagstore.Tag{Name: "reviewed"})

	tags, err := store.AllTags(ctx)
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("AllTags = %v, want 3 distinct tag entities", tags)
	}
	want := []string{"genre=crime", "genre=romance", "reviewed"}
	for i, tag := range tags {
		if tag.String() != want[i] {
			t.Fatalf("AllTags[%d] = %q, want %q", i, tag.String(), want[i])
		}
	}

	keys, err := store.AllKeys(ctx)
	if err != nil {
		t.Fatalf("AllKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "genre" {
		t.Fatalf("AllKeys = %v, want [genre]", keys)
	}
}

func TestPathsWithTag(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/c.mp3", tagstore.Tag{Name: "genre", Value: "jazz", HasValue: true})

	paths, err := store.PathsWithTag(ctx, tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	if err != nil {
		t.Fatalf("PathsWithTag: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/a.mp3" || paths[1] != "/b.mp3" {
		t.Fatalf("PathsWithTag = %v, want [/a.mp3 /b.mp3]", paths)
	}
}

func TestRenamePrefix(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mustTag(t, store, "/old/a.mp3", tagstore.Tag{Name: "x"})
	mustTag(t, store, "/oldx/b.mp3", tagstore.Tag{Name: "x"})

	if err := store.RenamePrefix(ctx, "/old/", "/new/"); err != nil {
		t.Fatalf("RenamePrefix: %v", err)
	}

	mappings, err := store.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	var paths []string
	for _, m := range mappings {
		paths = append(paths, m.Path)
	}
	if len(paths) != 2 || paths[0] != "/new/a.mp3" || paths[1] != "/oldx/b.mp3" {
		t.Fatalf("paths after rename = %v, want [/new/a.mp3 /oldx/b.mp3]", paths)
	}
}

func TestSaveLoadDeleteQuery(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.SaveQuery(ctx, "noir", "genre=noir and not unrated"); err != nil {
		t.Fatalf("SaveQuery: %v", err)
	}

	expr, ok, err := store.LoadQuery(ctx, "noir")
	if err != nil {
		t.Fatalf("LoadQuery: %v", err)
	}
	if !ok || expr != "genre=noir and not unrated" {
		t.Fatalf("LoadQuery = (%q, %v), want (%q, true)", expr, ok, "genre=noir and not unrated")
	}

	if err := store.SaveQuery(ctx, "noir", "genre=noir"); err != nil {
		t.Fatalf("SaveQuery overwrite: %v", err)
	}
	expr, _, err = store.LoadQuery(ctx, "noir")
	if err != nil {
		t.Fatalf("LoadQuery: %v", err)
	}
	if expr != "genre=noir" {
		t.Fatalf("LoadQuery after overwrite = %q, want %q", expr, "genre=noir")
	}

	if err := store.DeleteQuery(ctx, "noir"); err != nil {
		t.Fatalf("DeleteQuery: %v", err)
	}
	_, ok, err = store.LoadQuery(ctx, "noir")
	if err != nil {
		t.Fatalf("LoadQuery: %v", err)
	}
	if ok {
		t.Fatal("LoadQuery after delete: expected ok=false")
	}
}

func TestApplyEditScript(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mustTag(t, store, "/a", tagstore.Tag{Name: "old"})

	err := store.ApplyEditScript(ctx, []tagstore.Mapping{
		{Path: "/b", Tag: tagstore.Tag{Name: "new", Value: "1", HasValue: true}},
	})
	if err != nil {
		t.Fatalf("ApplyEditScript: %v", err)
	}

	tagsA, err := store.Tags(ctx, "/a")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tagsA) != 0 {
		t.Fatalf("Tags(/a) = %v, want empty (replaced wholesale)", tagsA)
	}

	tagsB, err := store.Tags(ctx, "/b")
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tagsB) != 1 || tagsB[0].Name != "new" || tagsB[0].Value != "1" {
		t.Fatalf("Tags(/b) = %v, want [new=1]", tagsB)
	}
}

func TestApplyEditScript_DuplicateInBlock(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.ApplyEditScript(ctx, []tagstore.Mapping{
		{Path: "/a", Tag: tagstore.Tag{Name: "x"}},
		{Path: "/a", Tag: tagstore.Tag{Name: "x"}},
	})

	var dup *tagstore.DuplicateTagInBlockError
	if !errors.As(err, &dup) {
		t.Fatalf("ApplyEditScript duplicate = %v, want *DuplicateTagInBlockError", err)
	}
}

func TestOnMutate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var calls int
	store.OnMutate = func() { calls++ }

	mustTag(t, store, "/a", tagstore.Tag{Name: "x"})
	if calls != 1 {
		t.Errorf("calls after Tag = %d, want 1", calls)
	}

	if err := store.Untag(ctx, "/a", tagstore.Tag{Name: "x"}); err != nil {
		t.Fatalf("Untag: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls after Untag = %d, want 2", calls)
	}
}

func mustTag(t *testing.T, store *tagstore.Store, path string, tag tagstore.Tag) {
	t.Helper()
	if err := store.Tag(context.Background(), path, tag); err != nil {
		t.Fatalf("Tag(%q, %v): %v", path, tag, err)
	}
}
