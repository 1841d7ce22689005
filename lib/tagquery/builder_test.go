package tagquery_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/jamesblissett/tagfs/lib/tagquery"
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

func mustTag(t *testing.T, store *tagstore.Store, path string, tag tagstore.Tag) {
	t.Helper()
	if err := store.Tag(context.Background(), path, tag); err != nil {
		t.Fatalf("Tag(%q, %v): %v", path, tag, err)
	}
}

func evaluateQuery(t *testing.T, store *tagstore.Store, query string, caseSensitive bool) []string {
	t.Helper()
	expr, err := tagquery.Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q): %v", query, err)
	}
	paths, err := tagquery.Evaluate(context.Background(), store, expr, caseSensitive)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", query, err)
	}
	return paths
}

func TestEvaluate_SingleTag(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "genre", Value: "jazz", HasValue: true})

	got := evaluateQuery(t, store, "genre=noir", false)
	if !reflect.DeepEqual(got, []string{"/a.mp3"}) {
		t.Fatalf("Evaluate = %v, want [/a.mp3]", got)
	}
}

func TestEvaluate_AndOr(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "favorite"})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/c.mp3", tagstore.Tag{Name: "genre", Value: "jazz", HasValue: true})
	mustTag(t, store, "/c.mp3", tagstore.Tag{Name: "favorite"})

	got := evaluateQuery(t, store, "genre=noir and favorite", false)
	if !reflect.DeepEqual(got, []string{"/a.mp3"}) {
		t.Fatalf("and = %v, want [/a.mp3]", got)
	}

	got = evaluateQuery(t, store, "genre=noir or favorite", false)
	want := []string{"/a.mp3", "/b.mp3", "/c.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("or = %v, want %v", got, want)
	}
}

func TestEvaluate_Not(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "genre", Value: "jazz", HasValue: true})

	got := evaluateQuery(t, store, "not genre=noir", false)
	if !reflect.DeepEqual(got, []string{"/b.mp3"}) {
		t.Fatalf("not = %v, want [/b.mp3]", got)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "x"})
	mustTag(t, store, "/b.mp3", tagstore.Tag{Name: "y"})

	got := evaluateQuery(t, store, "", false)
	want := []string{"/a.mp3", "/b.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("empty query = %v, want %v", got, want)
	}
}

func TestEvaluate_CaseSensitivity(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "genre", Value: "noir", HasValue: true})

	got := evaluateQuery(t, store, "genre=NOIR", false)
	if !reflect.DeepEqual(got, []string{"/a.mp3"}) {
		t.Fatalf("case-insensitive = %v, want [/a.mp3]", got)
	}

	got = evaluateQuery(t, store, "genre=NOIR", true)
	if len(got) != 0 {
		t.Fatalf("case-sensitive = %v, want empty", got)
	}
}

func TestEvaluate_NoDuplicates(t *testing.T) {
	store := openTestStore(t)
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "x"})
	mustTag(t, store, "/a.mp3", tagstore.Tag{Name: "y"})

	got := evaluateQuery(t, store, "x or y", false)
	if !reflect.DeepEqual(got, []string{"/a.mp3"}) {
		t.Fatalf("or with overlap = %v, want [/a.mp3] (no duplicates)", got)
	}
}
