package tagquery

import (
	"context"
	"fmt"
	"sort"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

// PathMatcher is the subset of [tagstore.Store] the builder needs to
// evaluate an expression. Satisfied by *tagstore.Store.
type PathMatcher interface {
	MatchTag(ctx context.Context, tag tagstore.Tag, caseSensitive bool) ([]string, error)
	AllTaggedPaths(ctx context.Context) ([]string, error)
}

// Evaluate compiles expr against store and returns the matching
// paths, sorted ascending by path text with no duplicates. A nil expr
// (as returned by [Parse] for an empty query) matches every tagged
// path.
//
// Evaluation proceeds bottom-up: each [TagExpr] leaf becomes a
// [PathMatcher.MatchTag] call (a relational lookup), and each
// "and"/"or"/"not" node combines child path sets via intersection,
// union, or set difference against the tagged-path universe.
func Evaluate(ctx context.Context, store PathMatcher, expr Expr, caseSensitive bool) ([]string, error) {
	if expr == nil {
		paths, err := store.AllTaggedPaths(ctx)
		if err != nil {
			return nil, fmt.Errorf("tagquery: %w", err)
		}
		return paths, nil
	}

	set, err := evalSet(ctx, store, expr, caseSensitive)
	if err != nil {
		return nil, fmt.Errorf("tagquery: %w", err)
	}

	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func evalSet(ctx context.Context, store PathMatcher, expr Expr, caseSensitive bool) (map[string]struct{}, error) {
	switch e := expr.(type) {
	case TagExpr:
		paths, err := store.MatchTag(ctx, e.Tag, caseSensitive)
		if err != nil {
			return nil, err
		}
		return toSet(paths), nil

	case NotExpr:
		universe, err := store.AllTaggedPaths(ctx)
		if err != nil {
			return nil, err
		}
		operand, err := evalSet(ctx, store, e.Operand, caseSensitive)
		if err != nil {
			return nil, err
		}
		result := make(map[string]struct{})
		for _, path := range universe {
			if _, excluded := operand[path]; !excluded {
				result[path] = struct{}{}
			}
		}
		return result, nil

	case AndExpr:
		left, err := evalSet(ctx, store, e.Left, caseSensitive)
		if err != nil {
			return nil, err
		}
		right, err := evalSet(ctx, store, e.Right, caseSensitive)
		if err != nil {
			return nil, err
		}
		result := make(map[string]struct{})
		for path := range left {
			if _, ok := right[path]; ok {
				result[path] = struct{}{}
			}
		}
		return result, nil

	case OrExpr:
		left, err := evalSet(ctx, store, e.Left, caseSensitive)
		if err != nil {
			return nil, err
		}
		right, err := evalSet(ctx, store, e.Right, caseSensitive)
		if err != nil {
			return nil, err
		}
		result := make(map[string]struct{}, len(left)+len(right))
		for path := range left {
			result[path] = struct{}{}
		}
		for path := range right {
			result[path] = struct{}{}
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unknown expression node %T", expr)
	}
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		set[path] = struct{}{}
	}
	return set
}
