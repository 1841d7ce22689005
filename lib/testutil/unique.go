package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for paths, tag values, or query names
// that must be distinguishable across test cases sharing a store.
//
//	path := testutil.UniqueID("/music/track")  // "/music/track-1", ...
//	value := testutil.UniqueID("rev")          // "rev-2", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
