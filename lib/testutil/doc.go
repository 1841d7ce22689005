// Package testutil provides shared test helpers for tagfs packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. These are
// useful for tests that exercise cache invalidation across goroutines
// (a tagging mutation on one goroutine, a readdir on another).
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// path or tag fixtures that must be distinguishable within one store.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
