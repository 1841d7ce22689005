// Package tagfuse implements the virtual filesystem engine: the
// translation of lookup, getattr, readdir, read, and readlink
// operations into tag-store queries, and the synthesis of the
// query-construction, result, tag-browser, and stored-query
// directory trees that make up the mount's surface.
//
// The mount is read-only. Mutation happens through
// [tagstore.Store]'s tagging API; this package only observes it via
// Store.OnMutate to invalidate materialized query results.
package tagfuse
