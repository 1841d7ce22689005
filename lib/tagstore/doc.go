// Package tagstore provides the SQLite-backed tag store underlying
// tagfs: the association between paths and the tags attached to
// them, plus named saved queries.
//
// A tag is either bare ("reviewed") or carries a value
// ("rating=5"); whether a given tag name takes a value is fixed the
// first time it is used and enforced on every subsequent [Store.Tag]
// call. Taggings are deleted individually with [Store.Untag] or en
// masse with [Store.UntagAll]; a tag name with no remaining taggings
// is pruned automatically by a database trigger.
//
// [Store.ApplyEditScript] replaces the entire mapping atomically,
// used by the "tagfs edit" roundtrip. [Store.RenamePrefix] rewrites
// path prefixes in bulk, used when files move outside tagfs's view.
//
// [Store.OnMutate] lets callers observe every mutating operation; the
// FUSE mount uses it to invalidate its entry cache.
package tagstore
