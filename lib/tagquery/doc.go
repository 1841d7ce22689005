// Package tagquery implements the tag-query DSL: a small boolean
// expression language over tags, used both by the "tagfs query" CLI
// command and by the "?" query-construction directory of the FUSE
// mount.
//
// [Parse] lexes and parses DSL text into an explicit [Expr] tree
// (rather than compiling directly to SQL token-by-token), which
// makes the grammar's precedence unambiguous and lets parse errors
// report a precise byte offset. [Evaluate] then compiles the tree
// against a [tagstore.Store]: each tag leaf becomes a relational
// lookup, and "and"/"or"/"not" nodes combine the resulting path sets
// by intersection, union, or difference against the universe of
// tagged paths.
//
// Grammar:
//
//	expr := term (("and" | "or") term)*
//	term := "not" term | "(" expr ")" | tag
//	tag  := name | name "=" value
//
// Precedence is not > and > or; parentheses override. Matching
// defaults to case-insensitive; callers pass caseSensitive=true to
// switch to exact comparison.
package tagquery
