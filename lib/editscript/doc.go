// Package editscript implements tagfs's edit-script format: a
// line-oriented, human-editable dump of the tag store used by "tagfs
// edit" for a round trip through $EDITOR.
//
// [Parse] and [Render] convert between the text form and a slice of
// [Block], each naming one path and its complete tag set. Since the
// format is a dump of the whole store, applying a parsed script
// (via [tagstore.Store.ApplyEditScript]) replaces the store's entire
// contents: a path omitted from the script ends up with no tags.
package editscript
