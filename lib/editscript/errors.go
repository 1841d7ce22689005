package editscript

import "fmt"

// MalformedPathError is returned by [Parse] when a column-0 line is
// not a valid absolute path.
type MalformedPathError struct {
	Line int
	Text string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("line %d: malformed path %q", e.Line, e.Text)
}

// OrphanTagError is returned by [Parse] when an indented tag line
// appears before any path line.
type OrphanTagError struct {
	Line int
	Text string
}

func (e *OrphanTagError) Error() string {
	return fmt.Sprintf("line %d: tag %q has no preceding path", e.Line, e.Text)
}

// DuplicateTagInBlockError is returned by [Parse] when the same tag
// (same name and value) appears twice within one path's block.
type DuplicateTagInBlockError struct {
	Line int
	Path string
	Tag  string
}

func (e *DuplicateTagInBlockError) Error() string {
	return fmt.Sprintf("line %d: %q: tag %q listed more than once", e.Line, e.Path, e.Tag)
}
