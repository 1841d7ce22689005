// Package editscript implements tagfs's line-oriented, human-editable
// tag dump format, consumed by "tagfs edit" as a round trip between
// the tag store and a text editor.
package editscript

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

// Block is one path and the complete tag set declared for it.
type Block struct {
	Path string
	Tags []tagstore.Tag
}

// Parse reads the edit-script format from r:
//
//	# comment line, ignored
//	<absolute path>
//	    tag1
//	    key=value
//	<next path>
//	    ...
//
// A path line begins at column 0 and must be non-empty and absolute.
// Tag lines are prefixed by whitespace and contain exactly one tag.
// Blank lines terminate the current block; comment lines (leading
// '#') are ignored anywhere, including inside a block.
func Parse(r io.Reader) ([]Block, error) {
	scanner := bufio.NewScanner(r)

	var blocks []Block
	var current *Block
	seen := make(map[string]bool) // within current block only

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		rawLine := scanner.Text()

		trimmedLeft := strings.TrimLeft(rawLine, " \t")
		if strings.HasPrefix(trimmedLeft, "#") {
			continue
		}

		if strings.TrimSpace(rawLine) == "" {
			current = nil
			seen = make(map[string]bool)
			continue
		}

		indented := rawLine != trimmedLeft

		if !indented {
			path := strings.TrimSpace(rawLine)
			if !strings.HasPrefix(path, "/") {
				return nil, &MalformedPathError{Line: lineNum, Text: rawLine}
			}
			blocks = append(blocks, Block{Path: path})
			current = &blocks[len(blocks)-1]
			seen = make(map[string]bool)
			continue
		}

		// Indented line: a tag belonging to current.
		if current == nil {
			return nil, &OrphanTagError{Line: lineNum, Text: strings.TrimSpace(rawLine)}
		}

		tagText := strings.TrimSpace(rawLine)
		tag, err := tagstore.ParseTag(tagText)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if seen[tag.String()] {
			return nil, &DuplicateTagInBlockError{Line: lineNum, Path: current.Path, Tag: tag.String()}
		}
		seen[tag.String()] = true

		current.Tags = append(current.Tags, tag)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// Render writes blocks back into edit-script text, one block per
// path, each tag sorted for stable, diffable output. Blocks appear in
// the order given; Dump callers should sort by path first if a
// deterministic ordering across runs is desired.
func Render(w io.Writer, blocks []Block) error {
	for i, block := range blocks {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, block.Path); err != nil {
			return err
		}

		tags := make([]tagstore.Tag, len(block.Tags))
		copy(tags, block.Tags)
		sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })

		for _, tag := range tags {
			if _, err := fmt.Fprintf(w, "    %s\n", tag); err != nil {
				return err
			}
		}
	}
	return nil
}

// FromMappings groups flat path/tag mappings (as returned by
// [tagstore.Store.Dump]) into [Block]s, preserving the path order in
// which each path was first seen.
func FromMappings(mappings []tagstore.Mapping) []Block {
	index := make(map[string]int)
	var blocks []Block

	for _, m := range mappings {
		i, ok := index[m.Path]
		if !ok {
			i = len(blocks)
			index[m.Path] = i
			blocks = append(blocks, Block{Path: m.Path})
		}
		blocks[i].Tags = append(blocks[i].Tags, m.Tag)
	}

	return blocks
}

// ToMappings flattens blocks back into path/tag mappings, the inverse
// of [FromMappings], for passing to [tagstore.Store.ApplyEditScript].
func ToMappings(blocks []Block) []tagstore.Mapping {
	var mappings []tagstore.Mapping
	for _, block := range blocks {
		for _, tag := range block.Tags {
			mappings = append(mappings, tagstore.Mapping{Path: block.Path, Tag: tag})
		}
	}
	return mappings
}
