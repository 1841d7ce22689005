package cli

// Root builds the complete tagfs command tree.
func Root() *Command {
	return &Command{
		Name:    "tagfs",
		Summary: "Tag-oriented file management backed by a synthetic filesystem",
		Description: `tagfs attaches tags to paths and exposes a query filesystem built
from those tags. Tag and untag files from the command line, browse
and build queries by cd'ing through a mounted directory tree, or save
frequently-used queries by name.`,
		Subcommands: []*Command{
			tagCommand(),
			untagCommand(),
			queryCommand(),
			mountCommand(),
			saveQueryCommand(),
			deleteQueryCommand(),
			listQueriesCommand(),
			editCommand(),
			tagsCommand(),
			renameCommand(),
			versionCommand(),
		},
		Examples: []Example{
			{Description: "Tag a file", Command: `tagfs tag /film/Heat\ \(1995\) favorite genre=crime`},
			{Description: "Build a query by browsing", Command: "cd ~/tags/?/genre=crime"},
			{Description: "Mount the query filesystem", Command: "tagfs mount ~/tags"},
		},
	}
}
