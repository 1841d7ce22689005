package tagstore

// schema creates the tables backing the tag store. Two tables hold
// the data: tags (the distinct tag names, recording whether each one
// takes a value) and taggings (one row per path/tag/value
// association). A tagging's value column participates in the unique
// constraint via a generated column, since SQLite unique constraints
// treat every NULL as distinct and would otherwise allow duplicate
// valueless taggings.
//
// The delete trigger keeps the tags table free of names with no
// remaining taggings, so AllTags and the FS handler's tag browser
// never see dead names left over from an untag.
const schema = `
CREATE TABLE IF NOT EXISTS tags (
	tag_id      INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	takes_value INTEGER NOT NULL,
	UNIQUE(name)
);

CREATE TABLE IF NOT EXISTS taggings (
	tagging_id INTEGER PRIMARY KEY,
	path       TEXT NOT NULL,
	tag_id     INTEGER NOT NULL REFERENCES tags(tag_id),
	value      TEXT,
	value_key  TEXT GENERATED ALWAYS AS (coalesce(value, '\x00')),
	UNIQUE(tag_id, value_key, path)
);
CREATE INDEX IF NOT EXISTS idx_taggings_path ON taggings(path);
CREATE INDEX IF NOT EXISTS idx_taggings_tag ON taggings(tag_id);

CREATE TABLE IF NOT EXISTS queries (
	name       TEXT PRIMARY KEY,
	expression TEXT NOT NULL
);

CREATE TRIGGER IF NOT EXISTS remove_unused_tags
AFTER DELETE ON taggings
BEGIN
	DELETE FROM tags
	WHERE tags.tag_id = OLD.tag_id
		AND NOT EXISTS (
			SELECT 1 FROM taggings WHERE taggings.tag_id = OLD.tag_id
		);
END;
`
