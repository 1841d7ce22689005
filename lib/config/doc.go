// Package config provides YAML configuration loading for tagfs.
//
// Configuration is optional. [Load] checks the TAGFS_CONFIG
// environment variable and falls back to [Default] when it is unset
// or names a file that does not exist, so tagfs runs with no config
// file at all. [LoadFile] loads a specific path, as used by the
// --config flag.
//
// Variable expansion is performed on the database path after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- Database path, Mount, and Query settings
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other tagfs packages.
package config
