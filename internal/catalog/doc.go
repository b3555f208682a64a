// Package catalog supplies the per-kind card pools the feed engine selects
// from. It is the engine's external content collaborator: a read-mostly
// SQLite store whose contents are produced upstream. Pool rows that fail the
// non-trivial description check are filtered out before the engine ever
// sees them.
package catalog
