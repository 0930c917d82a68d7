package catalog

import "sync"

// Cache loads a catalog once and hands out the same read-only table on
// every call. It replaces hidden process-wide state with an explicit
// handle the orchestrator constructs and passes around.
type Cache struct {
	path string

	once  sync.Once
	table *Table
	err   error
}

// NewCache returns a load-once handle for the catalog at path. Nothing is
// read until the first Table call.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Table loads the catalog on first use and returns the memoized result
// afterwards, including a memoized load error.
func (c *Cache) Table() (*Table, error) {
	c.once.Do(func() {
		c.table, c.err = Load(c.path)
	})
	return c.table, c.err
}
