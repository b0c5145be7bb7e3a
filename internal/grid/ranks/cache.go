package ranks

import (
	"github.com/rowpane/rowpane/internal/csync"
)

// Cache holds the rank tables and permutations computed against a single
// source identity. It carries no global state: each sorting adapter owns its
// own Cache and resets it when the source identity changes.
type Cache struct {
	ranks *csync.Map[string, []int] // column name → rank table
	perms *csync.Map[string, []int] // order key → permutation
}

// NewCache creates an empty [Cache].
func NewCache() *Cache {
	return &Cache{
		ranks: csync.NewMap[string, []int](),
		perms: csync.NewMap[string, []int](),
	}
}

// Ranks returns the cached rank table for a column.
func (c *Cache) Ranks(col string) ([]int, bool) {
	return c.ranks.Get(col)
}

// SetRanks stores the rank table for a column.
func (c *Cache) SetRanks(col string, ranks []int) {
	c.ranks.Set(col, ranks)
}

// Permutation returns the cached permutation for an order key as produced
// by [grid.OrderBy.Key].
func (c *Cache) Permutation(key string) ([]int, bool) {
	return c.perms.Get(key)
}

// SetPermutation stores the permutation for an order key.
func (c *Cache) SetPermutation(key string, perm []int) {
	c.perms.Set(key, perm)
}

// Reset drops every cached table. Call it when the source identity changes;
// row-count growth alone must not reset the cache, appended rows simply read
// as pending until the next recompute.
func (c *Cache) Reset() {
	c.ranks.Reset()
	c.perms.Reset()
}
