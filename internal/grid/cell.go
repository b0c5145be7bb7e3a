package grid

// Cell is one table cell: either a resolved [Value] or still pending. The
// zero Cell is pending. A resolved nil stays distinct from a pending cell.
type Cell struct {
	value    Value
	resolved bool
}

// CellOf returns a resolved cell holding v.
func CellOf(v Value) Cell {
	return Cell{value: v, resolved: true}
}

// Resolved reports whether the cell holds a value.
func (c Cell) Resolved() bool {
	return c.resolved
}

// Value returns the cell's value; ok is false while the cell is pending.
func (c Cell) Value() (v Value, ok bool) {
	return c.value, c.resolved
}
