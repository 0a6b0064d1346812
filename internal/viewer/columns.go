package viewer

import "reconviewer/internal/model"

// ColumnCatalog is the column-filter control: the options offered for the
// current date and the selected value. Options never include model.AllColumns;
// that choice is always available.
type ColumnCatalog struct {
	Options  []string `json:"options"`
	Selected string   `json:"selected"`
	// Renders counts option-list rebuilds. A rebuild is what makes the
	// control flicker, so tests assert on it.
	Renders int `json:"-"`
}

// Reconcile reports whether the filter control must be rebuilt for
// serverColumns. It only compares cardinality: a column set that changes
// while keeping its size is not detected.
func Reconcile(currentOptionCount int, serverColumns []string) bool {
	return currentOptionCount != len(serverColumns)
}

// Sync applies serverColumns to the catalog. When the cardinality is
// unchanged the catalog is returned as-is. Otherwise the option list is
// rebuilt and the selection kept if still offered, else reset to
// model.AllColumns. changed reports whether Selected moved.
func (c ColumnCatalog) Sync(serverColumns []string) (next ColumnCatalog, changed bool) {
	if c.Selected == "" {
		c.Selected = model.AllColumns
	}
	if !Reconcile(len(c.Options), serverColumns) {
		return c, false
	}

	next = ColumnCatalog{
		Options:  append([]string(nil), serverColumns...),
		Selected: model.AllColumns,
		Renders:  c.Renders + 1,
	}
	if next.Offers(c.Selected) {
		next.Selected = c.Selected
	}
	return next, next.Selected != c.Selected
}

// Offers reports whether column is a valid filter value.
func (c ColumnCatalog) Offers(column string) bool {
	if column == model.AllColumns {
		return true
	}
	for _, o := range c.Options {
		if o == column {
			return true
		}
	}
	return false
}
