package entity

// Kind is the inferred data type of a column. Values match the dtype names
// reported in summaries.
type Kind string

const (
	KindInt    Kind = "int64"
	KindFloat  Kind = "float64"
	KindBool   Kind = "bool"
	KindObject Kind = "object"
)

// IsNumeric reports whether values of this kind are plotted as a distribution.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Column holds the raw cells of one column in row order. Missing[i] is true
// when Values[i] is a missing-value literal.
type Column struct {
	Name    string
	Kind    Kind
	Values  []string
	Missing []bool
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	return len(c.Values)
}

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Present returns the non-missing cells in row order.
func (c Column) Present() []string {
	out := make([]string, 0, len(c.Values))
	for i, v := range c.Values {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Table is a parsed dataset. It is not modified after parsing.
type Table struct {
	Columns []Column
	Rows    int
}

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
