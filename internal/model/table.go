package model

// HeaderCell is one column header of a source table.
type HeaderCell struct {
	AccessibleLabels []string // titles of every labelled element inside the header
	VisibleText      string
}

// HasLabel reports whether any labelled element of the header is titled label.
func (h HeaderCell) HasLabel(label string) bool {
	for _, l := range h.AccessibleLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Cell is one data cell. Parts holds the texts of nested span elements in
// document order; the coin cell carries the long name then the short name.
type Cell struct {
	Text  string
	Parts []string
}

// Row is one data line of a table.
type Row struct {
	Cells []Cell
}

// TableSnapshot is a single fetched page. Rows excludes the header row.
type TableSnapshot struct {
	Page   int
	Header []HeaderCell
	Rows   []Row
}

// Empty reports whether the page carries no data rows, which ends pagination.
func (t *TableSnapshot) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
