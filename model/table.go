package model

import (
	"fmt"
	"strings"
)

// Cell is one position in a table grid. An anchor cell carries text and
// spans of at least 1, with Row and Col naming its own position. A position
// covered by a merged region has zero spans, with Row and Col pointing at
// the anchor that covers it.
type Cell struct {
	Text    string `json:"text"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	RowSpan int    `json:"row_span"`
	ColSpan int    `json:"col_span"`
}

// Covered reports whether the cell is a placeholder inside a merged region.
func (c *Cell) Covered() bool {
	return c.RowSpan == 0 && c.ColSpan == 0
}

// Table is a rectangular grid of cells located at a paragraph within a
// section. Every row has the same length.
type Table struct {
	Rows      [][]Cell `json:"rows"`
	Section   int      `json:"section"`
	Paragraph int      `json:"paragraph"`
}

// NewTable returns a rows-by-cols table of empty unmerged cells.
func NewTable(rows, cols int) *Table {
	t := &Table{Rows: make([][]Cell, rows)}
	for r := 0; r < rows; r++ {
		t.Rows[r] = make([]Cell, cols)
		for c := 0; c < cols; c++ {
			t.Rows[r][c] = Cell{Row: r, Col: c, RowSpan: 1, ColSpan: 1}
		}
	}
	return t
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns.
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

func (t *Table) inBounds(row, col int) bool {
	return row >= 0 && row < len(t.Rows) && col >= 0 && col < len(t.Rows[row])
}

// Cell returns the cell at the given position, without resolving merges.
func (t *Table) Cell(row, col int) (*Cell, error) {
	if !t.inBounds(row, col) {
		return nil, fmt.Errorf("%w: cell (%d,%d) in %dx%d table",
			ErrIndexOutOfRange, row, col, t.RowCount(), t.ColCount())
	}
	return &t.Rows[row][col], nil
}

// Origin resolves a position to its anchor cell: the cell itself when it is
// not covered by a merge, otherwise the anchor of the covering region.
func (t *Table) Origin(row, col int) (*Cell, error) {
	c, err := t.Cell(row, col)
	if err != nil {
		return nil, err
	}
	if !c.Covered() {
		return c, nil
	}
	a, err := t.Cell(c.Row, c.Col)
	if err != nil || a.Covered() {
		return nil, fmt.Errorf("%w: cell (%d,%d) covered by invalid anchor (%d,%d)",
			ErrIndexOutOfRange, row, col, c.Row, c.Col)
	}
	return a, nil
}

// Text returns the text at a position, following merges to the anchor.
func (t *Table) Text(row, col int) (string, error) {
	a, err := t.Origin(row, col)
	if err != nil {
		return "", err
	}
	return a.Text, nil
}

// SetText replaces the text at a position. Writing to any position covered
// by a merged region writes through to the anchor.
func (t *Table) SetText(row, col int, text string) error {
	a, err := t.Origin(row, col)
	if err != nil {
		return err
	}
	a.Text = text
	return nil
}

// SetSpan merges the rowSpan-by-colSpan region anchored at (row, col). The
// whole region must lie inside the grid and every position in it must be an
// unmerged 1x1 cell; text in covered positions is discarded.
func (t *Table) SetSpan(row, col, rowSpan, colSpan int) error {
	if rowSpan < 1 || colSpan < 1 {
		return fmt.Errorf("%w: span %dx%d", ErrIndexOutOfRange, rowSpan, colSpan)
	}
	if !t.inBounds(row, col) || !t.inBounds(row+rowSpan-1, col+colSpan-1) {
		return fmt.Errorf("%w: span %dx%d at (%d,%d) in %dx%d table",
			ErrIndexOutOfRange, rowSpan, colSpan, row, col, t.RowCount(), t.ColCount())
	}
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			cell := &t.Rows[r][c]
			if cell.Covered() || cell.RowSpan != 1 || cell.ColSpan != 1 {
				return fmt.Errorf("%w: span at (%d,%d) overlaps merge at (%d,%d)",
					ErrShapeMismatch, row, col, r, c)
			}
		}
	}
	for r := row; r < row+rowSpan; r++ {
		for c := col; c < col+colSpan; c++ {
			if r == row && c == col {
				continue
			}
			t.Rows[r][c] = Cell{Row: row, Col: col}
		}
	}
	anchor := &t.Rows[row][col]
	anchor.RowSpan = rowSpan
	anchor.ColSpan = colSpan
	return nil
}

// TextGrid returns the grid as strings, with positions covered by merges
// left empty.
func (t *Table) TextGrid() [][]string {
	grid := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		grid[r] = make([]string, len(row))
		for c := range row {
			if !row[c].Covered() {
				grid[r][c] = row[c].Text
			}
		}
	}
	return grid
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Rows:      make([][]Cell, len(t.Rows)),
		Section:   t.Section,
		Paragraph: t.Paragraph,
	}
	for r, row := range t.Rows {
		out.Rows[r] = append([]Cell(nil), row...)
	}
	return out
}

// SameShape reports whether two tables have identical dimensions and merge
// structure. Cell text is not compared.
func (t *Table) SameShape(o *Table) bool {
	if t.RowCount() != o.RowCount() || t.ColCount() != o.ColCount() {
		return false
	}
	for r, row := range t.Rows {
		for c := range row {
			a, b := row[c], o.Rows[r][c]
			if a.Row != b.Row || a.Col != b.Col ||
				a.RowSpan != b.RowSpan || a.ColSpan != b.ColSpan {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two tables have the same shape, text, and location.
func (t *Table) Equal(o *Table) bool {
	if t.Section != o.Section || t.Paragraph != o.Paragraph || !t.SameShape(o) {
		return false
	}
	for r, row := range t.Rows {
		for c := range row {
			if row[c].Text != o.Rows[r][c].Text {
				return false
			}
		}
	}
	return true
}

// ToMarkdown renders the table as a pipe-delimited block, the first row as
// the header. Covered positions render empty.
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}
	var sb strings.Builder
	writeRow := func(cells []string) {
		for _, text := range cells {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(text, "\n", " "))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}
	grid := t.TextGrid()
	writeRow(grid[0])
	for range grid[0] {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range grid[1:] {
		writeRow(row)
	}
	return sb.String()
}
