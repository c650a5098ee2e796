package model

import "fmt"

// TableSet is the ordered collection of tables extracted from a document,
// in section order and record order within each section.
type TableSet struct {
	Tables []*Table `json:"tables"`
}

// NewTableSet returns a set over the given tables.
func NewTableSet(tables ...*Table) *TableSet {
	return &TableSet{Tables: tables}
}

// Len returns the number of tables.
func (s *TableSet) Len() int {
	return len(s.Tables)
}

// Table returns the table at index i.
func (s *TableSet) Table(i int) (*Table, error) {
	if i < 0 || i >= len(s.Tables) {
		return nil, fmt.Errorf("%w: table %d of %d", ErrIndexOutOfRange, i, len(s.Tables))
	}
	return s.Tables[i], nil
}

// Edit replaces the text of one cell, addressed by table index and grid
// position. Addressing a covered position writes through to the merge
// anchor. The operation is idempotent: applying the same edit twice leaves
// the set in the same state as applying it once.
func (s *TableSet) Edit(table, row, col int, text string) error {
	t, err := s.Table(table)
	if err != nil {
		return err
	}
	return t.SetText(row, col, text)
}

// Clone returns a deep copy of the set.
func (s *TableSet) Clone() *TableSet {
	out := &TableSet{Tables: make([]*Table, len(s.Tables))}
	for i, t := range s.Tables {
		out.Tables[i] = t.Clone()
	}
	return out
}

// Merge concatenates two sets into a new set, a's tables first. The inputs
// are deep-copied, so edits to the result never alias the originals.
func Merge(a, b *TableSet) *TableSet {
	out := a.Clone()
	out.Tables = append(out.Tables, b.Clone().Tables...)
	return out
}
