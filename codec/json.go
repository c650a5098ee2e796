package codec

import (
	"encoding/json"
	"fmt"

	"github.com/DevHeauk/han-parse/model"
)

// tableJSON is the structured wire form of one table. RowCount and
// ColCount restate the grid dimensions so consumers can size buffers
// without scanning rows. Rows holds full cell objects, not bare strings:
// merge geometry travels inside each cell, which is what lets the
// structured form round-trip without a side channel. Exports that used a
// strings-only rows layout are not accepted here; the flat form's CSVs
// cover the strings-grid case.
type tableJSON struct {
	Section   int            `json:"section"`
	Paragraph int            `json:"paragraph"`
	RowCount  int            `json:"row_count"`
	ColCount  int            `json:"col_count"`
	Rows      [][]model.Cell `json:"rows"`
}

type setJSON struct {
	Tables []tableJSON `json:"tables"`
}

// EncodeStructured serializes a table set as indented JSON.
func EncodeStructured(set *model.TableSet) ([]byte, error) {
	doc := setJSON{Tables: make([]tableJSON, len(set.Tables))}
	for i, t := range set.Tables {
		doc.Tables[i] = tableJSON{
			Section:   t.Section,
			Paragraph: t.Paragraph,
			RowCount:  t.RowCount(),
			ColCount:  t.ColCount(),
			Rows:      t.Clone().Rows,
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeStructured parses the structured JSON form. The declared counts
// must agree with the grid, and merge geometry must resolve: every covered
// position has to point at an in-range anchor. Disagreements are reported
// as [model.ErrShapeMismatch].
func DecodeStructured(data []byte) (*model.TableSet, error) {
	var doc setJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("codec: parsing structured form: %w", err)
	}

	set := &model.TableSet{Tables: make([]*model.Table, len(doc.Tables))}
	for i, tj := range doc.Tables {
		t := &model.Table{Rows: tj.Rows, Section: tj.Section, Paragraph: tj.Paragraph}
		if err := validateTable(t, i, tj.RowCount, tj.ColCount); err != nil {
			return nil, err
		}
		set.Tables[i] = t
	}
	return set, nil
}

func validateTable(t *model.Table, index, rowCount, colCount int) error {
	if t.RowCount() != rowCount {
		return fmt.Errorf("%w: table %d declares %d rows, carries %d",
			model.ErrShapeMismatch, index, rowCount, t.RowCount())
	}
	for r, row := range t.Rows {
		if len(row) != colCount {
			return fmt.Errorf("%w: table %d row %d has %d columns, declared %d",
				model.ErrShapeMismatch, index, r, len(row), colCount)
		}
		for c := range row {
			cell := &row[c]
			if cell.Covered() {
				if _, err := t.Origin(r, c); err != nil {
					return fmt.Errorf("%w: table %d cell (%d,%d) covered by missing anchor",
						model.ErrShapeMismatch, index, r, c)
				}
				continue
			}
			if cell.RowSpan < 1 || cell.ColSpan < 1 ||
				cell.Row != r || cell.Col != c ||
				r+cell.RowSpan > rowCount || c+cell.ColSpan > colCount {
				return fmt.Errorf("%w: table %d cell (%d,%d) has invalid geometry",
					model.ErrShapeMismatch, index, r, c)
			}
		}
	}
	return nil
}
