package bodytext

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

// ErrMalformedTable is returned when a table control's subtree lacks the
// records a table needs.
var ErrMalformedTable = errors.New("bodytext: malformed table")

// cellInfo is one cell list header with its resolved text.
type cellInfo struct {
	row, col         int
	rowSpan, colSpan int
	text             string
}

// ExtractTable builds a grid from a table control subtree. The grid size
// comes from the table record's declared counts, widened if cell addresses
// reach past them. Cells whose address falls outside the grid, or whose
// span overlaps an earlier merge, keep their text but lose the offending
// geometry.
func ExtractTable(raw RawTable) (*model.Table, error) {
	tableLevel := raw.Level + 1

	declRows, declCols := 0, 0
	found := false
	for _, r := range raw.Records {
		if r.Tag == record.TagTable && r.Level == tableLevel {
			if len(r.Payload) < 8 {
				return nil, fmt.Errorf("%w: table record payload %d bytes", ErrMalformedTable, len(r.Payload))
			}
			declRows = int(binary.LittleEndian.Uint16(r.Payload[4:]))
			declCols = int(binary.LittleEndian.Uint16(r.Payload[6:]))
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no table record in control subtree", ErrMalformedTable)
	}

	cells := collectCells(raw.Records, tableLevel)

	rows, cols := declRows, declCols
	for _, c := range cells {
		if c.row+c.rowSpan > rows {
			rows = c.row + c.rowSpan
		}
		if c.col+c.colSpan > cols {
			cols = c.col + c.colSpan
		}
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d grid", ErrMalformedTable, rows, cols)
	}

	t := model.NewTable(rows, cols)
	t.Section = raw.Section
	t.Paragraph = raw.Paragraph
	for _, c := range cells {
		if c.rowSpan > 1 || c.colSpan > 1 {
			// Overlapping spans lose the merge but keep the text.
			_ = t.SetSpan(c.row, c.col, c.rowSpan, c.colSpan)
		}
		if err := t.SetText(c.row, c.col, c.text); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// collectCells reads the cell list headers at the table's own level,
// skipping list headers that belong to tables nested inside cells, and
// gathers each cell's paragraph text.
func collectCells(recs []record.Record, tableLevel int) []cellInfo {
	var cells []cellInfo
	for i, r := range recs {
		if r.Tag != record.TagListHeader || r.Level != tableLevel || len(r.Payload) < 16 {
			continue
		}
		c := cellInfo{
			col:     int(binary.LittleEndian.Uint16(r.Payload[8:])),
			row:     int(binary.LittleEndian.Uint16(r.Payload[10:])),
			colSpan: int(binary.LittleEndian.Uint16(r.Payload[12:])),
			rowSpan: int(binary.LittleEndian.Uint16(r.Payload[14:])),
		}
		if c.colSpan < 1 {
			c.colSpan = 1
		}
		if c.rowSpan < 1 {
			c.rowSpan = 1
		}
		c.text = cellText(recs, i, tableLevel)
		cells = append(cells, c)
	}
	return cells
}

// cellText joins the paragraph text directly under the cell at recs[start].
// Paragraphs of nested tables sit deeper and are excluded.
func cellText(recs []record.Record, start, tableLevel int) string {
	var paras []string
	for j := start + 1; j < len(recs); j++ {
		r := recs[j]
		if r.Level <= tableLevel {
			break
		}
		if r.Tag == record.TagParaText && r.Level == tableLevel+2 {
			paras = append(paras, DecodeText(r.Payload))
		}
	}
	return strings.Join(paras, "\n")
}
