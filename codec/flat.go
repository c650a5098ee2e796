package codec

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/DevHeauk/han-parse/model"
)

// IndexFile is the name of the metadata file in a flat export.
const IndexFile = "index.json"

// spanJSON records one merged region in the flat index.
type spanJSON struct {
	Row     int `json:"row"`
	Col     int `json:"col"`
	RowSpan int `json:"row_span"`
	ColSpan int `json:"col_span"`
}

// indexEntry describes one exported CSV in the flat index.
type indexEntry struct {
	File      string     `json:"file"`
	Section   int        `json:"section"`
	Paragraph int        `json:"paragraph"`
	RowCount  int        `json:"row_count"`
	ColCount  int        `json:"col_count"`
	Spans     []spanJSON `json:"spans,omitempty"`
}

// EncodeFlat serializes a table set as one CSV file per table plus an
// index file. The CSVs carry only the text grid, covered merge positions
// empty; everything CSV cannot express lives in the index.
func EncodeFlat(set *model.TableSet) (map[string][]byte, error) {
	files := make(map[string][]byte, len(set.Tables)+1)
	index := make([]indexEntry, len(set.Tables))

	for i, t := range set.Tables {
		name := fmt.Sprintf("table_%04d.csv", i)
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.WriteAll(t.TextGrid()); err != nil {
			return nil, fmt.Errorf("codec: writing %s: %w", name, err)
		}
		files[name] = buf.Bytes()

		entry := indexEntry{
			File:      name,
			Section:   t.Section,
			Paragraph: t.Paragraph,
			RowCount:  t.RowCount(),
			ColCount:  t.ColCount(),
		}
		for _, row := range t.Rows {
			for c := range row {
				cell := &row[c]
				if cell.RowSpan > 1 || cell.ColSpan > 1 {
					entry.Spans = append(entry.Spans, spanJSON{
						Row: cell.Row, Col: cell.Col,
						RowSpan: cell.RowSpan, ColSpan: cell.ColSpan,
					})
				}
			}
		}
		index[i] = entry
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, err
	}
	files[IndexFile] = data
	return files, nil
}

// DecodeFlat rebuilds a table set from a flat export. Rows the CSV does
// not carry (trailing blank rows are dropped by CSV itself) come back
// empty; rows wider than the declared column count are a shape error.
func DecodeFlat(files map[string][]byte) (*model.TableSet, error) {
	data, ok := files[IndexFile]
	if !ok {
		return nil, fmt.Errorf("codec: flat form missing %s", IndexFile)
	}
	var index []indexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("codec: parsing %s: %w", IndexFile, err)
	}

	set := &model.TableSet{Tables: make([]*model.Table, len(index))}
	for i, entry := range index {
		csvData, ok := files[entry.File]
		if !ok {
			return nil, fmt.Errorf("codec: flat form missing %s", entry.File)
		}
		t, err := decodeFlatTable(entry, csvData)
		if err != nil {
			return nil, err
		}
		set.Tables[i] = t
	}
	return set, nil
}

func decodeFlatTable(entry indexEntry, csvData []byte) (*model.Table, error) {
	r := csv.NewReader(bytes.NewReader(csvData))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("codec: parsing %s: %w", entry.File, err)
	}
	if len(rows) > entry.RowCount {
		return nil, fmt.Errorf("%w: %s has %d rows, declared %d",
			model.ErrShapeMismatch, entry.File, len(rows), entry.RowCount)
	}

	t := model.NewTable(entry.RowCount, entry.ColCount)
	t.Section = entry.Section
	t.Paragraph = entry.Paragraph
	for _, s := range entry.Spans {
		if err := t.SetSpan(s.Row, s.Col, s.RowSpan, s.ColSpan); err != nil {
			return nil, fmt.Errorf("codec: %s index span: %w", entry.File, err)
		}
	}
	for rIdx, row := range rows {
		if len(row) > entry.ColCount {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, declared %d",
				model.ErrShapeMismatch, entry.File, rIdx, len(row), entry.ColCount)
		}
		for cIdx, text := range row {
			cell, err := t.Cell(rIdx, cIdx)
			if err != nil {
				return nil, err
			}
			// Covered positions export empty; writing them back would
			// clobber the anchor's text.
			if cell.Covered() {
				continue
			}
			cell.Text = text
		}
	}
	return t, nil
}
