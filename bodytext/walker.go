package bodytext

import (
	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

// RawTable is the record subtree of one table control, located by the
// paragraph that anchors it. Start and End index the enclosing section's
// record slice, Start at the control header and End one past the last
// record of the subtree. Records aliases the same range.
type RawTable struct {
	Section   int
	Paragraph int
	Level     int
	Start     int
	End       int
	Records   []record.Record
}

// WalkSection splits a section's records into paragraph text runs and raw
// table subtrees. Paragraphs are counted at level zero; text inside table
// cells sits deeper in the tree and surfaces through the tables instead.
// A table nested inside another table's cell yields its own RawTable,
// anchored to the same top-level paragraph.
func WalkSection(section int, recs []record.Record) ([]model.TextRun, []RawTable) {
	var runs []model.TextRun
	var tables []RawTable

	para := -1
	var text []byte
	flush := func() {
		if para >= 0 {
			runs = append(runs, model.TextRun{
				Section:   section,
				Paragraph: para,
				Text:      string(text),
			})
		}
		text = text[:0]
	}

	for i, r := range recs {
		switch {
		case r.Tag == record.TagParaHeader && r.Level == 0:
			flush()
			para++
		case r.Tag == record.TagParaText && r.Level == 1:
			text = append(text, DecodeText(r.Payload)...)
		case r.Tag == record.TagCtrlHeader && r.CtrlID() == record.CtrlIDTable:
			end := subtreeEnd(recs, i)
			anchor := para
			if anchor < 0 {
				anchor = 0
			}
			tables = append(tables, RawTable{
				Section:   section,
				Paragraph: anchor,
				Level:     r.Level,
				Start:     i,
				End:       end,
				Records:   recs[i:end],
			})
		}
	}
	flush()
	return runs, tables
}

// subtreeEnd returns the index one past the subtree rooted at recs[root]:
// the first following record at the root's level or shallower.
func subtreeEnd(recs []record.Record, root int) int {
	level := recs[root].Level
	for j := root + 1; j < len(recs); j++ {
		if recs[j].Level <= level {
			return j
		}
	}
	return len(recs)
}
