// Package inject writes edited table sets back into the document they came
// from. The original file serves as the template: every stream outside the
// patched table cells is preserved, so styles, numbering, and object data
// survive the round trip.
package inject

import (
	"encoding/binary"
	"fmt"

	"github.com/DevHeauk/han-parse/bodytext"
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/document"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

// Reconstruct writes the table set's text into template, a complete HWP
// document, and returns the rebuilt file. Tables are matched by section
// and paragraph in document order, and each matched pair must agree in
// dimensions and merge structure; any table the template cannot place
// fails with [model.ErrShapeMismatch]. Tables in the template that the set
// does not mention are left untouched.
func Reconstruct(set *model.TableSet, template []byte) ([]byte, error) {
	container, err := cfb.Read(template)
	if err != nil {
		return nil, err
	}
	headerData, ok := container.Stream(document.FileHeaderStream)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s stream", cfb.ErrInvalidContainer, document.FileHeaderStream)
	}
	header, err := document.ParseFileHeader(headerData)
	if err != nil {
		return nil, err
	}

	pending := append([]*model.Table(nil), set.Tables...)
	for _, section := range document.SectionStreams(container) {
		streamData, _ := container.Stream(section.Name)
		payload := streamData
		if header.Compressed {
			payload, err = filters.Decompress(streamData, -1)
			if err != nil {
				return nil, fmt.Errorf("section %d: %w", section.Index, err)
			}
		}
		recs, err := record.DecodeAll(payload)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", section.Index, err)
		}

		_, raws := bodytext.WalkSection(section.Index, recs)
		changed := false
		for _, raw := range raws {
			i := matchTable(pending, raw)
			if i < 0 {
				continue
			}
			table := pending[i]
			pending = append(pending[:i], pending[i+1:]...)

			if err := checkShape(raw, table); err != nil {
				return nil, err
			}
			if err := patchTable(recs, raw, table); err != nil {
				return nil, err
			}
			changed = true
		}
		if changed {
			out := record.Encode(recs)
			if header.Compressed {
				out, err = filters.Compress(out)
				if err != nil {
					return nil, err
				}
			}
			container.SetStream(section.Name, out)
		}
	}
	if len(pending) > 0 {
		t := pending[0]
		return nil, fmt.Errorf("%w: no table at section %d paragraph %d in template",
			model.ErrShapeMismatch, t.Section, t.Paragraph)
	}

	return cfb.Write(container)
}

// matchTable finds the first pending table anchored where raw sits.
func matchTable(pending []*model.Table, raw bodytext.RawTable) int {
	for i, t := range pending {
		if t.Section == raw.Section && t.Paragraph == raw.Paragraph {
			return i
		}
	}
	return -1
}

func checkShape(raw bodytext.RawTable, table *model.Table) error {
	templ, err := bodytext.ExtractTable(raw)
	if err != nil {
		return err
	}
	if !templ.SameShape(table) {
		return fmt.Errorf("%w: template table at section %d paragraph %d is %dx%d, set has %dx%d",
			model.ErrShapeMismatch, raw.Section, raw.Paragraph,
			templ.RowCount(), templ.ColCount(), table.RowCount(), table.ColCount())
	}
	return nil
}

// patchTable rewrites the cell text of one table subtree in place. The
// first paragraph of each cell receives the cell's full text, line breaks
// included; any further paragraphs in the cell are emptied so stale text
// cannot linger. Paragraph headers are updated to the new character
// counts. Nested tables inside cells sit deeper in the tree and are not
// touched; they are patched through their own RawTable.
func patchTable(recs []record.Record, raw bodytext.RawTable, table *model.Table) error {
	tableLevel := raw.Level + 1
	sub := recs[raw.Start:raw.End]

	for i := 0; i < len(sub); i++ {
		r := sub[i]
		if r.Tag != record.TagListHeader || r.Level != tableLevel || len(r.Payload) < 16 {
			continue
		}
		col := int(binary.LittleEndian.Uint16(r.Payload[8:]))
		row := int(binary.LittleEndian.Uint16(r.Payload[10:]))
		text, err := table.Text(row, col)
		if err != nil {
			return err
		}

		first := true
		var lastHeader *record.Record
		for j := i + 1; j < len(sub); j++ {
			c := &sub[j]
			if c.Level <= tableLevel {
				break
			}
			switch {
			case c.Tag == record.TagParaHeader && c.Level == tableLevel+1:
				lastHeader = c
			case c.Tag == record.TagParaText && c.Level == tableLevel+2:
				var payload []byte
				if first {
					payload = bodytext.EncodeText(text)
					first = false
				}
				c.Payload = payload
				if lastHeader != nil {
					setCharCount(lastHeader, len(payload)/2)
					lastHeader = nil
				}
			}
		}
	}
	return nil
}

// setCharCount rewrites the character count at the head of a paragraph
// header payload. The payload aliases the decoded stream, so it is copied
// before the write.
func setCharCount(r *record.Record, n int) {
	if len(r.Payload) < 4 {
		return
	}
	payload := append([]byte(nil), r.Payload...)
	binary.LittleEndian.PutUint32(payload, uint32(n))
	r.Payload = payload
}
