package hwpx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/DevHeauk/han-parse/model"
)

// Patch writes the table set's text into an existing OWPML archive and
// returns the rebuilt file. Matching and shape rules are the same as for
// the binary format: tables pair by section and paragraph in document
// order and must agree in dimensions and merge structure, reported as
// [model.ErrShapeMismatch] otherwise. The new text is spliced into the
// section XML byte ranges of the affected cells; everything else in the
// archive is copied through verbatim.
func Patch(data []byte, set *model.TableSet) ([]byte, error) {
	sections, err := sectionParts(data)
	if err != nil {
		return nil, err
	}

	pending := append([]*model.Table(nil), set.Tables...)
	patched := make(map[string][]byte)
	for _, part := range sections {
		p := newSectionParser(part.index, part.data, true)
		if err := p.run(); err != nil {
			return nil, fmt.Errorf("hwpx: %s: %w", part.name, err)
		}

		var splices []splice
		for _, tb := range p.finished {
			i := matchTable(pending, part.index, tb.paragraph)
			if i < 0 {
				continue
			}
			table := pending[i]
			pending = append(pending[:i], pending[i+1:]...)

			templ, err := tb.build(part.index)
			if err != nil {
				return nil, fmt.Errorf("hwpx: %s: %w", part.name, err)
			}
			if !templ.SameShape(table) {
				return nil, fmt.Errorf("%w: template table at section %d paragraph %d is %dx%d, set has %dx%d",
					model.ErrShapeMismatch, part.index, tb.paragraph,
					templ.RowCount(), templ.ColCount(), table.RowCount(), table.ColCount())
			}

			s, err := cellSplices(tb, table)
			if err != nil {
				return nil, err
			}
			splices = append(splices, s...)
		}
		if len(splices) > 0 {
			out, err := applySplices(part.data, splices)
			if err != nil {
				return nil, fmt.Errorf("hwpx: %s: %w", part.name, err)
			}
			patched[part.name] = out
		}
	}
	if len(pending) > 0 {
		t := pending[0]
		return nil, fmt.Errorf("%w: no table at section %d paragraph %d in template",
			model.ErrShapeMismatch, t.Section, t.Paragraph)
	}

	return repack(data, patched)
}

func matchTable(pending []*model.Table, section, paragraph int) int {
	for i, t := range pending {
		if t.Section == section && t.Paragraph == paragraph {
			return i
		}
	}
	return -1
}

type splice struct {
	start, end int64
	repl       []byte
}

// cellSplices builds the text replacements for one table: each cell's
// first text element receives the cell's full text, the rest are emptied.
func cellSplices(tb *tableBuild, table *model.Table) ([]splice, error) {
	var out []splice
	for _, c := range tb.cells {
		text, err := table.Text(c.row, c.col)
		if err != nil {
			return nil, err
		}
		for i, span := range c.spans {
			if span.end < span.start {
				continue
			}
			var repl []byte
			if i == 0 {
				var buf bytes.Buffer
				if err := xml.EscapeText(&buf, []byte(text)); err != nil {
					return nil, err
				}
				repl = buf.Bytes()
			}
			out = append(out, splice{start: span.start, end: span.end, repl: repl})
		}
	}
	return out, nil
}

// applySplices replaces the given byte ranges of data, which must be
// strictly ordered and non-overlapping after sorting.
func applySplices(data []byte, splices []splice) ([]byte, error) {
	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })

	var buf bytes.Buffer
	pos := int64(0)
	for _, s := range splices {
		if s.start < pos || s.end > int64(len(data)) {
			return nil, fmt.Errorf("splice [%d,%d) out of order", s.start, s.end)
		}
		buf.Write(data[pos:s.start])
		buf.Write(s.repl)
		pos = s.end
	}
	buf.Write(data[pos:])
	return buf.Bytes(), nil
}

// repack rebuilds the archive, substituting patched parts and copying all
// other entries through with their original compression method.
func repack(data []byte, patched map[string][]byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   f.Name,
			Method: f.Method,
		})
		if err != nil {
			return nil, err
		}
		if content, ok := patched[f.Name]; ok {
			if _, err := w.Write(content); err != nil {
				return nil, err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
