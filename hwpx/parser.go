package hwpx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/DevHeauk/han-parse/model"
)

// ErrInvalidArchive is returned when data is not a readable OWPML archive.
var ErrInvalidArchive = errors.New("hwpx: invalid archive")

const sectionPrefix = "Contents/section"

// Parse extracts paragraph text runs and tables from an OWPML document.
// Sections are processed in section number order; tables are located by
// the top-level paragraph that anchors them, nested tables anchored to the
// same paragraph as their host.
func Parse(data []byte) ([]model.TextRun, *model.TableSet, error) {
	sections, err := sectionParts(data)
	if err != nil {
		return nil, nil, err
	}

	var runs []model.TextRun
	set := model.NewTableSet()
	for _, part := range sections {
		p := newSectionParser(part.index, part.data, false)
		if err := p.run(); err != nil {
			return nil, nil, fmt.Errorf("hwpx: %s: %w", part.name, err)
		}
		runs = append(runs, p.runs...)
		for _, tb := range p.finished {
			table, err := tb.build(part.index)
			if err != nil {
				return nil, nil, fmt.Errorf("hwpx: %s: %w", part.name, err)
			}
			set.Tables = append(set.Tables, table)
		}
	}
	return runs, set, nil
}

type sectionPart struct {
	name  string
	index int
	data  []byte
}

// sectionParts reads the archive and returns the section XML parts in
// section number order.
func sectionParts(data []byte) ([]sectionPart, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	var parts []sectionPart
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, sectionPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(f.Name, sectionPrefix), ".xml")
		idx, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArchive, f.Name, err)
		}
		parts = append(parts, sectionPart{name: f.Name, index: idx, data: content})
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no section parts", ErrInvalidArchive)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].index < parts[j].index })
	return parts, nil
}

// textSpan is the byte range of one text element's content in a section
// part, used when patching.
type textSpan struct {
	start, end int64
}

type cellBuild struct {
	row, col         int
	rowSpan, colSpan int
	paras            []string
	cur              strings.Builder
	spans            []textSpan
}

type tableBuild struct {
	declRows, declCols int
	paragraph          int
	cells              []*cellBuild
}

// build assembles the collected cells into a grid, widening the declared
// size when cell addresses reach past it.
func (tb *tableBuild) build(section int) (*model.Table, error) {
	rows, cols := tb.declRows, tb.declCols
	for _, c := range tb.cells {
		if c.row+c.rowSpan > rows {
			rows = c.row + c.rowSpan
		}
		if c.col+c.colSpan > cols {
			cols = c.col + c.colSpan
		}
	}
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty %dx%d table", rows, cols)
	}

	t := model.NewTable(rows, cols)
	t.Section = section
	t.Paragraph = tb.paragraph
	for _, c := range tb.cells {
		if c.rowSpan > 1 || c.colSpan > 1 {
			_ = t.SetSpan(c.row, c.col, c.rowSpan, c.colSpan)
		}
		if err := t.SetText(c.row, c.col, strings.Join(c.paras, "\n")); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// sectionParser walks one section part's XML token stream. When spans is
// set it also records the byte range of every text element inside a cell,
// which the patcher needs.
type sectionParser struct {
	section int
	dec     *xml.Decoder
	spans   bool

	runs     []model.TextRun
	finished []*tableBuild

	tableStack []*tableBuild
	cellStack  []*cellBuild
	paraText   strings.Builder
	para       int
	inText     bool
}

func newSectionParser(section int, data []byte, spans bool) *sectionParser {
	return &sectionParser{
		section: section,
		dec:     xml.NewDecoder(bytes.NewReader(data)),
		spans:   spans,
		para:    -1,
	}
}

func (p *sectionParser) topCell() *cellBuild {
	if len(p.cellStack) == 0 {
		return nil
	}
	return p.cellStack[len(p.cellStack)-1]
}

func (p *sectionParser) run() error {
	for {
		tokenStart := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.startElement(t)
		case xml.EndElement:
			p.endElement(t, tokenStart)
		case xml.CharData:
			p.charData(t)
		}
	}
}

func (p *sectionParser) startElement(t xml.StartElement) {
	switch t.Name.Local {
	case "p":
		if len(p.tableStack) == 0 {
			p.para++
			p.paraText.Reset()
		} else if c := p.topCell(); c != nil {
			c.cur.Reset()
		}
	case "tbl":
		anchor := p.para
		if anchor < 0 {
			anchor = 0
		}
		tb := &tableBuild{
			declRows:  attrInt(t, "rowCnt"),
			declCols:  attrInt(t, "colCnt"),
			paragraph: anchor,
		}
		p.tableStack = append(p.tableStack, tb)
		p.finished = append(p.finished, tb)
	case "tc":
		if len(p.tableStack) == 0 {
			return
		}
		c := &cellBuild{rowSpan: 1, colSpan: 1}
		top := p.tableStack[len(p.tableStack)-1]
		top.cells = append(top.cells, c)
		p.cellStack = append(p.cellStack, c)
	case "cellAddr":
		if c := p.topCell(); c != nil {
			c.col = attrInt(t, "colAddr")
			c.row = attrInt(t, "rowAddr")
		}
	case "cellSpan":
		if c := p.topCell(); c != nil {
			if v := attrInt(t, "colSpan"); v > 1 {
				c.colSpan = v
			}
			if v := attrInt(t, "rowSpan"); v > 1 {
				c.rowSpan = v
			}
		}
	case "t":
		p.inText = true
		if p.spans {
			if c := p.topCell(); c != nil {
				c.spans = append(c.spans, textSpan{start: p.dec.InputOffset(), end: -1})
			}
		}
	}
}

func (p *sectionParser) endElement(t xml.EndElement, tokenStart int64) {
	switch t.Name.Local {
	case "p":
		if c := p.topCell(); c != nil {
			c.paras = append(c.paras, c.cur.String())
			c.cur.Reset()
		} else if len(p.tableStack) == 0 && p.para >= 0 {
			p.runs = append(p.runs, model.TextRun{
				Section:   p.section,
				Paragraph: p.para,
				Text:      p.paraText.String(),
			})
		}
	case "tbl":
		if len(p.tableStack) > 0 {
			p.tableStack = p.tableStack[:len(p.tableStack)-1]
		}
	case "tc":
		if len(p.cellStack) > 0 {
			p.cellStack = p.cellStack[:len(p.cellStack)-1]
		}
	case "t":
		p.inText = false
		if p.spans {
			if c := p.topCell(); c != nil && len(c.spans) > 0 {
				last := &c.spans[len(c.spans)-1]
				if last.end < 0 {
					last.end = tokenStart
				}
			}
		}
	}
}

func (p *sectionParser) charData(t xml.CharData) {
	if !p.inText {
		return
	}
	if c := p.topCell(); c != nil {
		c.cur.Write(t)
	} else if len(p.tableStack) == 0 {
		p.paraText.Write(t)
	}
}

func attrInt(t xml.StartElement, name string) int {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return 0
			}
			return v
		}
	}
	return 0
}
