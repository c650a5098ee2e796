// Package hanparse provides a fluent API for extracting text and tables
// from HWP and HWPX documents.
//
// Basic usage:
//
//	tables, err := hanparse.Open("report.hwp").Tables()
//	if err != nil {
//	    // handle error
//	}
//
// Chained access:
//
//	doc, err := hanparse.Open("report.hwp").Document()
//	text, err := hanparse.FromBytes(data).Text()
//
// For advanced use cases the lower-level cfb, record, and bodytext
// packages are also available.
package hanparse

import (
	"fmt"
	"os"
	"strings"

	"github.com/DevHeauk/han-parse/bodytext"
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/format"
	"github.com/DevHeauk/han-parse/hwpx"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

// Warning reports a recoverable defect found while parsing, such as one
// table that could not be decoded while the rest of the document could.
type Warning struct {
	Section int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("section %d: %s", w.Section, w.Message)
}

// Document is a parsed document: every paragraph text run and every table,
// in document order.
type Document struct {
	Format   format.Format
	Version  Version
	TextRuns []model.TextRun
	Tables   *model.TableSet
	Warnings []Warning
}

// Text returns all paragraph text joined with newlines.
func (d *Document) Text() string {
	parts := make([]string, len(d.TextRuns))
	for i, run := range d.TextRuns {
		parts[i] = run.Text
	}
	return strings.Join(parts, "\n")
}

// Extractor accumulates a source until a terminal operation (Document,
// Tables, Text) runs the parse.
type Extractor struct {
	filename string
	data     []byte
}

// Open prepares an extractor reading from a file. The file is not touched
// until a terminal operation runs.
func Open(filename string) *Extractor {
	return &Extractor{filename: filename}
}

// FromBytes prepares an extractor over in-memory document data.
func FromBytes(data []byte) *Extractor {
	return &Extractor{data: data}
}

// Document parses the source and returns the full document.
func (e *Extractor) Document() (*Document, error) {
	data := e.data
	if data == nil {
		var err error
		data, err = os.ReadFile(e.filename)
		if err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Tables parses the source and returns its tables.
func (e *Extractor) Tables() (*model.TableSet, error) {
	doc, err := e.Document()
	if err != nil {
		return nil, err
	}
	return doc.Tables, nil
}

// Text parses the source and returns all paragraph text.
func (e *Extractor) Text() (string, error) {
	doc, err := e.Document()
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// Must wraps a call returning (T, error) and panics on error. It is meant
// for scripts and tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Parse detects the format of data and parses it.
func Parse(data []byte) (*Document, error) {
	switch format.Detect(data) {
	case format.HWP:
		return parseHWP(data)
	case format.HWPX:
		runs, tables, err := hwpx.Parse(data)
		if err != nil {
			return nil, err
		}
		return &Document{
			Format:   format.HWPX,
			TextRuns: runs,
			Tables:   tables,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized document", cfb.ErrInvalidContainer)
	}
}

func parseHWP(data []byte) (*Document, error) {
	container, err := cfb.Read(data)
	if err != nil {
		return nil, err
	}

	headerData, ok := container.Stream(FileHeaderStream)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s stream", cfb.ErrInvalidContainer, FileHeaderStream)
	}
	header, err := ParseFileHeader(headerData)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Format:  format.HWP,
		Version: header.Version,
		Tables:  model.NewTableSet(),
	}
	for _, section := range SectionStreams(container) {
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

		runs, rawTables := bodytext.WalkSection(section.Index, recs)
		doc.TextRuns = append(doc.TextRuns, runs...)
		for _, raw := range rawTables {
			table, err := bodytext.ExtractTable(raw)
			if err != nil {
				// One broken table should not sink the document.
				doc.Warnings = append(doc.Warnings, Warning{
					Section: section.Index,
					Message: err.Error(),
				})
				continue
			}
			doc.Tables.Tables = append(doc.Tables.Tables, table)
		}
	}
	return doc, nil
}
