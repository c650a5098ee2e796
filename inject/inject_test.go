package inject_test

import (
	"encoding/binary"
	"errors"
	"testing"

	hanparse "github.com/DevHeauk/han-parse"
	"github.com/DevHeauk/han-parse/bodytext"
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/inject"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

func paraHeader(level int) record.Record {
	return record.Record{Tag: record.TagParaHeader, Level: level, Payload: make([]byte, 22)}
}

func paraText(level int, text string) record.Record {
	return record.Record{Tag: record.TagParaText, Level: level, Payload: bodytext.EncodeText(text)}
}

func tableCtrl(level int) record.Record {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, record.CtrlIDTable)
	return record.Record{Tag: record.TagCtrlHeader, Level: level, Payload: p}
}

func tableRec(level, rows, cols int) record.Record {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint16(p[4:], uint16(rows))
	binary.LittleEndian.PutUint16(p[6:], uint16(cols))
	return record.Record{Tag: record.TagTable, Level: level, Payload: p}
}

func cell(level, row, col int, text string) []record.Record {
	p := make([]byte, 34)
	binary.LittleEndian.PutUint16(p[8:], uint16(col))
	binary.LittleEndian.PutUint16(p[10:], uint16(row))
	binary.LittleEndian.PutUint16(p[12:], 1)
	binary.LittleEndian.PutUint16(p[14:], 1)
	return []record.Record{
		{Tag: record.TagListHeader, Level: level, Payload: p},
		paraHeader(level + 1),
		paraText(level+2, text),
	}
}

// buildDocument assembles a compressed single-section document with one
// paragraph of text, a 2x2 table, and a trailing paragraph.
func buildDocument(t *testing.T) []byte {
	t.Helper()
	recs := []record.Record{
		paraHeader(0),
		paraText(1, "before the table"),
		paraHeader(0),
		tableCtrl(1),
		tableRec(2, 2, 2),
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			recs = append(recs, cell(2, r, c, "old")...)
		}
	}
	recs = append(recs, paraHeader(0), paraText(1, "after the table"))

	compressed, err := filters.Compress(record.Encode(recs))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	container := cfb.NewContainer()
	container.SetStream(hanparse.FileHeaderStream, hanparse.EncodeFileHeader(hanparse.FileHeader{
		Version:    hanparse.Version(5<<24 | 3<<8),
		Compressed: true,
	}))
	container.SetStream(hanparse.BodyTextPrefix+"0", compressed)
	data, err := cfb.Write(container)
	if err != nil {
		t.Fatalf("cfb.Write: %v", err)
	}
	return data
}

func TestReconstructEdit(t *testing.T) {
	template := buildDocument(t)
	doc, err := hanparse.Parse(template)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Tables.Len() != 1 {
		t.Fatalf("got %d tables, want 1", doc.Tables.Len())
	}

	set := doc.Tables.Clone()
	if err := set.Edit(0, 1, 1, "new value"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := set.Edit(0, 0, 0, "two\nlines"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	rebuilt, err := inject.Reconstruct(set, template)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	got, err := hanparse.Parse(rebuilt)
	if err != nil {
		t.Fatalf("Parse rebuilt: %v", err)
	}
	table, err := got.Tables.Table(0)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[[2]int]string{
		{0, 0}: "two\nlines",
		{0, 1}: "old",
		{1, 0}: "old",
		{1, 1}: "new value",
	}
	for pos, want := range checks {
		if text, _ := table.Text(pos[0], pos[1]); text != want {
			t.Errorf("cell (%d,%d) = %q, want %q", pos[0], pos[1], text, want)
		}
	}

	// Text outside the table survives untouched.
	if got.TextRuns[0].Text != "before the table" {
		t.Errorf("leading paragraph = %q", got.TextRuns[0].Text)
	}
	last := got.TextRuns[len(got.TextRuns)-1]
	if last.Text != "after the table" {
		t.Errorf("trailing paragraph = %q", last.Text)
	}
}

func TestReconstructIdentity(t *testing.T) {
	template := buildDocument(t)
	doc, err := hanparse.Parse(template)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rebuilt, err := inject.Reconstruct(doc.Tables, template)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	got, err := hanparse.Parse(rebuilt)
	if err != nil {
		t.Fatalf("Parse rebuilt: %v", err)
	}
	if !got.Tables.Tables[0].Equal(doc.Tables.Tables[0]) {
		t.Error("unedited reconstruct changed the table")
	}
}

func TestReconstructShapeMismatch(t *testing.T) {
	template := buildDocument(t)

	wrongShape := model.NewTable(3, 3)
	wrongShape.Paragraph = 1 // same anchor as the template's table

	wrongAnchor := model.NewTable(2, 2)
	wrongAnchor.Section = 5

	tests := []struct {
		name string
		set  *model.TableSet
	}{
		{"dimensions disagree", model.NewTableSet(wrongShape)},
		{"no table at anchor", model.NewTableSet(wrongAnchor)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := inject.Reconstruct(tc.set, template); !errors.Is(err, model.ErrShapeMismatch) {
				t.Errorf("got %v, want ErrShapeMismatch", err)
			}
		})
	}
}

func TestReconstructBadTemplate(t *testing.T) {
	set := model.NewTableSet()
	if _, err := inject.Reconstruct(set, []byte("not a document")); !errors.Is(err, cfb.ErrInvalidContainer) {
		t.Errorf("got %v, want ErrInvalidContainer", err)
	}
}
