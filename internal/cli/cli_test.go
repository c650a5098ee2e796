package cli

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	hanparse "github.com/DevHeauk/han-parse"
	"github.com/DevHeauk/han-parse/bodytext"
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/record"
)

// writeSample builds a compressed document with one paragraph and a 1x2
// table, and writes it to a temp file.
func writeSample(t *testing.T) string {
	t.Helper()
	ctrl := make([]byte, 4)
	binary.LittleEndian.PutUint32(ctrl, record.CtrlIDTable)
	tbl := make([]byte, 8)
	binary.LittleEndian.PutUint16(tbl[4:], 1)
	binary.LittleEndian.PutUint16(tbl[6:], 2)
	cell := func(col int, text string) []record.Record {
		p := make([]byte, 34)
		binary.LittleEndian.PutUint16(p[8:], uint16(col))
		binary.LittleEndian.PutUint16(p[12:], 1)
		binary.LittleEndian.PutUint16(p[14:], 1)
		return []record.Record{
			{Tag: record.TagListHeader, Level: 2, Payload: p},
			{Tag: record.TagParaHeader, Level: 3, Payload: make([]byte, 22)},
			{Tag: record.TagParaText, Level: 4, Payload: bodytext.EncodeText(text)},
		}
	}

	recs := []record.Record{
		{Tag: record.TagParaHeader, Level: 0, Payload: make([]byte, 22)},
		{Tag: record.TagParaText, Level: 1, Payload: bodytext.EncodeText("hello document")},
		{Tag: record.TagParaHeader, Level: 0, Payload: make([]byte, 22)},
		{Tag: record.TagCtrlHeader, Level: 1, Payload: ctrl},
		{Tag: record.TagTable, Level: 2, Payload: tbl},
	}
	recs = append(recs, cell(0, "left")...)
	recs = append(recs, cell(1, "right")...)

	compressed, err := filters.Compress(record.Encode(recs))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	container := cfb.NewContainer()
	container.SetStream(hanparse.FileHeaderStream,
		hanparse.EncodeFileHeader(hanparse.FileHeader{Compressed: true}))
	container.SetStream(hanparse.BodyTextPrefix+"0", compressed)
	data, err := cfb.Write(container)
	if err != nil {
		t.Fatalf("cfb.Write: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sample.hwp")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTextCommand(t *testing.T) {
	path := writeSample(t)
	out, err := runCommand(t, "text", path)
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(out, "hello document") {
		t.Errorf("output: %q", out)
	}
}

func TestTablesCommandStructured(t *testing.T) {
	path := writeSample(t)
	out, err := runCommand(t, "tables", path)
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	for _, want := range []string{`"row_count": 1`, `"col_count": 2`, `"left"`, `"right"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestTablesCommandFlat(t *testing.T) {
	path := writeSample(t)
	dir := filepath.Join(t.TempDir(), "export")
	if _, err := runCommand(t, "tables", path, "--flat", "--out", dir); err != nil {
		t.Fatalf("tables --flat: %v", err)
	}
	csvData, err := os.ReadFile(filepath.Join(dir, "table_0000.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(csvData), "left,right") {
		t.Errorf("csv: %q", csvData)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.json")); err != nil {
		t.Errorf("index.json: %v", err)
	}
}

func TestEditCommand(t *testing.T) {
	path := writeSample(t)
	out := filepath.Join(t.TempDir(), "edited.hwp")
	if _, err := runCommand(t, "edit", path,
		"--table", "0", "--row", "0", "--col", "1", "--value", "changed", "--out", out); err != nil {
		t.Fatalf("edit: %v", err)
	}

	doc, err := hanparse.Open(out).Document()
	if err != nil {
		t.Fatalf("Parse edited: %v", err)
	}
	if got, _ := doc.Tables.Tables[0].Text(0, 1); got != "changed" {
		t.Errorf("cell (0,1) = %q", got)
	}
	if got, _ := doc.Tables.Tables[0].Text(0, 0); got != "left" {
		t.Errorf("cell (0,0) = %q", got)
	}
}

func TestReconstructCommand(t *testing.T) {
	path := writeSample(t)
	dir := t.TempDir()
	tablesPath := filepath.Join(dir, "tables.json")
	if _, err := runCommand(t, "tables", path, "--out", tablesPath); err != nil {
		t.Fatalf("tables: %v", err)
	}

	encoded, err := os.ReadFile(tablesPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	edited := strings.Replace(string(encoded), `"left"`, `"LEFT"`, 1)
	if err := os.WriteFile(tablesPath, []byte(edited), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out := filepath.Join(dir, "rebuilt.hwp")
	if _, err := runCommand(t, "reconstruct", tablesPath, path, "--out", out); err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	doc, err := hanparse.Open(out).Document()
	if err != nil {
		t.Fatalf("Parse rebuilt: %v", err)
	}
	if got, _ := doc.Tables.Tables[0].Text(0, 0); got != "LEFT" {
		t.Errorf("cell (0,0) = %q", got)
	}
}

func TestMergeCommand(t *testing.T) {
	path := writeSample(t)
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.json")
	if _, err := runCommand(t, "tables", path, "--out", aPath); err != nil {
		t.Fatalf("tables: %v", err)
	}

	out, err := runCommand(t, "merge", aPath, aPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got := strings.Count(out, `"row_count"`); got != 2 {
		t.Errorf("merged output has %d tables, want 2:\n%s", got, out)
	}
}

func TestCommandErrors(t *testing.T) {
	if _, err := runCommand(t, "text", "/no/such/file.hwp"); err == nil {
		t.Error("text: expected error")
	}
	if _, err := runCommand(t, "edit", writeSample(t),
		"--table", "9", "--value", "x"); err == nil {
		t.Error("edit: expected out-of-range error")
	}
}
