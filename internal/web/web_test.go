package web

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	hanparse "github.com/DevHeauk/han-parse"
	"github.com/DevHeauk/han-parse/bodytext"
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/record"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	srv, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

// buildHWP assembles a compressed document with one 2x2 table.
func buildHWP(t *testing.T) []byte {
	t.Helper()
	cell := func(row, col int, text string) []record.Record {
		p := make([]byte, 34)
		binary.LittleEndian.PutUint16(p[8:], uint16(col))
		binary.LittleEndian.PutUint16(p[10:], uint16(row))
		binary.LittleEndian.PutUint16(p[12:], 1)
		binary.LittleEndian.PutUint16(p[14:], 1)
		return []record.Record{
			{Tag: record.TagListHeader, Level: 2, Payload: p},
			{Tag: record.TagParaHeader, Level: 3, Payload: make([]byte, 22)},
			{Tag: record.TagParaText, Level: 4, Payload: bodytext.EncodeText(text)},
		}
	}
	ctrl := make([]byte, 4)
	binary.LittleEndian.PutUint32(ctrl, record.CtrlIDTable)
	tbl := make([]byte, 8)
	binary.LittleEndian.PutUint16(tbl[4:], 2)
	binary.LittleEndian.PutUint16(tbl[6:], 2)

	recs := []record.Record{
		{Tag: record.TagParaHeader, Level: 0, Payload: make([]byte, 22)},
		{Tag: record.TagCtrlHeader, Level: 1, Payload: ctrl},
		{Tag: record.TagTable, Level: 2, Payload: tbl},
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			recs = append(recs, cell(r, c, "old")...)
		}
	}

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
	return data
}

func upload(t *testing.T, handler http.Handler, filename string, data []byte) uploadResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body)
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return resp
}

func TestUploadAndGetTables(t *testing.T) {
	handler := newTestServer(t).Router()
	resp := upload(t, handler, "sample.hwp", buildHWP(t))

	if resp.Format != "HWP" || resp.TableCount != 1 {
		t.Errorf("upload response: %+v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tables/"+resp.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"row_count": 2`) {
		t.Errorf("tables body: %s", rec.Body)
	}
}

func TestUploadRejectsGarbage(t *testing.T) {
	handler := newTestServer(t).Router()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "junk.bin")
	fw.Write([]byte("garbage data"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", rec.Code)
	}
}

func TestEditAndDownload(t *testing.T) {
	handler := newTestServer(t).Router()
	resp := upload(t, handler, "sample.hwp", buildHWP(t))

	edit := `{"table":0,"row":1,"col":1,"value":"edited"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tables/"+resp.ID+"/edit", strings.NewReader(edit))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("edit status %d: %s", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/download/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status %d: %s", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "sample.hwp") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	doc, err := hanparse.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("Parse download: %v", err)
	}
	if got, _ := doc.Tables.Tables[0].Text(1, 1); got != "edited" {
		t.Errorf("cell (1,1) = %q, want %q", got, "edited")
	}
	if got, _ := doc.Tables.Tables[0].Text(0, 0); got != "old" {
		t.Errorf("cell (0,0) = %q, want %q", got, "old")
	}
}

func TestEditOutOfRange(t *testing.T) {
	handler := newTestServer(t).Router()
	resp := upload(t, handler, "sample.hwp", buildHWP(t))

	edit := `{"table":5,"row":0,"col":0,"value":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tables/"+resp.ID+"/edit", strings.NewReader(edit))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", rec.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	handler := newTestServer(t).Router()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/tables/nope"},
		{http.MethodPost, "/api/download/nope"},
		{http.MethodDelete, "/api/tables/nope"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	handler := newTestServer(t).Router()
	resp := upload(t, handler, "sample.hwp", buildHWP(t))

	req := httptest.NewRequest(http.MethodDelete, "/api/tables/"+resp.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tables/"+resp.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d after delete, want 404", rec.Code)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9999\"\nsession_ttl: 2h\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.SessionTTL != Duration(2*time.Hour) {
		t.Errorf("ttl = %v", cfg.SessionTTL)
	}
	// Unset fields fall back to defaults.
	if cfg.MaxUploadBytes != DefaultConfig().MaxUploadBytes {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
