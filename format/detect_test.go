package format

import (
	"archive/zip"
	"bytes"
	"testing"
)

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := f.Write([]byte("<x/>")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"compound container", append(cfbMagic, make([]byte, 8)...), HWP},
		{"owpml archive", nil, HWPX}, // filled below
		{"plain zip", nil, Unknown},  // filled below
		{"empty", nil, Unknown},
		{"short", []byte{0xD0, 0xCF}, Unknown},
		{"text", []byte("just some text here"), Unknown},
	}
	tests[1].data = zipWith(t, "mimetype", "Contents/section0.xml")
	tests[2].data = zipWith(t, "word/document.xml")

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDetectName(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"report.hwp", HWP},
		{"REPORT.HWP", HWP},
		{"doc.hwpx", HWPX},
		{"doc.docx", Unknown},
		{"noext", Unknown},
	}
	for _, tc := range tests {
		if got := DetectName(tc.filename); got != tc.want {
			t.Errorf("DetectName(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestDetectReader(t *testing.T) {
	got, err := DetectReader(bytes.NewReader(zipWith(t, "Contents/section0.xml")))
	if err != nil {
		t.Fatalf("DetectReader: %v", err)
	}
	if got != HWPX {
		t.Errorf("got %v, want HWPX", got)
	}
}
