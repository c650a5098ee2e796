// Package format provides document format detection for HWP documents.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// HWP indicates a binary HWP document in a compound container.
	HWP
	// HWPX indicates an OWPML (.hwpx) document, a ZIP archive of XML parts.
	HWPX
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case HWP:
		return "HWP"
	case HWPX:
		return "HWPX"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case HWP:
		return ".hwp"
	case HWPX:
		return ".hwpx"
	default:
		return ""
	}
}

// compound container magic, shared with the binary document reader.
var cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// zip local file header magic.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// DetectName determines the format from a filename extension.
func DetectName(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hwp":
		return HWP
	case ".hwpx":
		return HWPX
	default:
		return Unknown
	}
}

// Detect determines the format from file content. A compound container is
// HWP; a ZIP archive is HWPX only when it carries the Contents/ section
// parts, since other ZIP-based document formats share the same magic.
func Detect(data []byte) Format {
	if len(data) < 8 {
		return Unknown
	}
	if bytes.Equal(data[:8], cfbMagic) {
		return HWP
	}
	if bytes.Equal(data[:4], zipMagic) && hasOWPMLParts(data) {
		return HWPX
	}
	return Unknown
}

// DetectReader consumes r and detects the format of its content. The whole
// reader is read because ZIP central directories live at the end of the
// archive.
func DetectReader(r io.Reader) (Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Unknown, err
	}
	return Detect(data), nil
}

func hasOWPMLParts(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "Contents/") {
			return true
		}
	}
	return false
}
