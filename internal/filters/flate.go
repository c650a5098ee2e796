package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

var (
	// ErrCorruptStream is returned when compressed data cannot be inflated
	// or disagrees with its declared size.
	ErrCorruptStream = errors.New("filters: corrupt stream")

	// ErrUnsupportedFeature is returned for streams stored with an
	// encoding this package does not handle, such as encrypted bodies.
	ErrUnsupportedFeature = errors.New("filters: unsupported feature")
)

// Decompress inflates raw DEFLATE data. If expected is non-negative, the
// decompressed length must match it exactly; pass a negative value when the
// size is unknown. Trailing bytes after the DEFLATE terminator are ignored,
// as real-world writers pad streams to even boundaries.
func Decompress(data []byte, expected int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	var buf bytes.Buffer
	if expected >= 0 {
		buf.Grow(expected)
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	if expected >= 0 && buf.Len() != expected {
		return nil, fmt.Errorf("%w: decompressed %d bytes, declared %d",
			ErrCorruptStream, buf.Len(), expected)
	}
	return buf.Bytes(), nil
}

// Compress deflates data with no zlib framing, matching the encoding
// Decompress expects.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
