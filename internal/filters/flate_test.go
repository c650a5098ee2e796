package filters

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompressDecompress(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short text", []byte("hello, world")},
		{"repetitive", bytes.Repeat([]byte("chunk "), 2000)},
		{"binary", func() []byte {
			b := make([]byte, 1024)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := Compress(tc.data)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			got, err := Decompress(compressed, len(tc.data))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, tc.data) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(tc.data))
			}
		})
	}
}

func TestDecompressUnknownSize(t *testing.T) {
	data := []byte("declared size not known ahead of time")
	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(compressed, -1)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %q", got)
	}
}

func TestDecompressCorrupt(t *testing.T) {
	compressed, err := Compress(bytes.Repeat([]byte("payload"), 100))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	truncated := compressed[:len(compressed)/2]
	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01, 0x02}

	tests := []struct {
		name     string
		data     []byte
		expected int
	}{
		{"truncated", truncated, 700},
		{"garbage", garbage, -1},
		{"size mismatch", compressed, 699},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decompress(tc.data, tc.expected); !errors.Is(err, ErrCorruptStream) {
				t.Errorf("got %v, want ErrCorruptStream", err)
			}
		})
	}
}
