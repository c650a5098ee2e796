package hanparse

import (
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/document"
)

// Stream names inside the compound container.
const (
	FileHeaderStream = document.FileHeaderStream
	BodyTextPrefix   = document.BodyTextPrefix
)

// Container-level types, re-exported so most callers never import the
// document package directly.
type (
	Version       = document.Version
	FileHeader    = document.FileHeader
	SectionStream = document.SectionStream
)

// ParseFileHeader reads the FileHeader stream. Encrypted and distribution
// documents cannot be decoded and are rejected with ErrUnsupportedFeature.
func ParseFileHeader(data []byte) (FileHeader, error) {
	return document.ParseFileHeader(data)
}

// EncodeFileHeader serializes a FileHeader back into a full-width stream.
func EncodeFileHeader(h FileHeader) []byte {
	return document.EncodeFileHeader(h)
}

// SectionStreams lists the body text section streams of a container in
// section number order.
func SectionStreams(c *cfb.Container) []SectionStream {
	return document.SectionStreams(c)
}
