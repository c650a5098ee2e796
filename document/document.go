// Package document holds the container-level properties of an HWP file:
// the FileHeader stream and the body text stream naming rules. Both the
// parser and the injector read these, so they live below either.
package document

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/internal/filters"
)

// Stream names inside the compound container.
const (
	FileHeaderStream = "FileHeader"
	BodyTextPrefix   = "BodyText/Section"
)

// fileHeaderSize is the fixed size of the FileHeader stream.
const fileHeaderSize = 256

// headerSignature fills the first 32 bytes of the FileHeader stream; the
// text is zero-padded to the full width.
var headerSignature = "HWP Document File"

// Header flag bits.
const (
	flagCompressed   = 1 << 0
	flagEncrypted    = 1 << 1
	flagDistribution = 1 << 2
)

// Version is the document format version, packed major-to-revision from
// the high byte down.
type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// FileHeader carries the document-wide properties the parser needs.
type FileHeader struct {
	Version      Version
	Compressed   bool
	Encrypted    bool
	Distribution bool
}

// ParseFileHeader reads the FileHeader stream. Encrypted and distribution
// documents cannot be decoded and are rejected with ErrUnsupportedFeature.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < 40 {
		return FileHeader{}, fmt.Errorf("%w: file header is %d bytes", cfb.ErrInvalidContainer, len(data))
	}
	sig := data[:32]
	if string(sig[:len(headerSignature)]) != headerSignature {
		return FileHeader{}, fmt.Errorf("%w: bad file header signature", cfb.ErrInvalidContainer)
	}

	flags := binary.LittleEndian.Uint32(data[36:])
	h := FileHeader{
		Version:      Version(binary.LittleEndian.Uint32(data[32:])),
		Compressed:   flags&flagCompressed != 0,
		Encrypted:    flags&flagEncrypted != 0,
		Distribution: flags&flagDistribution != 0,
	}
	if h.Encrypted {
		return h, fmt.Errorf("%w: encrypted document", filters.ErrUnsupportedFeature)
	}
	if h.Distribution {
		return h, fmt.Errorf("%w: distribution document", filters.ErrUnsupportedFeature)
	}
	return h, nil
}

// EncodeFileHeader serializes a FileHeader back into a full-width stream.
func EncodeFileHeader(h FileHeader) []byte {
	data := make([]byte, fileHeaderSize)
	copy(data, headerSignature)
	binary.LittleEndian.PutUint32(data[32:], uint32(h.Version))
	var flags uint32
	if h.Compressed {
		flags |= flagCompressed
	}
	if h.Encrypted {
		flags |= flagEncrypted
	}
	if h.Distribution {
		flags |= flagDistribution
	}
	binary.LittleEndian.PutUint32(data[36:], flags)
	return data
}

// SectionStream locates one body text stream within a container.
type SectionStream struct {
	Name  string
	Index int
}

// SectionStreams lists the body text section streams of a container in
// section number order.
func SectionStreams(c *cfb.Container) []SectionStream {
	var sections []SectionStream
	for _, name := range c.StreamNames(BodyTextPrefix) {
		idx, err := strconv.Atoi(strings.TrimPrefix(name, BodyTextPrefix))
		if err != nil {
			continue
		}
		sections = append(sections, SectionStream{Name: name, Index: idx})
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Index < sections[j].Index })
	return sections
}
