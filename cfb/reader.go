package cfb

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// signature is the 8-byte CFB magic.
var signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	headerSize   = 512
	dirEntrySize = 128

	sectorFree       = 0xFFFFFFFF
	sectorEndOfChain = 0xFFFFFFFE
	sectorFAT        = 0xFFFFFFFD
	sectorDIFAT      = 0xFFFFFFFC

	// Streams smaller than the cutoff live in the mini stream.
	miniStreamCutoff = 4096
	miniSectorSize   = 64

	typeUnused  = 0
	typeStorage = 1
	typeStream  = 2
	typeRoot    = 5

	noStream = 0xFFFFFFFF

	// Directory trees deeper than this are treated as corrupt.
	maxTreeDepth = 64
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// dirent is one parsed 128-byte directory entry.
type dirent struct {
	name    string
	objType byte
	left    uint32
	right   uint32
	child   uint32
	start   uint32
	size    uint64
}

type reader struct {
	data       []byte
	sectorSize int
	fat        []uint32
	miniFAT    []uint32
	miniStream []byte
	dirents    []dirent
}

// Read parses raw bytes as a compound container. It fails with an error
// wrapping ErrInvalidContainer when the signature or internal structure is
// inconsistent; it never reads outside the input buffer.
func Read(data []byte) (*Container, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short for a header", ErrInvalidContainer, len(data))
	}
	if !bytes.Equal(data[:8], signature) {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidContainer)
	}

	major := binary.LittleEndian.Uint16(data[26:])
	sectorShift := binary.LittleEndian.Uint16(data[30:])
	if sectorShift != 9 && sectorShift != 12 {
		return nil, fmt.Errorf("%w: sector shift %d", ErrInvalidContainer, sectorShift)
	}

	r := &reader{
		data:       data,
		sectorSize: 1 << sectorShift,
	}

	numFAT := binary.LittleEndian.Uint32(data[44:])
	firstDir := binary.LittleEndian.Uint32(data[48:])
	firstMiniFAT := binary.LittleEndian.Uint32(data[60:])
	numMiniFAT := binary.LittleEndian.Uint32(data[64:])
	firstDIFAT := binary.LittleEndian.Uint32(data[68:])
	numDIFAT := binary.LittleEndian.Uint32(data[72:])

	if err := r.loadFAT(numFAT, firstDIFAT, numDIFAT); err != nil {
		return nil, err
	}

	dirBytes, err := r.readChainAll(firstDir)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	if err := r.parseDirents(dirBytes, major); err != nil {
		return nil, err
	}
	if len(r.dirents) == 0 || r.dirents[0].objType != typeRoot {
		return nil, fmt.Errorf("%w: missing root entry", ErrInvalidContainer)
	}

	root := r.dirents[0]
	if root.size > 0 {
		r.miniStream, err = r.readChain(root.start, root.size)
		if err != nil {
			return nil, fmt.Errorf("mini stream: %w", err)
		}
	}
	if numMiniFAT > 0 {
		mfBytes, err := r.readChainAll(firstMiniFAT)
		if err != nil {
			return nil, fmt.Errorf("mini FAT: %w", err)
		}
		r.miniFAT = make([]uint32, len(mfBytes)/4)
		for i := range r.miniFAT {
			r.miniFAT[i] = binary.LittleEndian.Uint32(mfBytes[i*4:])
		}
	}

	cont := NewContainer()
	visited := make(map[uint32]bool)
	if err := r.walkTree(cont, root.child, "", visited, 0); err != nil {
		return nil, err
	}
	return cont, nil
}

// loadFAT collects the FAT sector ids from the header DIFAT array and any
// chained DIFAT sectors, then concatenates those sectors into the FAT.
func (r *reader) loadFAT(numFAT, firstDIFAT, numDIFAT uint32) error {
	var fatSectors []uint32
	for i := 0; i < 109; i++ {
		id := binary.LittleEndian.Uint32(r.data[76+i*4:])
		if id == sectorFree || id == sectorEndOfChain {
			continue
		}
		fatSectors = append(fatSectors, id)
	}

	perSector := r.sectorSize/4 - 1
	visited := make(map[uint32]bool)
	for sec, n := firstDIFAT, uint32(0); sec != sectorEndOfChain && sec != sectorFree; n++ {
		if n >= numDIFAT || visited[sec] {
			return fmt.Errorf("%w: DIFAT chain loop", ErrInvalidContainer)
		}
		visited[sec] = true
		b, err := r.sectorData(sec)
		if err != nil {
			return err
		}
		for i := 0; i < perSector; i++ {
			id := binary.LittleEndian.Uint32(b[i*4:])
			if id != sectorFree && id != sectorEndOfChain {
				fatSectors = append(fatSectors, id)
			}
		}
		sec = binary.LittleEndian.Uint32(b[perSector*4:])
	}

	if uint32(len(fatSectors)) < numFAT {
		return fmt.Errorf("%w: header claims %d FAT sectors, DIFAT lists %d", ErrInvalidContainer, numFAT, len(fatSectors))
	}
	fatSectors = fatSectors[:numFAT]

	r.fat = make([]uint32, 0, int(numFAT)*r.sectorSize/4)
	for _, id := range fatSectors {
		b, err := r.sectorData(id)
		if err != nil {
			return fmt.Errorf("FAT: %w", err)
		}
		for i := 0; i < r.sectorSize/4; i++ {
			r.fat = append(r.fat, binary.LittleEndian.Uint32(b[i*4:]))
		}
	}
	return nil
}

// sectorData returns the bytes of one sector, bounds-checked.
func (r *reader) sectorData(id uint32) ([]byte, error) {
	off := headerSize + int64(id)*int64(r.sectorSize)
	if off < headerSize || off >= int64(len(r.data)) {
		return nil, fmt.Errorf("%w: sector %d out of range", ErrInvalidContainer, id)
	}
	end := off + int64(r.sectorSize)
	if end > int64(len(r.data)) {
		// Tolerate a truncated final sector: pad with zeros.
		b := make([]byte, r.sectorSize)
		copy(b, r.data[off:])
		return b, nil
	}
	return r.data[off:end], nil
}

// readChain reads exactly size bytes by following a FAT sector chain.
func (r *reader) readChain(start uint32, size uint64) ([]byte, error) {
	if size == 0 || start == sectorEndOfChain || start == sectorFree {
		return nil, nil
	}
	out := make([]byte, 0, size)
	visited := make(map[uint32]bool)
	for sec := start; sec != sectorEndOfChain; {
		if sec >= uint32(len(r.fat)) {
			return nil, fmt.Errorf("%w: sector %d outside FAT", ErrInvalidContainer, sec)
		}
		if visited[sec] {
			return nil, fmt.Errorf("%w: sector chain loop at %d", ErrInvalidContainer, sec)
		}
		visited[sec] = true
		b, err := r.sectorData(sec)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		if uint64(len(out)) >= size {
			return out[:size], nil
		}
		sec = r.fat[sec]
	}
	return nil, fmt.Errorf("%w: chain ends before declared size %d", ErrInvalidContainer, size)
}

// readChainAll follows a chain to its end without a declared size.
func (r *reader) readChainAll(start uint32) ([]byte, error) {
	if start == sectorEndOfChain || start == sectorFree {
		return nil, nil
	}
	var out []byte
	visited := make(map[uint32]bool)
	for sec := start; sec != sectorEndOfChain; {
		if sec >= uint32(len(r.fat)) {
			return nil, fmt.Errorf("%w: sector %d outside FAT", ErrInvalidContainer, sec)
		}
		if visited[sec] {
			return nil, fmt.Errorf("%w: sector chain loop at %d", ErrInvalidContainer, sec)
		}
		visited[sec] = true
		b, err := r.sectorData(sec)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
		sec = r.fat[sec]
	}
	return out, nil
}

// readMiniChain reads size bytes from the mini stream via the mini FAT.
func (r *reader) readMiniChain(start uint32, size uint64) ([]byte, error) {
	if size == 0 || start == sectorEndOfChain || start == sectorFree {
		return nil, nil
	}
	out := make([]byte, 0, size)
	visited := make(map[uint32]bool)
	for sec := start; sec != sectorEndOfChain; {
		if sec >= uint32(len(r.miniFAT)) {
			return nil, fmt.Errorf("%w: mini sector %d outside mini FAT", ErrInvalidContainer, sec)
		}
		if visited[sec] {
			return nil, fmt.Errorf("%w: mini chain loop at %d", ErrInvalidContainer, sec)
		}
		visited[sec] = true
		off := int(sec) * miniSectorSize
		if off >= len(r.miniStream) {
			return nil, fmt.Errorf("%w: mini sector %d outside mini stream", ErrInvalidContainer, sec)
		}
		end := off + miniSectorSize
		if end > len(r.miniStream) {
			end = len(r.miniStream)
		}
		out = append(out, r.miniStream[off:end]...)
		if uint64(len(out)) >= size {
			return out[:size], nil
		}
		sec = r.miniFAT[sec]
	}
	return nil, fmt.Errorf("%w: mini chain ends before declared size %d", ErrInvalidContainer, size)
}

// parseDirents decodes the raw directory stream into directory entries.
func (r *reader) parseDirents(dirBytes []byte, major uint16) error {
	n := len(dirBytes) / dirEntrySize
	r.dirents = make([]dirent, 0, n)
	for i := 0; i < n; i++ {
		raw := dirBytes[i*dirEntrySize : (i+1)*dirEntrySize]
		var d dirent
		d.objType = raw[66]
		d.left = binary.LittleEndian.Uint32(raw[68:])
		d.right = binary.LittleEndian.Uint32(raw[72:])
		d.child = binary.LittleEndian.Uint32(raw[76:])
		d.start = binary.LittleEndian.Uint32(raw[116:])
		d.size = binary.LittleEndian.Uint64(raw[120:])
		if major == 3 {
			// v3 containers only use the low 32 bits of the size field.
			d.size &= 0xFFFFFFFF
		}

		nameLen := int(binary.LittleEndian.Uint16(raw[64:]))
		if d.objType != typeUnused && nameLen >= 2 && nameLen <= 64 {
			decoded, err := utf16le.NewDecoder().Bytes(raw[:nameLen-2])
			if err != nil {
				return fmt.Errorf("%w: entry %d name: %v", ErrInvalidContainer, i, err)
			}
			d.name = string(decoded)
		}
		r.dirents = append(r.dirents, d)
	}
	return nil
}

// walkTree traverses the sibling tree rooted at node in name order,
// collecting streams and descending into storages. The shared visited set
// and depth cap protect against cyclic directory graphs.
func (r *reader) walkTree(cont *Container, node uint32, prefix string, visited map[uint32]bool, depth int) error {
	if node == noStream {
		return nil
	}
	if depth > maxTreeDepth {
		return fmt.Errorf("%w: directory tree too deep", ErrInvalidContainer)
	}
	if node >= uint32(len(r.dirents)) {
		return fmt.Errorf("%w: directory entry %d out of range", ErrInvalidContainer, node)
	}
	if visited[node] {
		return fmt.Errorf("%w: directory tree loop at entry %d", ErrInvalidContainer, node)
	}
	visited[node] = true
	d := r.dirents[node]

	if err := r.walkTree(cont, d.left, prefix, visited, depth+1); err != nil {
		return err
	}

	switch d.objType {
	case typeStream:
		data, err := r.streamData(d)
		if err != nil {
			return fmt.Errorf("stream %q: %w", prefix+d.name, err)
		}
		cont.add(&Entry{Name: prefix + d.name, Data: data})
	case typeStorage:
		if err := r.walkTree(cont, d.child, prefix+d.name+"/", visited, depth+1); err != nil {
			return err
		}
	case typeUnused:
		// Entries with no storage are skipped, not an error.
	}

	return r.walkTree(cont, d.right, prefix, visited, depth+1)
}

// streamData reads a stream's content from the regular or mini FAT,
// depending on its size.
func (r *reader) streamData(d dirent) ([]byte, error) {
	if d.size == 0 {
		return []byte{}, nil
	}
	if d.size < miniStreamCutoff {
		return r.readMiniChain(d.start, d.size)
	}
	return r.readChain(d.start, d.size)
}
