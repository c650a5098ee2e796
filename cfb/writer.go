package cfb

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

const (
	writeSectorSize     = 512
	fatEntriesPerSector = writeSectorSize / 4       // 128
	difatEntriesPer     = fatEntriesPerSector - 1   // 127, last slot chains
)

// treeNode is one storage or stream while assembling the directory tree.
type treeNode struct {
	name     string
	isStream bool
	data     []byte
	children map[string]*treeNode
	order    []string

	id    uint32
	start uint32
	size  uint64
}

// Write serializes the container into CFB bytes (512-byte sectors, format
// version 3). The FAT, mini FAT, DIFAT, and directory tree are rebuilt from
// scratch, so the result is valid regardless of how stream sizes changed
// since the container was read.
func Write(c *Container) ([]byte, error) {
	root := &treeNode{children: make(map[string]*treeNode)}
	for _, e := range c.Entries() {
		if err := insertNode(root, e); err != nil {
			return nil, err
		}
	}

	w := &writer{}
	w.collect(root)
	return w.assemble(root)
}

// insertNode places entry e into the storage tree, creating intermediate
// storages as needed.
func insertNode(root *treeNode, e *Entry) error {
	parts := strings.Split(e.Name, "/")
	node := root
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("%w: empty path component in %q", ErrInvalidContainer, e.Name)
		}
		last := i == len(parts)-1
		child, ok := node.children[part]
		if !ok {
			child = &treeNode{name: part, children: make(map[string]*treeNode)}
			node.children[part] = child
			node.order = append(node.order, part)
		}
		if last {
			if child.isStream || len(child.children) > 0 {
				return fmt.Errorf("%w: duplicate entry %q", ErrInvalidContainer, e.Name)
			}
			child.isStream = true
			child.data = e.Data
			child.size = uint64(len(e.Data))
		} else if child.isStream {
			return fmt.Errorf("%w: %q is both stream and storage", ErrInvalidContainer, e.Name)
		}
		node = child
	}
	return nil
}

type writer struct {
	nodes       []*treeNode // directory order: root first
	miniStreams []*treeNode
	bigStreams  []*treeNode
}

// collect assigns directory entry ids breadth-first and partitions streams
// into mini-stream and regular-FAT residents.
func (w *writer) collect(root *treeNode) {
	queue := []*treeNode{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		node.id = uint32(len(w.nodes))
		w.nodes = append(w.nodes, node)
		for _, name := range sortedChildNames(node) {
			queue = append(queue, node.children[name])
		}
	}
	for _, n := range w.nodes[1:] {
		if !n.isStream || n.size == 0 {
			continue
		}
		if n.size < miniStreamCutoff {
			w.miniStreams = append(w.miniStreams, n)
		} else {
			w.bigStreams = append(w.bigStreams, n)
		}
	}
}

// sortedChildNames orders siblings the way the directory tree requires:
// shorter names first, ties broken by case-insensitive comparison.
func sortedChildNames(node *treeNode) []string {
	names := append([]string(nil), node.order...)
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToUpper(names[i]), strings.ToUpper(names[j])
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return names
}

func (w *writer) assemble(root *treeNode) ([]byte, error) {
	// Mini stream: concatenate small streams, each padded to a mini sector,
	// and build the mini FAT as runs of consecutive sectors.
	var miniStream []byte
	var miniFAT []uint32
	for _, n := range w.miniStreams {
		n.start = uint32(len(miniFAT))
		count := int((n.size + miniSectorSize - 1) / miniSectorSize)
		for i := 0; i < count-1; i++ {
			miniFAT = append(miniFAT, uint32(len(miniFAT))+1)
		}
		miniFAT = append(miniFAT, sectorEndOfChain)
		miniStream = append(miniStream, n.data...)
		if pad := count*miniSectorSize - int(n.size); pad > 0 {
			miniStream = append(miniStream, make([]byte, pad)...)
		}
	}

	// Sector counts for everything except the FAT/DIFAT themselves.
	dirEntries := len(w.nodes)
	entriesPerSector := writeSectorSize / dirEntrySize
	dirSectors := (dirEntries + entriesPerSector - 1) / entriesPerSector
	if dirSectors == 0 {
		dirSectors = 1
	}
	miniFATSectors := (len(miniFAT)*4 + writeSectorSize - 1) / writeSectorSize
	miniStreamSectors := (len(miniStream) + writeSectorSize - 1) / writeSectorSize
	dataSectors := dirSectors + miniFATSectors + miniStreamSectors
	for _, n := range w.bigStreams {
		dataSectors += int((n.size + writeSectorSize - 1) / writeSectorSize)
	}

	// The FAT covers every sector including its own and the DIFAT's, so the
	// counts are mutually dependent; iterate to a fixed point.
	numFAT, numDIFAT := 0, 0
	for {
		total := dataSectors + numFAT + numDIFAT
		nextFAT := (total + fatEntriesPerSector - 1) / fatEntriesPerSector
		nextDIFAT := 0
		if nextFAT > 109 {
			nextDIFAT = (nextFAT - 109 + difatEntriesPer - 1) / difatEntriesPer
		}
		if nextFAT == numFAT && nextDIFAT == numDIFAT {
			break
		}
		numFAT, numDIFAT = nextFAT, nextDIFAT
	}

	// Sector id layout: DIFAT, FAT, directory, mini FAT, mini stream,
	// regular streams.
	next := uint32(0)
	alloc := func(n int) uint32 {
		first := next
		next += uint32(n)
		return first
	}
	difatFirst := alloc(numDIFAT)
	fatFirst := alloc(numFAT)
	dirFirst := alloc(dirSectors)
	miniFATFirst := alloc(miniFATSectors)
	miniStreamFirst := alloc(miniStreamSectors)
	for _, n := range w.bigStreams {
		n.start = alloc(int((n.size + writeSectorSize - 1) / writeSectorSize))
	}
	totalSectors := int(next)

	// Build the FAT.
	fat := make([]uint32, numFAT*fatEntriesPerSector)
	for i := range fat {
		fat[i] = sectorFree
	}
	for i := 0; i < numDIFAT; i++ {
		fat[difatFirst+uint32(i)] = sectorDIFAT
	}
	for i := 0; i < numFAT; i++ {
		fat[fatFirst+uint32(i)] = sectorFAT
	}
	chain := func(first uint32, count int) {
		for i := 0; i < count-1; i++ {
			fat[first+uint32(i)] = first + uint32(i) + 1
		}
		if count > 0 {
			fat[first+uint32(count-1)] = sectorEndOfChain
		}
	}
	chain(dirFirst, dirSectors)
	chain(miniFATFirst, miniFATSectors)
	chain(miniStreamFirst, miniStreamSectors)
	for _, n := range w.bigStreams {
		chain(n.start, int((n.size+writeSectorSize-1)/writeSectorSize))
	}

	// Root entry describes the mini stream.
	root.size = uint64(len(miniStream))
	if miniStreamSectors > 0 {
		root.start = miniStreamFirst
	} else {
		root.start = sectorEndOfChain
	}

	dirBytes, err := w.encodeDirectory(root, dirSectors)
	if err != nil {
		return nil, err
	}

	// Header.
	out := make([]byte, headerSize, headerSize+totalSectors*writeSectorSize)
	copy(out, signature)
	binary.LittleEndian.PutUint16(out[24:], 0x003E) // minor version
	binary.LittleEndian.PutUint16(out[26:], 3)      // major version
	binary.LittleEndian.PutUint16(out[28:], 0xFFFE) // byte order
	binary.LittleEndian.PutUint16(out[30:], 9)      // sector shift
	binary.LittleEndian.PutUint16(out[32:], 6)      // mini sector shift
	binary.LittleEndian.PutUint32(out[44:], uint32(numFAT))
	binary.LittleEndian.PutUint32(out[48:], dirFirst)
	binary.LittleEndian.PutUint32(out[56:], miniStreamCutoff)
	if miniFATSectors > 0 {
		binary.LittleEndian.PutUint32(out[60:], miniFATFirst)
	} else {
		binary.LittleEndian.PutUint32(out[60:], sectorEndOfChain)
	}
	binary.LittleEndian.PutUint32(out[64:], uint32(miniFATSectors))
	if numDIFAT > 0 {
		binary.LittleEndian.PutUint32(out[68:], difatFirst)
	} else {
		binary.LittleEndian.PutUint32(out[68:], sectorEndOfChain)
	}
	binary.LittleEndian.PutUint32(out[72:], uint32(numDIFAT))
	for i := 0; i < 109; i++ {
		id := uint32(sectorFree)
		if i < numFAT {
			id = fatFirst + uint32(i)
		}
		binary.LittleEndian.PutUint32(out[76+i*4:], id)
	}

	// DIFAT sectors carry FAT sector ids beyond the header's 109.
	for s := 0; s < numDIFAT; s++ {
		sec := make([]byte, writeSectorSize)
		for i := 0; i < difatEntriesPer; i++ {
			idx := 109 + s*difatEntriesPer + i
			id := uint32(sectorFree)
			if idx < numFAT {
				id = fatFirst + uint32(idx)
			}
			binary.LittleEndian.PutUint32(sec[i*4:], id)
		}
		nextDIFAT := uint32(sectorEndOfChain)
		if s < numDIFAT-1 {
			nextDIFAT = difatFirst + uint32(s) + 1
		}
		binary.LittleEndian.PutUint32(sec[difatEntriesPer*4:], nextDIFAT)
		out = append(out, sec...)
	}

	// FAT sectors.
	fatBytes := make([]byte, len(fat)*4)
	for i, v := range fat {
		binary.LittleEndian.PutUint32(fatBytes[i*4:], v)
	}
	out = append(out, fatBytes...)

	out = append(out, dirBytes...)

	// Mini FAT sectors.
	miniFATBytes := make([]byte, miniFATSectors*writeSectorSize)
	for i, v := range miniFAT {
		binary.LittleEndian.PutUint32(miniFATBytes[i*4:], v)
	}
	for i := len(miniFAT) * 4; i+4 <= len(miniFATBytes); i += 4 {
		binary.LittleEndian.PutUint32(miniFATBytes[i:], sectorFree)
	}
	out = append(out, miniFATBytes...)

	// Mini stream, padded to a full sector.
	out = append(out, miniStream...)
	if pad := miniStreamSectors*writeSectorSize - len(miniStream); pad > 0 {
		out = append(out, make([]byte, pad)...)
	}

	// Regular streams.
	for _, n := range w.bigStreams {
		out = append(out, n.data...)
		if pad := int((n.size+writeSectorSize-1)/writeSectorSize*writeSectorSize - n.size); pad > 0 {
			out = append(out, make([]byte, pad)...)
		}
	}

	return out, nil
}

// encodeDirectory serializes all directory entries, building a balanced
// sibling tree for each storage's children.
func (w *writer) encodeDirectory(root *treeNode, dirSectors int) ([]byte, error) {
	type links struct {
		left, right, child uint32
	}
	lk := make([]links, len(w.nodes))
	for i := range lk {
		lk[i] = links{left: noStream, right: noStream, child: noStream}
	}

	var buildSiblings func(node *treeNode) error
	buildSiblings = func(node *treeNode) error {
		names := sortedChildNames(node)
		ids := make([]uint32, len(names))
		for i, name := range names {
			ids[i] = node.children[name].id
		}
		var bst func(ids []uint32) uint32
		bst = func(ids []uint32) uint32 {
			if len(ids) == 0 {
				return noStream
			}
			mid := len(ids) / 2
			id := ids[mid]
			lk[id].left = bst(ids[:mid])
			lk[id].right = bst(ids[mid+1:])
			return id
		}
		lk[node.id].child = bst(ids)
		for _, name := range names {
			if err := buildSiblings(node.children[name]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := buildSiblings(root); err != nil {
		return nil, err
	}

	entriesPerSector := writeSectorSize / dirEntrySize
	buf := make([]byte, dirSectors*entriesPerSector*dirEntrySize)
	// Unused padding entries have left/right/child set to noStream.
	for i := len(w.nodes); i < dirSectors*entriesPerSector; i++ {
		off := i * dirEntrySize
		binary.LittleEndian.PutUint32(buf[off+68:], noStream)
		binary.LittleEndian.PutUint32(buf[off+72:], noStream)
		binary.LittleEndian.PutUint32(buf[off+76:], noStream)
	}

	for _, n := range w.nodes {
		off := int(n.id) * dirEntrySize
		ent := buf[off : off+dirEntrySize]

		name := n.name
		objType := byte(typeStorage)
		switch {
		case n.id == 0:
			name = "Root Entry"
			objType = typeRoot
		case n.isStream:
			objType = typeStream
		}

		encoded, err := utf16le.NewEncoder().Bytes([]byte(name))
		if err != nil || len(encoded) > 62 {
			return nil, fmt.Errorf("%w: entry name %q not encodable", ErrInvalidContainer, name)
		}
		copy(ent, encoded)
		binary.LittleEndian.PutUint16(ent[64:], uint16(len(encoded)+2))
		ent[66] = objType
		ent[67] = 1 // black
		binary.LittleEndian.PutUint32(ent[68:], lk[n.id].left)
		binary.LittleEndian.PutUint32(ent[72:], lk[n.id].right)
		binary.LittleEndian.PutUint32(ent[76:], lk[n.id].child)

		start := uint32(sectorEndOfChain)
		size := uint64(0)
		if n.id == 0 || (n.isStream && n.size > 0) {
			start = n.start
			size = n.size
		}
		if n.id == 0 && n.size == 0 {
			start = sectorEndOfChain
		}
		binary.LittleEndian.PutUint32(ent[116:], start)
		binary.LittleEndian.PutUint64(ent[120:], size)
	}

	return buf, nil
}
