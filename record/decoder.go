package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncatedRecord is returned when a record header declares more payload
// than the stream holds.
var ErrTruncatedRecord = errors.New("record: truncated record")

const (
	headerLen    = 4
	sizeEscape   = 0xFFF
	tagMask      = 0x3FF
	levelShift   = 10
	levelMask    = 0x3FF
	sizeShift    = 20
)

// Decoder reads records from a section stream one at a time, in the manner
// of bufio.Scanner: Next advances, Record returns the current record, and
// Err reports what stopped the iteration.
type Decoder struct {
	data []byte
	off  int
	cur  Record
	err  error
}

// NewDecoder returns a Decoder reading from data. The decoder does not copy
// data; record payloads alias it.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Reset discards the decoder's state and starts reading from data.
func (d *Decoder) Reset(data []byte) {
	d.data = data
	d.off = 0
	d.cur = Record{}
	d.err = nil
}

// Next advances to the next record. It returns false at the end of the
// stream or on error; the two cases are distinguished by Err.
func (d *Decoder) Next() bool {
	if d.err != nil {
		return false
	}
	rest := d.data[d.off:]

	// Writers pad sections to even sector boundaries with zero bytes, so a
	// short or all-zero tail is a clean end of stream.
	if len(rest) < headerLen {
		return false
	}
	header := binary.LittleEndian.Uint32(rest)
	if header == 0 {
		return false
	}

	tag := uint16(header & tagMask)
	level := int((header >> levelShift) & levelMask)
	size := int(header >> sizeShift)
	d.off += headerLen
	rest = rest[headerLen:]

	if size == sizeEscape {
		if len(rest) < 4 {
			d.err = fmt.Errorf("%w: tag %d at offset %d: missing extended size",
				ErrTruncatedRecord, tag, d.off-headerLen)
			return false
		}
		size = int(binary.LittleEndian.Uint32(rest))
		d.off += 4
		rest = rest[4:]
	}

	if size > len(rest) {
		d.err = fmt.Errorf("%w: tag %d at offset %d: payload %d bytes, %d remain",
			ErrTruncatedRecord, tag, d.off, size, len(rest))
		return false
	}

	d.cur = Record{Tag: tag, Level: level, Payload: rest[:size:size]}
	d.off += size
	return true
}

// Record returns the record read by the last successful call to Next.
func (d *Decoder) Record() Record {
	return d.cur
}

// Err returns the first error the decoder encountered, or nil if iteration
// ended at the end of the stream.
func (d *Decoder) Err() error {
	return d.err
}

// DecodeAll reads every record in data.
func DecodeAll(data []byte) ([]Record, error) {
	var recs []Record
	dec := NewDecoder(data)
	for dec.Next() {
		recs = append(recs, dec.Record())
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
