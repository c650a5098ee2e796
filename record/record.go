package record

import "encoding/binary"

// Tag ids used by body text sections. The numbering starts at the section
// tag base (0x010); only the tags this module inspects are named.
const (
	TagParaHeader    = 66
	TagParaText      = 67
	TagParaCharShape = 68
	TagParaLineSeg   = 69
	TagParaRangeTag  = 70
	TagCtrlHeader    = 71
	TagListHeader    = 72
	TagPageDef       = 73
	TagFootnoteShape = 74
	TagPageBorder    = 75
	TagShapeComp     = 76
	TagTable         = 77
)

// CtrlIDTable identifies a table control inside a TagCtrlHeader payload.
// Control ids are four ASCII bytes packed big-endian, here "tbl ".
const CtrlIDTable = 0x74626C20

// Record is one tagged unit of a section stream. Level gives the nesting
// depth relative to the paragraph tree; Payload aliases the decoder's input
// buffer and must be copied before the buffer is reused.
type Record struct {
	Tag     uint16
	Level   int
	Payload []byte
}

// CtrlID reads the control id from a TagCtrlHeader payload. It returns 0
// when the payload is too short to carry one.
func (r Record) CtrlID() uint32 {
	if r.Tag != TagCtrlHeader || len(r.Payload) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(r.Payload)
}
