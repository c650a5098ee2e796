package bodytext

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// Control codes embedded in paragraph text. Extended and inline controls
// carry 14 bytes of payload after the code unit, so the whole sequence is
// eight code units wide.
var (
	extendedControls = map[uint16]bool{
		1: true, 2: true, 3: true, 11: true, 12: true, 14: true, 15: true,
		16: true, 17: true, 18: true, 21: true, 22: true, 23: true,
	}
	inlineControls = map[uint16]bool{
		4: true, 5: true, 6: true, 7: true, 8: true, 19: true, 20: true,
	}
)

const controlWidth = 8 // code units, including the leading code

// DecodeText converts a paragraph text payload (UTF-16LE with embedded
// controls) into plain text. Extended and inline control sequences are
// dropped; character controls map to their plain equivalents: tab to '\t',
// line break to '\n', hyphen to '-', fixed and non-breaking spaces to ' '.
// The paragraph terminator and any remaining controls are dropped.
func DecodeText(payload []byte) string {
	units := make([]uint16, len(payload)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(payload[i*2:])
	}

	var out []uint16
	for i := 0; i < len(units); {
		u := units[i]
		switch {
		case extendedControls[u] || inlineControls[u]:
			i += controlWidth
		case u >= 32:
			out = append(out, u)
			i++
		default:
			switch u {
			case 9:
				out = append(out, '\t')
			case 10:
				out = append(out, '\n')
			case 24:
				out = append(out, '-')
			case 30, 31:
				out = append(out, ' ')
			}
			// 13 ends the paragraph; the rest carry no text.
			i++
		}
	}
	return string(utf16.Decode(out))
}

// EncodeText converts plain text into a paragraph text payload. Newlines
// become line-break controls; the paragraph terminator is not appended, as
// the paragraph header's character count excludes it in the streams this
// module writes.
func EncodeText(text string) []byte {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	units := utf16.Encode([]rune(text))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		if u == '\n' {
			u = 10
		}
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}
