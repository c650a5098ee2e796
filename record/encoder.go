package record

import "encoding/binary"

// Encode serializes records back into the stream layout Decoder reads.
// Payloads of 0xFFF bytes or more use the extended size word.
func Encode(recs []Record) []byte {
	n := 0
	for _, r := range recs {
		n += headerLen + len(r.Payload)
		if len(r.Payload) >= sizeEscape {
			n += 4
		}
	}

	out := make([]byte, 0, n)
	var word [4]byte
	for _, r := range recs {
		size := len(r.Payload)
		header := uint32(r.Tag)&tagMask | (uint32(r.Level)&levelMask)<<levelShift
		if size >= sizeEscape {
			header |= sizeEscape << sizeShift
			binary.LittleEndian.PutUint32(word[:], header)
			out = append(out, word[:]...)
			binary.LittleEndian.PutUint32(word[:], uint32(size))
			out = append(out, word[:]...)
		} else {
			header |= uint32(size) << sizeShift
			binary.LittleEndian.PutUint32(word[:], header)
			out = append(out, word[:]...)
		}
		out = append(out, r.Payload...)
	}
	return out
}
