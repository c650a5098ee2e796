// Package record decodes and encodes the tagged record stream that makes
// up HWP document sections.
//
// Every record starts with a packed 32-bit header carrying a tag id, a
// nesting level, and a payload size. Sizes that do not fit the 12-bit
// field are escaped with the value 0xFFF and carried in a following
// 32-bit word. [Decoder] walks a stream one record at a time:
//
//	dec := record.NewDecoder(data)
//	for dec.Next() {
//	    rec := dec.Record()
//	    // ...
//	}
//	if err := dec.Err(); err != nil {
//	    // truncated stream
//	}
//
// [Encode] writes records back in the same layout, so a decoded stream
// can be patched and re-serialized byte for byte.
package record
