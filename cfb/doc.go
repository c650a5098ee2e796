// Package cfb reads and writes CFB (Compound File Binary, also known as
// OLE2) containers: single files holding a directory tree of named byte
// streams, which is the outer envelope of the HWP v5 document format.
//
// # Reading
//
// [Read] parses raw container bytes into a [Container]. Stream names are
// full paths through the storage tree, joined with "/":
//
//	cont, err := cfb.Read(data)
//	body, ok := cont.Stream("BodyText/Section0")
//
// The reader is defensive about untrusted input: a bad signature, a sector
// reference outside the allocated table, or a looping sector chain all fail
// with an error wrapping [ErrInvalidContainer] rather than crashing or
// reading out of bounds. Storage-only entries and zero-length streams are
// tolerated.
//
// # Writing
//
// [Write] serializes a Container back into a valid CFB file, rebuilding the
// FAT, mini-FAT, and directory tree from scratch. Together with
// [Container.SetStream] this is what allows patching a stream inside an
// existing document and re-emitting the whole container.
package cfb
