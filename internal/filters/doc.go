// Package filters implements the stream compression used inside HWP
// compound containers.
//
// Body text and document info streams are stored as raw DEFLATE data with
// no zlib or gzip framing. [Decompress] inflates such a stream and
// optionally checks the decompressed length against the size the file
// header declares; [Compress] is its inverse. Corrupt input is reported
// by wrapping [ErrCorruptStream].
package filters
