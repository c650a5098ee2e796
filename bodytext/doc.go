// Package bodytext interprets decoded section record streams: paragraph
// text, the record tree, and embedded tables.
//
// [WalkSection] splits a section into paragraph text runs and raw table
// subtrees; [ExtractTable] turns a raw subtree into a [model.Table] grid.
// Paragraph text is UTF-16LE with inline control sequences, handled by
// [DecodeText] and [EncodeText].
package bodytext
