// Package hwpx reads and patches OWPML (.hwpx) documents, the ZIP-of-XML
// sibling of the binary HWP format.
//
// [Parse] extracts paragraph text and tables from the Contents/ section
// parts. [Patch] writes an edited table set back into an existing archive
// by splicing new cell text into the section XML, leaving every other
// byte of the document untouched.
package hwpx
