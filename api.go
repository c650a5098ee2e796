package hanparse

import (
	"github.com/DevHeauk/han-parse/codec"
	"github.com/DevHeauk/han-parse/format"
	"github.com/DevHeauk/han-parse/hwpx"
	"github.com/DevHeauk/han-parse/inject"
	"github.com/DevHeauk/han-parse/model"
)

// EncodeStructured serializes a table set to its structured JSON form.
func EncodeStructured(set *model.TableSet) ([]byte, error) {
	return codec.EncodeStructured(set)
}

// DecodeStructured parses the structured JSON form back into a table set.
func DecodeStructured(data []byte) (*model.TableSet, error) {
	return codec.DecodeStructured(data)
}

// EncodeFlat serializes a table set to its flat form: one CSV file per
// table plus an index file, keyed by file name.
func EncodeFlat(set *model.TableSet) (map[string][]byte, error) {
	return codec.EncodeFlat(set)
}

// DecodeFlat parses the flat form back into a table set.
func DecodeFlat(files map[string][]byte) (*model.TableSet, error) {
	return codec.DecodeFlat(files)
}

// Edit sets the text of one cell. Edits to a position covered by a merge
// are redirected to the merge's origin cell.
func Edit(set *model.TableSet, table, row, col int, text string) error {
	return set.Edit(table, row, col, text)
}

// Merge concatenates two table sets, a's tables first. Both inputs are
// left untouched.
func Merge(a, b *model.TableSet) *model.TableSet {
	return model.Merge(a, b)
}

// Reconstruct writes the table set's text back into a template document,
// detecting whether the template is HWP or HWPX. The template's structure
// is preserved; only cell text changes.
func Reconstruct(set *model.TableSet, template []byte) ([]byte, error) {
	if format.Detect(template) == format.HWPX {
		return hwpx.Patch(template, set)
	}
	return inject.Reconstruct(set, template)
}
