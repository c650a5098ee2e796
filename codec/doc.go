// Package codec serializes table sets into their two interchange forms.
//
// The structured form is a single JSON document that captures the full
// grid, including merge geometry, and round-trips losslessly through
// [EncodeStructured] and [DecodeStructured].
//
// The flat form is a file set: one CSV per table holding the text grid,
// plus an index.json carrying the location and merge geometry CSV cannot
// express. [EncodeFlat] and [DecodeFlat] round-trip losslessly as a pair;
// the CSVs alone are deliberately plain so spreadsheet tools can edit them.
package codec
