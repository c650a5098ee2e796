// Package model defines the document structures shared across the module:
// text runs, tables, cells, and table sets.
//
// A [Table] is a fully materialized rectangular grid. Merged regions keep
// one anchor cell holding the text and spans; every other position the
// merge covers is a placeholder pointing back at the anchor, so addressing
// any covered position resolves to the anchor:
//
//	t := model.NewTable(3, 3)
//	t.SetSpan(0, 0, 2, 2)
//	t.SetText(1, 1, "merged") // lands on the (0,0) anchor
//
// A [TableSet] is an ordered collection of tables as extracted from a
// document, with editing and merging operations on top.
package model
