package hanparse

import (
	"github.com/DevHeauk/han-parse/cfb"
	"github.com/DevHeauk/han-parse/internal/filters"
	"github.com/DevHeauk/han-parse/model"
	"github.com/DevHeauk/han-parse/record"
)

// Sentinel errors from the lower-level packages, re-exported so callers of
// the root API can match them without extra imports.
var (
	ErrInvalidContainer   = cfb.ErrInvalidContainer
	ErrCorruptStream      = filters.ErrCorruptStream
	ErrUnsupportedFeature = filters.ErrUnsupportedFeature
	ErrTruncatedRecord    = record.ErrTruncatedRecord
	ErrIndexOutOfRange    = model.ErrIndexOutOfRange
	ErrShapeMismatch      = model.ErrShapeMismatch
)
