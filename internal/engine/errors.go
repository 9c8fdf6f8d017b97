package engine

import "errors"

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrEmptyOptions     = errors.New("empty options")
	ErrMissingColumn    = errors.New("missing column")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownChartKind = errors.New("unknown chart kind")
	ErrCycle            = errors.New("dependency cycle")
)
