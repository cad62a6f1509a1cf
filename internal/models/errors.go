package models

import "errors"

var (
	ErrInvalidCommodity  = errors.New("invalid commodity id")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidDate       = errors.New("invalid date")
	ErrDuplicateMeta     = errors.New("duplicate commodity in metadata")
	ErrInvalidHorizon    = errors.New("invalid horizon")
	ErrSourceUnavailable = errors.New("source unavailable")
)
