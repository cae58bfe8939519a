package srs

import "errors"

// Use errors.Is to check: errors.Is(err, srs.ErrInvalidQuality)
var (
	ErrInvalidQuality = errors.New("srs: quality must be between 0 and 5")
	ErrInvalidState   = errors.New("srs: invalid review state")
)
