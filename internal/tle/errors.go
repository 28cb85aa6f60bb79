package tle

import "errors"

var (
	// ErrRecordNotFound is returned by Store.Get for unknown catalog IDs.
	ErrRecordNotFound = errors.New("tle: record not found")

	// ErrMalformedBlock marks a TLE block rejected during parsing.
	// Recoverable: the parser skips the block and continues.
	ErrMalformedBlock = errors.New("tle: malformed block")

	// ErrCatalogIDMismatch marks a block whose line1 and line2 carry
	// different catalog numbers. Recoverable: the block is skipped.
	ErrCatalogIDMismatch = errors.New("tle: catalog ID mismatch")
)
