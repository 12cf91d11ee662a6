package domain

import "errors"

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrTradeNotFound   = errors.New("trade action not found")

	ErrProjectNameTaken = errors.New("another project already uses this name")

	// ErrBlobNotFound is returned by a BlobStore for a key that was never written.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrMalformedQuotes means the oracle answered with something other than a quote list.
	ErrMalformedQuotes = errors.New("malformed quote response")
)
