package document

import "errors"

// Sentinel errors for the repository layer. Handlers translate these into
// HTTP status codes; anything else is treated as a storage failure.
var (
	// ErrInvalidID reports a malformed document identifier. It is always
	// detected before any store call is attempted.
	ErrInvalidID = errors.New("invalid document id")

	// ErrNotFound reports that no document matched the given id or filter.
	// It is a normal outcome, not a storage failure.
	ErrNotFound = errors.New("document not found")

	// ErrValidation reports client-supplied values the repository refuses to
	// execute, such as negative pagination offsets or unparsable timestamps.
	ErrValidation = errors.New("validation failed")

	// ErrConflict reports a uniqueness violation on a document field.
	ErrConflict = errors.New("conflicting document")
)
