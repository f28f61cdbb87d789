package statusq

import "errors"

// ErrNotFound is returned by Load when the record key is absent or its
// native TTL has already fired.
var ErrNotFound = errors.New("statusq: record not found")

// ErrInvalidStatus is returned when a status value outside the recognized
// set is assigned or parsed.
var ErrInvalidStatus = errors.New("statusq: invalid status")

// ErrInvalidAttribute is returned when an attribute value fails validation,
// e.g. a non-numeric or negative progress counter.
var ErrInvalidAttribute = errors.New("statusq: invalid attribute value")

// ErrUnknownAttribute is returned by ApplyAttributes for field names outside
// the fixed dispatch table.
var ErrUnknownAttribute = errors.New("statusq: unknown attribute")
