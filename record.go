package statusq

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Record tracks the execution status of one asynchronously run job.
// It is serialized to JSON and stored in Redis under a per-record key.
//
// A Record is a plain value: mutate it through the validated setters and
// persist it with Store.Save. The ID is assigned by the store on Create and
// never travels in the serialized form (it is the key).
type Record struct {
	// ID is the unique identifier for the record. Immutable after creation.
	ID string `json:"-"`
	// Status is the current lifecycle state.
	Status Status `json:"status"`
	// Args are the opaque job arguments captured at creation time.
	Args []any `json:"args"`
	// At is the current progress counter.
	At int64 `json:"at"`
	// Total is the upper bound for At.
	Total int64 `json:"total"`
	// Message is an optional human-readable note from the worker.
	Message string `json:"message,omitempty"`
	// Payload holds arbitrary structured result data.
	Payload map[string]any `json:"payload"`
	// LastUpdatedAt is the epoch-seconds timestamp of the last successful
	// save. The store overwrites it on every Save; caller values are ignored.
	LastUpdatedAt int64 `json:"last_updated_at"`
}

// NewRecord builds a record with defaults: waiting, progress 0 of 100,
// empty payload, and the given args.
func NewRecord(id string, args ...any) *Record {
	if args == nil {
		args = []any{}
	}
	return &Record{
		ID:      id,
		Status:  StatusWaiting,
		Args:    args,
		At:      0,
		Total:   100,
		Payload: map[string]any{},
	}
}

// SetStatus assigns a new status, rejecting values outside the recognized set.
// The record is left untouched on error.
func (r *Record) SetStatus(s Status) error {
	if _, err := ParseStatus(string(s)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	r.Status = s
	return nil
}

// SetAt assigns the progress counter. Negative values are rejected. If n
// exceeds the current total, the total is raised to match; the total is
// never lowered this way.
func (r *Record) SetAt(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: at must be non-negative, got %d", ErrInvalidAttribute, n)
	}
	if n > r.Total {
		r.Total = n
	}
	r.At = n
	return nil
}

// SetTotal assigns the progress upper bound. Values below zero or below the
// current counter are rejected, so Total >= At always holds.
func (r *Record) SetTotal(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: total must be non-negative, got %d", ErrInvalidAttribute, n)
	}
	if n < r.At {
		return fmt.Errorf("%w: total %d below current progress %d", ErrInvalidAttribute, n, r.At)
	}
	r.Total = n
	return nil
}

// SetMessage assigns the status message.
func (r *Record) SetMessage(msg string) {
	r.Message = msg
}

// PctComplete derives the completion percentage from At and Total, rounded
// to the nearest integer. It returns 0 when Total is not positive.
func (r *Record) PctComplete() int {
	if r.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(r.At) / float64(r.Total) * 100))
}

// attrSetters is the closed dispatch table for ApplyAttributes. Every
// recognized wire field maps to a coercing, validating setter; nothing is
// dispatched dynamically.
var attrSetters = map[string]func(*Record, any) error{
	"status": func(r *Record, v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Errorf("%w: status: %v", ErrInvalidAttribute, err)
		}
		st, err := ParseStatus(s)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
		}
		return r.SetStatus(st)
	},
	"at": func(r *Record, v any) error {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("%w: at: %v", ErrInvalidAttribute, err)
		}
		return r.SetAt(n)
	},
	"total": func(r *Record, v any) error {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("%w: total: %v", ErrInvalidAttribute, err)
		}
		return r.SetTotal(n)
	},
	"message": func(r *Record, v any) error {
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Errorf("%w: message: %v", ErrInvalidAttribute, err)
		}
		r.SetMessage(s)
		return nil
	},
	"args": func(r *Record, v any) error {
		args, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%w: args must be a list", ErrInvalidAttribute)
		}
		r.Args = args
		return nil
	},
	"payload": func(r *Record, v any) error {
		p, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: payload must be a map", ErrInvalidAttribute)
		}
		r.Payload = p
		return nil
	},
}

// ApplyAttributes assigns each entry of attrs through its validated setter.
// Unknown field names fail with ErrUnknownAttribute; nothing is silently
// ignored. Application stops at the first error, so a failed call may leave
// earlier entries applied.
func (r *Record) ApplyAttributes(attrs map[string]any) error {
	for name, v := range attrs {
		set, ok := attrSetters[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
		}
		if err := set(r, v); err != nil {
			return err
		}
	}
	return nil
}

// decodeRecord merges serialized fields over a defaulted record, so wire
// forms missing optional fields still come back fully populated.
func decodeRecord(enc Encoder, id string, raw []byte) (*Record, error) {
	rec := NewRecord(id)
	if err := enc.Decode(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
