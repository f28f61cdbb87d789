package keys

// Package keys centralizes Redis key construction.
// It is kept in internal to avoid leaking key formats to public API.

// DefaultPrefix is the keyspace prefix used when the store is not configured
// with one.
const DefaultPrefix = "statusq"

// Record returns the per-record key. These keys carry a native TTL.
func Record(prefix, id string) string { return prefix + ":status:" + id }

// Index is the well-known ZSET tracking every live record id, scored by
// last-update time in epoch seconds.
func Index(prefix string) string { return prefix + ":_statuses" }

// Kill is the well-known ZSET of pending kill requests, scored by request
// time in epoch seconds.
func Kill(prefix string) string { return prefix + ":_kill" }

// Space holds the precomputed fixed keys for one keyspace prefix to avoid
// repeated concatenations.
type Space struct {
	Prefix string
	Index  string
	Kill   string
}

// For returns the precomputed key space for the provided prefix.
func For(prefix string) Space {
	return Space{
		Prefix: prefix,
		Index:  prefix + ":_statuses",
		Kill:   prefix + ":_kill",
	}
}

// Record returns the per-record key within the space.
func (s Space) Record(id string) string { return s.Prefix + ":status:" + id }
