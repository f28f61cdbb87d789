package statusq

import (
	"context"
	"errors"
	"strconv"
	"time"

	ikeys "github.com/UniQw/statusq-go/internal/keys"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists job status records in Redis and maintains two auxiliary
// sorted sets: an index of live record ids scored by last-update time, and a
// registry of pending kill requests scored by request time.
//
// All multi-key operations run inside a single MULTI/EXEC transaction, so no
// observer sees a record without its index entry or a half-applied delete.
// There is no in-process locking and no versioning: concurrent saves of the
// same id are last-write-wins.
type Store struct {
	rdb     redis.UniversalClient
	keys    ikeys.Space
	ttl     time.Duration
	encoder Encoder
	log     Logger
}

// New creates a Store on top of the given Redis client.
func New(rdb redis.UniversalClient, opts ...Option) *Store {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Store{
		rdb:     rdb,
		keys:    ikeys.For(cfg.prefix),
		ttl:     cfg.ttl,
		encoder: cfg.encoder,
		log:     cfg.logger,
	}
}

// TTL returns the configured retention window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create builds a new record with defaults and the given args, assigns it a
// fresh id, persists it, and returns it. The returned record has
// status=waiting and progress 0 of 100.
func (s *Store) Create(ctx context.Context, args ...any) (*Record, error) {
	rec := NewRecord(uuid.NewString(), args...)
	if err := s.Save(ctx, rec); err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Debugf("created record id=%s", rec.ID)
	}
	return rec, nil
}

// Load returns the record for id, or ErrNotFound if the key is absent or its
// native TTL already fired.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	raw, err := s.rdb.Get(ctx, s.keys.Record(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(s.encoder, id, raw)
}

// LoadMulti fetches all given ids in one round trip. The result maps every
// requested id; absent or expired ids map to nil rather than failing, so
// callers can tell bulk partial misses apart from Load's ErrNotFound.
//
// In the same transaction as the read, LoadMulti prunes index and
// kill-registry entries whose score is older than now minus the store TTL.
// Sorted-set members have no native expiry, so this lazy sweep is what keeps
// the aggregates from outliving their records. If the transaction aborts,
// neither the read nor the prunes take effect.
func (s *Store) LoadMulti(ctx context.Context, ids []string) (map[string]*Record, error) {
	out := make(map[string]*Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rkeys := make([]string, len(ids))
	for i, id := range ids {
		rkeys[i] = s.keys.Record(id)
	}
	// exclusive bound: only entries strictly older than now-ttl are expired
	cutoff := "(" + strconv.FormatInt(time.Now().Add(-s.ttl).Unix(), 10)

	var get *redis.SliceCmd
	var killPruned, idxPruned *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		get = p.MGet(ctx, rkeys...)
		killPruned = p.ZRemRangeByScore(ctx, s.keys.Kill, "-inf", cutoff)
		idxPruned = p.ZRemRangeByScore(ctx, s.keys.Index, "-inf", cutoff)
		return nil
	})
	if err != nil {
		return nil, err
	}

	vals := get.Val()
	for i, id := range ids {
		raw, ok := "", false
		if i < len(vals) && vals[i] != nil {
			raw, ok = vals[i].(string)
		}
		if !ok {
			out[id] = nil
			continue
		}
		rec, err := decodeRecord(s.encoder, id, []byte(raw))
		if err != nil {
			return nil, err
		}
		out[id] = rec
	}

	if s.log != nil && (idxPruned.Val() > 0 || killPruned.Val() > 0) {
		s.log.Debugf("swept expired entries: index=%d kill=%d", idxPruned.Val(), killPruned.Val())
	}
	return out, nil
}

// Save atomically persists the record with the store TTL and bumps its index
// score to the current time. LastUpdatedAt is stamped to now on both the
// serialized form and the in-memory record; any prior value is ignored.
// The write is a full-record overwrite, never a partial-field update.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	now := time.Now().Unix()
	rec.LastUpdatedAt = now
	raw, err := s.encoder.Encode(rec)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keys.Record(rec.ID), raw, s.ttl)
		p.ZAdd(ctx, s.keys.Index, redis.Z{Score: float64(now), Member: rec.ID})
		return nil
	})
	return err
}

// Delete atomically removes the record key, its index entry, and any pending
// kill request. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.keys.Record(id))
		p.ZRem(ctx, s.keys.Index, id)
		p.ZRem(ctx, s.keys.Kill, id)
		return nil
	})
	return err
}

// Size returns the cardinality of the index: the count of tracked ids since
// the last sweep. Between sweeps it may slightly overcount, because native
// record expiry fires before the matching index entry is pruned.
func (s *Store) Size(ctx context.Context) (int64, error) {
	return s.rdb.ZCard(ctx, s.keys.Index).Result()
}

// IndexEntry is one member of the status index: a record id and its
// last-update time in epoch seconds.
type IndexEntry struct {
	ID    string
	Score float64
}

// ListIDs returns index entries between the given rank bounds, ordered by
// ascending score (oldest update first). Bounds follow slice semantics:
// negative indices count from the end, and (0, -1) is the full range.
func (s *Store) ListIDs(ctx context.Context, start, stop int64) ([]IndexEntry, error) {
	zs, err := s.rdb.ZRangeWithScores(ctx, s.keys.Index, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]IndexEntry, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, IndexEntry{ID: id, Score: z.Score})
	}
	return out, nil
}

// ListRecords resolves ListIDs over the given rank bounds and bulk-loads the
// records, preserving index order. Ids whose record key has meanwhile
// expired are skipped.
func (s *Store) ListRecords(ctx context.Context, start, stop int64) ([]*Record, error) {
	entries, err := s.ListIDs(ctx, start, stop)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	recs, err := s.LoadMulti(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(entries))
	for _, e := range entries {
		if rec := recs[e.ID]; rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// DeleteByStatus deletes every record whose status is one of the given
// statuses. The listing and the deletes are separate operations: records
// created, updated, or removed by a concurrent writer in between may be
// missed or matched on stale state. Best effort, not a snapshot.
func (s *Store) DeleteByStatus(ctx context.Context, statuses ...Status) error {
	match := make(map[Status]bool, len(statuses))
	for _, st := range statuses {
		if _, err := ParseStatus(string(st)); err != nil {
			return err
		}
		match[st] = true
	}
	recs, err := s.ListRecords(ctx, 0, -1)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if !match[rec.Status] {
			continue
		}
		if err := s.Delete(ctx, rec.ID); err != nil {
			return err
		}
		if s.log != nil {
			s.log.Debugf("deleted record id=%s status=%s", rec.ID, rec.Status)
		}
	}
	return nil
}

// RequestKill registers a cooperative cancellation request for id. Calling
// it again simply refreshes the request timestamp. The execution engine is
// expected to observe the request via IsKillRequested and call Kill.
func (s *Store) RequestKill(ctx context.Context, id string) error {
	return s.rdb.ZAdd(ctx, s.keys.Kill, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: id,
	}).Err()
}

// IsKillRequested reports whether an unresolved kill request exists for id.
func (s *Store) IsKillRequested(ctx context.Context, id string) (bool, error) {
	_, err := s.rdb.ZRank(ctx, s.keys.Kill, id).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Killable reports whether the record is still in flight and has no pending
// kill request. A record with an unresolved request is not re-killable until
// Kill resolves it.
func (s *Store) Killable(ctx context.Context, rec *Record) (bool, error) {
	if !rec.Status.Runnable() {
		return false, nil
	}
	requested, err := s.IsKillRequested(ctx, rec.ID)
	if err != nil {
		return false, err
	}
	return !requested, nil
}

// Kill marks the record killed and persists it while removing its kill
// request, all in one transaction, so a request and its resolution never
// observably straddle a read.
func (s *Store) Kill(ctx context.Context, rec *Record) error {
	if err := rec.SetStatus(StatusKilled); err != nil {
		return err
	}
	now := time.Now().Unix()
	rec.LastUpdatedAt = now
	raw, err := s.encoder.Encode(rec)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.keys.Record(rec.ID), raw, s.ttl)
		p.ZAdd(ctx, s.keys.Index, redis.Z{Score: float64(now), Member: rec.ID})
		p.ZRem(ctx, s.keys.Kill, rec.ID)
		return nil
	})
	if err == nil && s.log != nil {
		s.log.Debugf("killed record id=%s", rec.ID)
	}
	return err
}
