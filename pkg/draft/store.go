package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mercator-hq/waybill/pkg/telemetry/logging"
	"mercator-hq/waybill/pkg/telemetry/metrics"
)

// Version is the tag written next to every payload.
const Version = "1.0"

// Derived key suffixes.
const (
	SuffixTimestamp = "_timestamp"
	SuffixVersion   = "_version"
	SuffixInstance  = "_instance"
)

// Entry is a stored draft with its metadata.
type Entry struct {
	Key              string          `json:"key"`
	SerializedData   json.RawMessage `json:"serializedData"`
	Timestamp        time.Time       `json:"timestamp"`
	Version          string          `json:"version"`
	WriterInstanceID string          `json:"writerInstanceId,omitempty"`
}

// Store persists drafts over a KV backend. It is safe for concurrent use when
// the KV is.
type Store struct {
	kv      KV
	logger  *slog.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) StoreOption {
	return func(s *Store) { s.metrics = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store over kv.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "draft")
	}
	return s
}

// KV returns the backend the store writes to.
func (s *Store) KV() KV {
	return s.kv
}

// Save serializes data as JSON and writes it with a fresh timestamp and the
// version tag. A full backend yields an error wrapping ErrQuotaExceeded and
// leaves the previous draft in place.
func (s *Store) Save(ctx context.Context, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		s.metrics.RecordDraftOperation("save", "error")
		return newStorageError("save", key, err)
	}

	err = s.kv.Put(ctx, map[string]string{
		key:                   string(payload),
		key + SuffixTimestamp: strconv.FormatInt(s.now().UnixMilli(), 10),
		key + SuffixVersion:   Version,
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrQuotaExceeded) {
			outcome = "quota_exceeded"
		}
		s.metrics.RecordDraftOperation("save", outcome)
		s.logger.WarnContext(logging.WithDraftKey(ctx, key), "draft save failed", "error", err)
		return newStorageError("save", key, err)
	}

	s.metrics.RecordDraftOperation("save", "ok")
	s.logger.DebugContext(logging.WithDraftKey(ctx, key), "draft saved", "bytes", len(payload))
	return nil
}

// Load decodes the draft stored under key into v and reports whether one was
// found. A payload that does not decode is deleted along with its derived keys
// and reported as not found; v is then left in an unspecified state.
func (s *Store) Load(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.metrics.RecordDraftOperation("load", "error")
		return false, newStorageError("load", key, err)
	}
	if !ok {
		s.metrics.RecordDraftOperation("load", "miss")
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		var invalid *json.InvalidUnmarshalError
		if errors.As(err, &invalid) {
			return false, newStorageError("load", key, err)
		}
		s.logger.WarnContext(logging.WithDraftKey(ctx, key), "corrupted draft cleared", "error", err)
		s.metrics.RecordDraftCorruption()
		if cerr := s.clear(ctx, key); cerr != nil {
			s.metrics.RecordDraftOperation("load", "error")
			return false, newStorageError("load", key, cerr)
		}
		s.metrics.RecordDraftOperation("load", "miss")
		return false, nil
	}

	s.metrics.RecordDraftOperation("load", "ok")
	return true, nil
}

// Clear deletes the draft and every derived key.
func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.clear(ctx, key); err != nil {
		s.metrics.RecordDraftOperation("clear", "error")
		return newStorageError("clear", key, err)
	}
	s.metrics.RecordDraftOperation("clear", "ok")
	return nil
}

func (s *Store) clear(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key, key+SuffixTimestamp, key+SuffixVersion, key+SuffixInstance)
}

// Timestamp returns when the draft was last saved. ok is false when there is
// no draft or the stored timestamp is unreadable.
func (s *Store) Timestamp(ctx context.Context, key string) (time.Time, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key+SuffixTimestamp)
	if err != nil {
		return time.Time{}, false, newStorageError("timestamp", key, err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// SetWriter records writerID as the owner of the draft.
func (s *Store) SetWriter(ctx context.Context, key, writerID string) error {
	if err := s.kv.Put(ctx, map[string]string{key + SuffixInstance: writerID}); err != nil {
		return newStorageError("set_writer", key, err)
	}
	return nil
}

// Writer returns the instance id that last claimed the draft.
func (s *Store) Writer(ctx context.Context, key string) (string, bool, error) {
	id, ok, err := s.kv.Get(ctx, key+SuffixInstance)
	if err != nil {
		return "", false, newStorageError("writer", key, err)
	}
	return id, ok, nil
}

// DetectConflict reports whether writing candidate as writerID would clobber
// another writer's work: a different instance owns the draft and the stored
// payload differs from candidate's serialization. A fresh key, the owning
// writer, or byte-identical data are never conflicts.
func (s *Store) DetectConflict(ctx context.Context, key, writerID string, candidate any) (bool, error) {
	owner, ok, err := s.kv.Get(ctx, key+SuffixInstance)
	if err != nil {
		s.metrics.RecordDraftOperation("conflict_check", "error")
		return false, newStorageError("conflict_check", key, err)
	}
	if !ok || owner == writerID {
		s.metrics.RecordDraftOperation("conflict_check", "ok")
		return false, nil
	}

	stored, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.metrics.RecordDraftOperation("conflict_check", "error")
		return false, newStorageError("conflict_check", key, err)
	}
	s.metrics.RecordDraftOperation("conflict_check", "ok")
	if !ok {
		return false, nil
	}

	payload, err := json.Marshal(candidate)
	if err != nil {
		return false, newStorageError("conflict_check", key, err)
	}
	if string(payload) == stored {
		return false, nil
	}

	s.metrics.RecordDraftConflict()
	s.logger.InfoContext(logging.WithWriter(logging.WithDraftKey(ctx, key), writerID),
		"conflicting draft writer", "owner", owner)
	return true, nil
}

// Entry returns the draft stored under key with its metadata, or ErrNotFound.
func (s *Store) Entry(ctx context.Context, key string) (*Entry, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, newStorageError("entry", key, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !json.Valid([]byte(raw)) {
		return nil, newStorageError("entry", key, errors.New("stored payload is not valid JSON"))
	}

	e := &Entry{Key: key, SerializedData: json.RawMessage(raw)}
	if e.Timestamp, _, err = s.Timestamp(ctx, key); err != nil {
		return nil, err
	}
	if e.Version, _, err = s.kv.Get(ctx, key+SuffixVersion); err != nil {
		return nil, newStorageError("entry", key, err)
	}
	if e.WriterInstanceID, _, err = s.Writer(ctx, key); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the keys of every stored draft in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	all, err := s.kv.Keys(ctx, "")
	if err != nil {
		return nil, newStorageError("list", "", err)
	}
	present := make(map[string]bool, len(all))
	for _, k := range all {
		present[k] = true
	}

	var keys []string
	for _, k := range all {
		if strings.HasSuffix(k, SuffixTimestamp) {
			continue
		}
		if present[k+SuffixTimestamp] {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Prune clears every draft last saved before cutoff and returns how many were
// removed. Drafts with an unreadable timestamp are removed too.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	keys, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		ts, ok, err := s.Timestamp(ctx, key)
		if err != nil {
			return pruned, err
		}
		if ok && !ts.Before(cutoff) {
			continue
		}
		if err := s.clear(ctx, key); err != nil {
			s.metrics.RecordDraftOperation("prune", "error")
			return pruned, newStorageError("prune", key, err)
		}
		pruned++
	}

	s.metrics.RecordDraftOperation("prune", "ok")
	s.metrics.RecordDraftsPruned(pruned)
	return pruned, nil
}
