package draft

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/record"
	"mercator-hq/waybill/pkg/telemetry/metrics"
)

type backendFactory func(t *testing.T, quota int64) KV

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T, quota int64) KV {
			return NewMemoryKV(quota)
		},
		"sqlite": func(t *testing.T, quota int64) KV {
			kv, err := NewSQLiteKV(SQLiteConfig{
				Path:       filepath.Join(t.TempDir(), "drafts.db"),
				QuotaBytes: quota,
			})
			if err != nil {
				t.Fatalf("NewSQLiteKV() error = %v", err)
			}
			return kv
		},
		"badger": func(t *testing.T, quota int64) KV {
			kv, err := NewBadgerKV(BadgerConfig{InMemory: true, QuotaBytes: quota})
			if err != nil {
				t.Fatalf("NewBadgerKV() error = %v", err)
			}
			return kv
		},
	}
}

// forEachBackend runs fn against a fresh store on every backend.
func forEachBackend(t *testing.T, quota int64, fn func(t *testing.T, s *Store)) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			kv := open(t, quota)
			t.Cleanup(func() { kv.Close() })
			fn(t, NewStore(kv))
		})
	}
}

func sampleRecord(zip string) *record.Shipment {
	return &record.Shipment{
		Origin:  record.Location{Address: "100 Main St", Zip: zip},
		Package: record.Package{Weight: record.Weight{Value: 4, Unit: "lb"}, Type: "small"},
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	forEachBackend(t, 0, func(t *testing.T, s *Store) {
		ctx := context.Background()

		var got record.Shipment
		found, err := s.Load(ctx, "draft-1", &got)
		if err != nil || found {
			t.Fatalf("Load() on empty store = %v, %v", found, err)
		}

		if err := s.Save(ctx, "draft-1", sampleRecord("62701")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		found, err = s.Load(ctx, "draft-1", &got)
		if err != nil || !found {
			t.Fatalf("Load() = %v, %v", found, err)
		}
		if got.Origin.Zip != "62701" || got.Package.Type != "small" {
			t.Errorf("loaded %+v", got)
		}

		ts, ok, err := s.Timestamp(ctx, "draft-1")
		if err != nil || !ok || time.Since(ts) > time.Minute {
			t.Errorf("Timestamp() = %v, %v, %v", ts, ok, err)
		}

		if err := s.Clear(ctx, "draft-1"); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		keys, _ := s.KV().Keys(ctx, "draft-1")
		if len(keys) != 0 {
			t.Errorf("keys left after Clear: %v", keys)
		}
		if _, ok, _ := s.Timestamp(ctx, "draft-1"); ok {
			t.Error("timestamp should be gone after Clear")
		}
	})
}

func TestStore_DetectConflict(t *testing.T) {
	forEachBackend(t, 0, func(t *testing.T, s *Store) {
		ctx := context.Background()
		dataA := sampleRecord("62701")

		conflict, err := s.DetectConflict(ctx, "draft-1", "A", dataA)
		if err != nil || conflict {
			t.Fatalf("first writer: conflict = %v, err = %v", conflict, err)
		}

		if err := s.Save(ctx, "draft-1", dataA); err != nil {
			t.Fatal(err)
		}
		if err := s.SetWriter(ctx, "draft-1", "A"); err != nil {
			t.Fatal(err)
		}

		conflict, _ = s.DetectConflict(ctx, "draft-1", "A", sampleRecord("60601"))
		if conflict {
			t.Error("same writer must never conflict")
		}

		conflict, _ = s.DetectConflict(ctx, "draft-1", "B", sampleRecord("60601"))
		if !conflict {
			t.Error("different writer with different data must conflict")
		}

		conflict, _ = s.DetectConflict(ctx, "draft-1", "B", sampleRecord("62701"))
		if conflict {
			t.Error("different writer with identical data is not a conflict")
		}

		if err := s.Save(ctx, "draft-1", dataA); err != nil {
			t.Fatal(err)
		}
		conflict, _ = s.DetectConflict(ctx, "draft-1", "A", dataA)
		if conflict {
			t.Error("A re-saving its own data must not conflict")
		}
	})
}

func TestStore_CorruptedDraftSelfHeals(t *testing.T) {
	forEachBackend(t, 0, func(t *testing.T, s *Store) {
		ctx := context.Background()
		err := s.KV().Put(ctx, map[string]string{
			"draft-1":                   "{not json",
			"draft-1" + SuffixTimestamp: "1700000000000",
			"draft-1" + SuffixVersion:   Version,
			"draft-1" + SuffixInstance:  "A",
			"draft-2":                   `{"origin":{"zip":"1"}}`,
		})
		if err != nil {
			t.Fatal(err)
		}

		var got record.Shipment
		found, err := s.Load(ctx, "draft-1", &got)
		if err != nil || found {
			t.Fatalf("Load() of corrupted draft = %v, %v", found, err)
		}

		keys, err := s.KV().Keys(ctx, "draft-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 0 {
			t.Errorf("residual keys after self-heal: %v", keys)
		}

		if _, ok, _ := s.KV().Get(ctx, "draft-2"); !ok {
			t.Error("self-heal must not touch other drafts")
		}

		found, err = s.Load(ctx, "draft-1", &got)
		if err != nil || found {
			t.Errorf("second Load() = %v, %v", found, err)
		}
	})
}

func TestStore_LoadTypeMismatchIsCorruption(t *testing.T) {
	s := NewStore(NewMemoryKV(0))
	ctx := context.Background()
	s.KV().Put(ctx, map[string]string{"d": `{"origin":"not an object"}`, "d" + SuffixTimestamp: "1"})

	var got record.Shipment
	if found, err := s.Load(ctx, "d", &got); found || err != nil {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if _, ok, _ := s.KV().Get(ctx, "d"); ok {
		t.Error("undecodable draft should be cleared")
	}
}

func TestStore_QuotaExceeded(t *testing.T) {
	forEachBackend(t, 1024, func(t *testing.T, s *Store) {
		ctx := context.Background()
		if err := s.Save(ctx, "draft-1", sampleRecord("62701")); err != nil {
			t.Fatalf("small save failed: %v", err)
		}

		big := sampleRecord("60601")
		big.Package.Contents = strings.Repeat("x", 4096)
		err := s.Save(ctx, "draft-1", big)
		if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("expected ErrQuotaExceeded, got %v", err)
		}
		var se *StorageError
		if !errors.As(err, &se) || se.Op != "save" || se.Key != "draft-1" {
			t.Errorf("expected *StorageError for save, got %#v", err)
		}

		var got record.Shipment
		if found, _ := s.Load(ctx, "draft-1", &got); !found || got.Origin.Zip != "62701" {
			t.Errorf("previous draft lost after quota failure: found=%v zip=%q", found, got.Origin.Zip)
		}
	})
}

func TestStore_EntryListPrune(t *testing.T) {
	forEachBackend(t, 0, func(t *testing.T, s *Store) {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return now }

		if _, err := s.Entry(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Entry(missing) error = %v, want ErrNotFound", err)
		}

		s.Save(ctx, "old", sampleRecord("10001"))
		now = now.Add(48 * time.Hour)
		s.Save(ctx, "new", sampleRecord("10002"))
		s.SetWriter(ctx, "new", "tab-1")

		e, err := s.Entry(ctx, "new")
		if err != nil {
			t.Fatalf("Entry() error = %v", err)
		}
		if e.Version != Version || e.WriterInstanceID != "tab-1" || !e.Timestamp.Equal(now) {
			t.Errorf("Entry() = %+v", e)
		}
		if !strings.Contains(string(e.SerializedData), `"10002"`) {
			t.Errorf("SerializedData = %s", e.SerializedData)
		}

		keys, err := s.List(ctx)
		if err != nil || len(keys) != 2 || keys[0] != "new" || keys[1] != "old" {
			t.Fatalf("List() = %v, %v", keys, err)
		}

		pruned, err := s.Prune(ctx, now.Add(-24*time.Hour))
		if err != nil || pruned != 1 {
			t.Fatalf("Prune() = %d, %v", pruned, err)
		}
		keys, _ = s.List(ctx)
		if len(keys) != 1 || keys[0] != "new" {
			t.Errorf("after prune List() = %v", keys)
		}
	})
}

func TestStore_Metrics(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, prometheus.NewRegistry())
	s := NewStore(NewMemoryKV(0), WithMetrics(collector))
	ctx := context.Background()

	s.KV().Put(ctx, map[string]string{"bad": "{"})
	var got record.Shipment
	s.Load(ctx, "bad", &got)

	s.Save(ctx, "d", sampleRecord("1"))
	s.SetWriter(ctx, "d", "A")
	s.DetectConflict(ctx, "d", "B", sampleRecord("2"))

	want := `
# HELP test_draft_conflicts_total Total number of conflicting writers detected
# TYPE test_draft_conflicts_total counter
test_draft_conflicts_total 1
# HELP test_draft_corruptions_total Total number of corrupted drafts cleared on load
# TYPE test_draft_corruptions_total counter
test_draft_corruptions_total 1
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(want),
		"test_draft_conflicts_total", "test_draft_corruptions_total"); err != nil {
		t.Error(err)
	}
}

func TestConflictError(t *testing.T) {
	err := error(&ConflictError{Key: "draft-1", Owner: "A", Writer: "B"})
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}
	if !strings.Contains(err.Error(), "draft-1") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Default().Drafts
	cfg.Backend = "memory"
	kv, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	kv.Close()

	cfg.Backend = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "drafts.db")
	kv, err = Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	kv.Close()

	cfg.Backend = "badger"
	cfg.Badger.Path = filepath.Join(t.TempDir(), "badger")
	kv, err = Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open(badger) error = %v", err)
	}
	kv.Close()

	cfg.Backend = "etcd"
	if _, err := Open(cfg, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestKV_KeysMultibytePrefix(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			kv := open(t, 0)
			t.Cleanup(func() { kv.Close() })
			ctx := context.Background()

			err := kv.Put(ctx, map[string]string{
				"envío-1":  "a",
				"envío-2":  "b",
				"envoi-1":  "c",
				"straße-9": "d",
			})
			if err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			keys, err := kv.Keys(ctx, "envío-")
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			if len(keys) != 2 || keys[0] != "envío-1" || keys[1] != "envío-2" {
				t.Errorf("Keys(envío-) = %v, want [envío-1 envío-2]", keys)
			}

			keys, err = kv.Keys(ctx, "straß")
			if err != nil || len(keys) != 1 || keys[0] != "straße-9" {
				t.Errorf("Keys(straß) = %v, %v", keys, err)
			}

			all, err := kv.Keys(ctx, "")
			if err != nil || len(all) != 4 {
				t.Errorf("Keys(\"\") = %v, %v", all, err)
			}
		})
	}
}
