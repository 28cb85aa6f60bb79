package tle

import (
	"errors"
	"sync"
	"testing"
)

const (
	issBlock      = "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n"
	starlinkBlock = "STARLINK-1007\n" + starlinkLine1 + "\n" + starlinkLine2 + "\n"
)

// TestStoreLoadAndGet verifies basic ingestion and lookup.
func TestStoreLoadAndGet(t *testing.T) {
	store := NewStore(testLogger())

	count, err := store.Load(issBlock+starlinkBlock, "test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("Load count = %d, want 2", count)
	}

	rec, err := store.Get(25544)
	if err != nil {
		t.Fatalf("Get(25544) failed: %v", err)
	}
	if rec.Name != "ISS (ZARYA)" {
		t.Errorf("Get(25544) name = %q, want ISS (ZARYA)", rec.Name)
	}

	_, err = store.Get(99999)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Get(99999) = %v, want ErrRecordNotFound", err)
	}
}

// TestStoreLoadMerges verifies Load upserts into the existing index and keeps
// the original insertion position for re-ingested catalog IDs.
func TestStoreLoadMerges(t *testing.T) {
	store := NewStore(testLogger())

	if _, err := store.Load(issBlock, "first"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := store.Load(starlinkBlock+issBlock, "second"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if store.Count() != 2 {
		t.Fatalf("Count = %d, want 2", store.Count())
	}

	list := store.List(10)
	if len(list) != 2 || list[0].CatalogID != 25544 || list[1].CatalogID != 44713 {
		t.Errorf("List order = %v, want [25544 44713]", list)
	}
}

// TestStoreReplace verifies Replace swaps the whole index in one step.
func TestStoreReplace(t *testing.T) {
	store := NewStore(testLogger())

	if _, err := store.Load(issBlock, "first"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	count, err := store.Replace(starlinkBlock, "replacement")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if count != 1 || store.Count() != 1 {
		t.Fatalf("after Replace: count=%d stored=%d, want 1/1", count, store.Count())
	}
	if _, err := store.Get(25544); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("old record still visible after Replace: %v", err)
	}
	if _, err := store.Get(44713); err != nil {
		t.Errorf("new record missing after Replace: %v", err)
	}
}

// TestStoreListLimit verifies the limit semantics, including non-positive.
func TestStoreListLimit(t *testing.T) {
	store := NewStore(testLogger())
	if _, err := store.Load(issBlock+starlinkBlock, "test"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := store.List(1); len(got) != 1 {
		t.Errorf("List(1) returned %d entries, want 1", len(got))
	}
	if got := store.List(100); len(got) != 2 {
		t.Errorf("List(100) returned %d entries, want 2", len(got))
	}
	if got := store.List(0); len(got) != 0 {
		t.Errorf("List(0) returned %d entries, want 0", len(got))
	}
	if got := store.List(-5); len(got) != 0 {
		t.Errorf("List(-5) returned %d entries, want 0", len(got))
	}
}

// TestStoreClear verifies Clear empties the index.
func TestStoreClear(t *testing.T) {
	store := NewStore(testLogger())
	if _, err := store.Load(issBlock, "test"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store.Clear()
	if store.Count() != 0 {
		t.Errorf("Count after Clear = %d, want 0", store.Count())
	}
}

// TestStoreStats verifies generation metadata and the epoch range.
func TestStoreStats(t *testing.T) {
	store := NewStore(testLogger())
	if _, err := store.Load(issBlock+starlinkBlock, "celestrak"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	st := store.Stats()
	if st.Count != 2 {
		t.Errorf("Stats.Count = %d, want 2", st.Count)
	}
	if st.Source != "celestrak" {
		t.Errorf("Stats.Source = %q, want celestrak", st.Source)
	}
	if st.LoadedAt.IsZero() {
		t.Error("Stats.LoadedAt is zero")
	}
	if st.Epochs.Min.IsZero() || st.Epochs.Max.Before(st.Epochs.Min) {
		t.Errorf("bad epoch range: %+v", st.Epochs)
	}
}

// TestStoreConcurrentReadersDuringReplace hammers readers while a writer swaps
// generations; readers must always observe a complete snapshot, either the
// old index or the new one, never a partial mix.
func TestStoreConcurrentReadersDuringReplace(t *testing.T) {
	store := NewStore(testLogger())
	if _, err := store.Load(issBlock, "initial"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := store.Count()
				list := store.List(10)
				if len(list) != n {
					t.Errorf("torn read: Count=%d List=%d", n, len(list))
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		text := issBlock
		if i%2 == 0 {
			text = starlinkBlock
		}
		if _, err := store.Replace(text, "swap"); err != nil {
			t.Errorf("Replace failed: %v", err)
			break
		}
	}
	close(stop)
	wg.Wait()
}
