package tle

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// generation is one immutable snapshot of the catalog index.
// Readers get the whole generation or none of it; loads build a fresh
// generation off to the side and publish it with a single pointer swap.
type generation struct {
	byID     map[uint32]Record
	order    []uint32 // insertion order
	source   string
	loadedAt time.Time
}

func emptyGeneration() *generation {
	return &generation{byID: map[uint32]Record{}}
}

// Stats describes the current generation.
type Stats struct {
	Count    int
	Source   string
	LoadedAt time.Time
	Epochs   EpochRange
}

// Store indexes TLE records by catalog ID with atomic bulk replace.
type Store struct {
	gen    atomic.Pointer[generation]
	mu     sync.Mutex // serializes mutations
	logger *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	s := &Store{logger: logger}
	s.gen.Store(emptyGeneration())
	return s
}

// Load parses text and merges the resulting records into a new generation,
// which is published atomically. Returns the number of ingested records.
// Malformed blocks are skipped; they reduce the count, not the outcome.
func (s *Store) Load(text, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := Parse(strings.NewReader(text), s.logger)
	if err != nil {
		return 0, err
	}

	cur := s.gen.Load()
	next := &generation{
		byID:     make(map[uint32]Record, len(cur.byID)+len(records)),
		order:    make([]uint32, len(cur.order), len(cur.order)+len(records)),
		source:   source,
		loadedAt: time.Now().UTC(),
	}
	for id, rec := range cur.byID {
		next.byID[id] = rec
	}
	copy(next.order, cur.order)

	for _, rec := range records {
		if _, ok := next.byID[rec.CatalogID]; !ok {
			next.order = append(next.order, rec.CatalogID)
		}
		next.byID[rec.CatalogID] = rec
	}

	s.gen.Store(next)
	return len(records), nil
}

// Replace atomically swaps the entire index for the records parsed from text.
// Equivalent to Clear followed by Load, but readers never observe the
// intermediate empty generation.
func (s *Store) Replace(text, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := Parse(strings.NewReader(text), s.logger)
	if err != nil {
		return 0, err
	}

	next := &generation{
		byID:     make(map[uint32]Record, len(records)),
		order:    make([]uint32, 0, len(records)),
		source:   source,
		loadedAt: time.Now().UTC(),
	}
	for _, rec := range records {
		if _, ok := next.byID[rec.CatalogID]; !ok {
			next.order = append(next.order, rec.CatalogID)
		}
		next.byID[rec.CatalogID] = rec
	}

	s.gen.Store(next)
	return len(records), nil
}

// Clear removes all records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Store(emptyGeneration())
}

// Get returns the record for catalogID, or ErrRecordNotFound.
func (s *Store) Get(catalogID uint32) (Record, error) {
	rec, ok := s.gen.Load().byID[catalogID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// List returns up to limit records in insertion order of the current
// generation. A non-positive limit yields an empty slice.
func (s *Store) List(limit int) []Summary {
	gen := s.gen.Load()
	if limit <= 0 {
		return []Summary{}
	}
	if limit > len(gen.order) {
		limit = len(gen.order)
	}
	out := make([]Summary, 0, limit)
	for _, id := range gen.order[:limit] {
		rec := gen.byID[id]
		out = append(out, Summary{CatalogID: rec.CatalogID, Name: rec.Name})
	}
	return out
}

// Count returns the number of records in the current generation.
func (s *Store) Count() int {
	return len(s.gen.Load().order)
}

// Stats returns metadata about the current generation.
func (s *Store) Stats() Stats {
	gen := s.gen.Load()
	st := Stats{
		Count:    len(gen.order),
		Source:   gen.source,
		LoadedAt: gen.loadedAt,
	}
	for i, id := range gen.order {
		epoch := gen.byID[id].Epoch
		if i == 0 {
			st.Epochs = EpochRange{Min: epoch, Max: epoch}
			continue
		}
		if epoch.Before(st.Epochs.Min) {
			st.Epochs.Min = epoch
		}
		if epoch.After(st.Epochs.Max) {
			st.Epochs.Max = epoch
		}
	}
	return st
}
