// Package memory tracks which report rows have already been consolidated.
//
// Every raw row is reduced to a 64-bit fingerprint. A Memory holds the
// fingerprints seen across all prior runs plus the ones added by the
// current run, and persists the full set through a Store. The set is
// persisted only after the output artifact is confirmed written, so an
// interrupted run never marks rows it has not reported.
package memory

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a raw report row by content. Equal row bytes
// always produce equal fingerprints. The hash is not cryptographic; it
// exists only for duplicate detection.
type Fingerprint uint64

// fieldSep keeps field boundaries visible to the hash so ("ab","c") and
// ("a","bc") fingerprint differently.
const fieldSep = 0x1f

// FingerprintRecord hashes a decoded row's fields into its Fingerprint.
func FingerprintRecord(fields []string) Fingerprint {
	h := xxhash.New()
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{fieldSep})
		}
		h.WriteString(f)
	}
	return Fingerprint(h.Sum64())
}

// ErrStoreUnreadable indicates a fingerprint store that exists but cannot
// be decoded. Treating it as empty would resurface every previously
// consolidated row, so loading fails instead.
var ErrStoreUnreadable = errors.New("fingerprint store unreadable")

// ErrAlreadyPersisted indicates a second Persist call in one run.
var ErrAlreadyPersisted = errors.New("memory already persisted")

// Store is the durable home of a fingerprint set.
type Store interface {
	// Load reads the full fingerprint set. A store with no prior state
	// returns an empty set and no error; a store that exists but cannot
	// be decoded returns an error wrapping ErrStoreUnreadable.
	Load() (map[Fingerprint]struct{}, error)

	// Persist durably replaces the stored set with fps. A partial
	// failure must leave previously stored fingerprints intact.
	Persist(fps map[Fingerprint]struct{}) error

	// Name identifies the store in logs and errors.
	Name() string
}

// Memory is the seen-fingerprint set for one processing run.
type Memory struct {
	store     Store
	seen      map[Fingerprint]struct{}
	queued    int
	persisted bool
}

// Load builds a Memory from the store's current contents. An absent store
// is an empty Memory, not an error.
func Load(store Store) (*Memory, error) {
	seen, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprint store %s: %w", store.Name(), err)
	}
	if seen == nil {
		seen = make(map[Fingerprint]struct{})
	}
	return &Memory{store: store, seen: seen}, nil
}

// Contains reports whether fp has already been consolidated.
func (m *Memory) Contains(fp Fingerprint) bool {
	_, ok := m.seen[fp]
	return ok
}

// Remember marks fp as consolidated. The mark lives in memory only until
// Persist runs, so callers must persist once their output is safely
// written.
func (m *Memory) Remember(fp Fingerprint) {
	if _, ok := m.seen[fp]; ok {
		return
	}
	m.seen[fp] = struct{}{}
	m.queued++
}

// Persist writes the full set to the backing store. At most one call may
// succeed; a failed call leaves the store untouched and may be observed
// by the caller as a fatal condition for the run.
func (m *Memory) Persist() error {
	if m.persisted {
		return ErrAlreadyPersisted
	}
	if err := m.store.Persist(m.seen); err != nil {
		return fmt.Errorf("failed to persist fingerprint store %s: %w", m.store.Name(), err)
	}
	m.persisted = true
	return nil
}

// Len returns the total number of known fingerprints.
func (m *Memory) Len() int { return len(m.seen) }

// Queued returns how many fingerprints this run added.
func (m *Memory) Queued() int { return m.queued }
