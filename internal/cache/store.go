package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the staleness threshold applied when Options leaves TTL unset.
const DefaultTTL = time.Minute

// Fetcher loads the value for a key from the backend.
type Fetcher func(ctx context.Context) (any, error)

// Result is the outcome of a cache read.
type Result struct {
	// Data is the cached or freshly fetched value, nil on a failed miss.
	Data any
	// Err is the last fetch failure, surfaced alongside stale data when a
	// refresh failed.
	Err error
	// Stale marks data served past its TTL while a refresh is in flight.
	Stale bool
	// Refreshing reports whether a background refetch is outstanding.
	Refreshing bool
}

// Options configure a Store.
type Options struct {
	TTL    time.Duration
	Retry  RetryPolicy
	Logger *slog.Logger
	// Clock overrides time.Now, used by tests to advance staleness.
	Clock func() time.Time
}

// Store is a keyed, staleness-aware cache for server-fetched resources.
//
// Reads are deduplicated per fingerprint: concurrent gets for one key share
// a single backend call. Expired entries are served immediately while a
// background refetch runs (stale-while-revalidate). Responses are applied
// with a per-store sequence so a slow response can never overwrite a value
// installed by a later-issued request or survive an invalidation.
type Store struct {
	ttl    time.Duration
	retry  RetryPolicy
	logger *slog.Logger
	clock  func() time.Time

	group singleflight.Group
	seq   atomic.Uint64

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	key        Key
	value      any
	hasValue   bool
	err        error
	fetchedAt  time.Time
	expiresAt  time.Time
	appliedSeq uint64
	refreshing bool
}

// NewStore constructs a Store.
func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		ttl:     ttl,
		retry:   opts.Retry,
		logger:  opts.Logger,
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Get resolves the key through the cache.
//
// A fresh entry is returned as-is. An expired entry is returned immediately
// with Stale set while a deduplicated background refetch runs; the caller's
// context cancellation does not cancel that refetch. A miss blocks on a
// deduplicated fetch bounded by the retry policy. Fetch failures surface in
// Err without evicting a previously cached value.
func (s *Store) Get(ctx context.Context, key Key, fetch Fetcher) Result {
	fp := key.Fingerprint()

	s.mu.Lock()
	e := s.entries[fp]
	now := s.clock()
	if e != nil && e.hasValue {
		if now.Before(e.expiresAt) {
			res := Result{Data: e.value, Refreshing: e.refreshing}
			s.mu.Unlock()
			return res
		}
		res := Result{Data: e.value, Err: e.err, Stale: true, Refreshing: true}
		launch := !e.refreshing
		if launch {
			e.refreshing = true
		}
		s.mu.Unlock()
		if launch {
			seq := s.seq.Add(1)
			go func() {
				if _, err := s.fetchAndApply(context.WithoutCancel(ctx), key, fp, seq, fetch); err != nil && s.logger != nil {
					s.logger.Warn("cache revalidate", slog.String("key", fp), slog.Any("error", err))
				}
			}()
		}
		return res
	}
	s.mu.Unlock()

	seq := s.seq.Add(1)
	value, err := s.fetchAndApply(ctx, key, fp, seq, fetch)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Data: value}
}

// Set installs a value directly, replacing whatever the entry held. Any
// in-flight fetch issued earlier is discarded when it completes.
func (s *Store) Set(key Key, value any) {
	fp := key.Fingerprint()
	seq := s.seq.Add(1)
	s.group.Forget(fp)

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.ensureEntry(key, fp)
	now := s.clock()
	e.appliedSeq = seq
	e.value = value
	e.hasValue = true
	e.err = nil
	e.fetchedAt = now
	e.expiresAt = now.Add(s.ttl)
	e.refreshing = false
}

// Invalidate drops the entry's value so the next access refetches. A fence
// remains in place: a response from a request issued before the
// invalidation cannot reinstall the old value.
func (s *Store) Invalidate(key Key) {
	fp := key.Fingerprint()
	seq := s.seq.Add(1)
	s.group.Forget(fp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstone(s.ensureEntry(key, fp), seq)
}

// InvalidatePrefix invalidates every entry for the resource, regardless of
// filter parameters.
func (s *Store) InvalidatePrefix(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fp, e := range s.entries {
		if e.key.Resource != resource {
			continue
		}
		s.group.Forget(fp)
		s.tombstone(e, s.seq.Add(1))
	}
}

// Remove evicts the entry, typically after a delete mutation. Like
// Invalidate, it fences in-flight responses for the key.
func (s *Store) Remove(key Key) {
	s.Invalidate(key)
}

// PurgeExpired deletes entries that have been past their TTL for at least
// one further TTL period and have no refresh outstanding. It returns the
// number of entries removed.
func (s *Store) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	purged := 0
	for fp, e := range s.entries {
		if e.refreshing {
			continue
		}
		if now.Sub(e.expiresAt) > s.ttl {
			delete(s.entries, fp)
			purged++
		}
	}
	return purged
}

// Len reports the number of live entries, tombstones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) fetchAndApply(ctx context.Context, key Key, fp string, seq uint64, fetch Fetcher) (any, error) {
	ch := s.group.DoChan(fp, func() (any, error) {
		return s.retry.run(ctx, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
	})
	select {
	case <-ctx.Done():
		// The flight keeps running for other callers; this caller's result
		// is discarded without touching the cache.
		return nil, ctx.Err()
	case res := <-ch:
		s.apply(key, fp, seq, res.Val, res.Err)
		return res.Val, res.Err
	}
}

func (s *Store) apply(key Key, fp string, seq uint64, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.ensureEntry(key, fp)
	if seq <= e.appliedSeq {
		// A later-issued request or an invalidation already settled this
		// entry; last request wins.
		e.refreshing = false
		return
	}
	e.appliedSeq = seq
	e.refreshing = false
	now := s.clock()
	if err != nil {
		// Keep the previous value, surface the error, expire immediately
		// so the next access retries.
		e.err = err
		e.expiresAt = now
		return
	}
	e.value = value
	e.hasValue = true
	e.err = nil
	e.fetchedAt = now
	e.expiresAt = now.Add(s.ttl)
}

func (s *Store) ensureEntry(key Key, fp string) *entry {
	e := s.entries[fp]
	if e == nil {
		e = &entry{key: key}
		s.entries[fp] = e
	}
	return e
}

func (s *Store) tombstone(e *entry, seq uint64) {
	now := s.clock()
	e.appliedSeq = seq
	e.value = nil
	e.hasValue = false
	e.err = nil
	e.fetchedAt = now
	e.expiresAt = now
	e.refreshing = false
}
