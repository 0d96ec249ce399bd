package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrIncompleteSession is returned by [Store.SetAuth] when the caller tries
// to install a session without a user or with a missing token. The store
// never holds a partial tuple.
var ErrIncompleteSession = errors.New("incomplete session tuple")

// Store holds the current session snapshot and mediates all access to the
// persistence tiers. Readers get lock-free immutable snapshots; writers are
// serialized so tier writes and the in-memory swap stay consistent.
//
// Lifecycle: exactly one Store exists per process. It starts in
// [StateUnknown], is initialized by [Store.Hydrate], and is mutated only by
// [Store.SetAuth], [Store.ConfirmHydration], and [Store.ClearAuth].
type Store struct {
	volatile Storage
	durable  Storage

	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a Store over the two persistence tiers. A nil volatile
// tier defaults to [MemoryStorage]; a nil durable tier disables remember-me
// persistence (durable writes fall back to the volatile tier).
func NewStore(volatile, durable Storage) *Store {
	if volatile == nil {
		volatile = NewMemoryStorage()
	}
	s := &Store{volatile: volatile, durable: durable}
	s.snap.Store(&Snapshot{State: StateUnknown})
	return s
}

// Snapshot returns the current immutable session tuple.
func (s *Store) Snapshot() Snapshot {
	return *s.snap.Load()
}

// Hydrate reads the persisted record, durable tier first. When a record is
// found the returned snapshot carries its user and tokens but stays in
// [StateUnknown]: the session is only provisionally authenticated until the
// engine revalidates it against the backend and calls [Store.ConfirmHydration]
// or [Store.ClearAuth]. When no record exists the store settles directly in
// [StateAnonymous].
func (s *Store) Hydrate(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tier := range []struct {
		storage Storage
		tier    Tier
	}{
		{s.durable, TierDurable},
		{s.volatile, TierVolatile},
	} {
		if tier.storage == nil {
			continue
		}
		data, err := tier.storage.Read(ctx)
		if errors.Is(err, ErrNoRecord) {
			continue
		}
		if err != nil {
			return s.Snapshot(), err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			// A corrupt or outdated record is unrecoverable; drop it and
			// keep looking.
			_ = tier.storage.Clear(ctx)
			continue
		}
		identity := rec.Identity
		next := &Snapshot{
			State:        StateUnknown,
			User:         &identity,
			AccessToken:  rec.AccessToken,
			RefreshToken: rec.RefreshToken,
			Tier:         tier.tier,
		}
		s.snap.Store(next)
		return *next, nil
	}

	next := &Snapshot{State: StateAnonymous}
	s.snap.Store(next)
	return *next, nil
}

// ConfirmHydration flips a provisionally hydrated session to
// [StateAuthenticated], replacing the persisted user snapshot with the
// freshly revalidated one. It is a no-op unless the store is in
// [StateUnknown].
func (s *Store) ConfirmHydration(user *Identity) {
	if user == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.snap.Load()
	if current.State != StateUnknown || current.AccessToken == "" {
		return
	}
	next := *current
	next.State = StateAuthenticated
	next.User = user
	s.snap.Store(&next)
}

// SetAuth atomically replaces the full session tuple and persists it to the
// tier implied by persist. The other tier is cleared so exactly one tier is
// ever active. Consumers must treat any query state cached for the previous
// identity as stale after SetAuth returns.
func (s *Store) SetAuth(ctx context.Context, user *Identity, accessToken, refreshToken string, persist bool) error {
	if user == nil || accessToken == "" || refreshToken == "" {
		return ErrIncompleteSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tier := TierVolatile
	target := s.volatile
	other := s.durable
	if persist && s.durable != nil {
		tier = TierDurable
		target = s.durable
		other = s.volatile
	}

	encoded, err := newRecord(*user, accessToken, refreshToken, tier).Encode()
	if err != nil {
		return err
	}
	if err := target.Write(ctx, encoded); err != nil {
		return err
	}
	if other != nil {
		_ = other.Clear(ctx)
	}

	s.snap.Store(&Snapshot{
		State:        StateAuthenticated,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Tier:         tier,
	})
	return nil
}

// ClearAuth removes the session from memory and from both persistence tiers
// regardless of which one was active. It is idempotent: clearing an already
// anonymous store has no further effect.
func (s *Store) ClearAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, storage := range []Storage{s.volatile, s.durable} {
		if storage == nil {
			continue
		}
		if err := storage.Clear(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.snap.Store(&Snapshot{State: StateAnonymous})
	return firstErr
}
