package chat

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/bookchat/internal/bus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Registry is the deduplicated, insertion-ordered contact list of the
// current user.
type Registry struct {
	mu       sync.RWMutex
	owner    string
	contacts []Contact
	epoch    uint64

	source ContactSource
	group  singleflight.Group
	base   context.Context // shared refreshes run under it, not a caller's ctx
	bus    *bus.Bus
	logger *zap.Logger
}

// NewRegistry creates an empty registry that refreshes from source.
func NewRegistry(source ContactSource, b *bus.Bus, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		source: source,
		base:   context.Background(),
		bus:    b,
		logger: logger,
	}
}

// SetOwner records the username of the signed-in user, who is never listed.
func (r *Registry) SetOwner(username string) {
	r.mu.Lock()
	r.owner = username
	r.contacts = slices.DeleteFunc(r.contacts, func(c Contact) bool { return c.Username == username })
	r.mu.Unlock()
}

// AddContact appends username unless it is empty, the owner, or already
// listed. It returns the resulting contact list.
func (r *Registry) AddContact(username string) []Contact {
	r.mu.Lock()
	if username == "" || username == r.owner || r.indexOf(username) >= 0 {
		snapshot := slices.Clone(r.contacts)
		r.mu.Unlock()
		return snapshot
	}
	r.contacts = append(r.contacts, Contact{Username: username})
	snapshot := slices.Clone(r.contacts)
	r.mu.Unlock()

	r.bus.Emit(EventContactsChanged, snapshot)
	return snapshot
}

// Refresh replaces the registry with the server-side contact list of
// current. On failure the registry is left untouched and the error wraps
// ErrFetchFailed. A refresh that completes after Reset is dropped.
func (r *Registry) Refresh(ctx context.Context, current string) ([]Contact, error) {
	r.mu.RLock()
	epoch := r.epoch
	r.mu.RUnlock()

	// Callers joining the same refresh each stop waiting on their own ctx.
	var (
		v      any
		err    error
		shared bool
	)
	results := r.group.DoChan(current, func() (any, error) {
		return r.source.Contacts(r.base, current)
	})
	select {
	case res := <-results:
		v, err, shared = res.Val, res.Err, res.Shared
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		r.logger.Warn("contact refresh failed", zap.String("user", current), zap.Error(err))
		r.bus.Emit(EventContactsRefreshFailed, err)
		return r.Contacts(), fmt.Errorf("%w: contacts of %q: %w", ErrFetchFailed, current, err)
	}
	fetched, _ := v.([]Contact)

	r.mu.Lock()
	if r.epoch != epoch {
		snapshot := slices.Clone(r.contacts)
		r.mu.Unlock()
		r.logger.Debug("dropping contact refresh issued before reset", zap.String("user", current))
		return snapshot, nil
	}
	r.contacts = r.normalize(fetched, current)
	snapshot := slices.Clone(r.contacts)
	r.mu.Unlock()

	r.logger.Debug("contacts refreshed", zap.Int("count", len(snapshot)), zap.Bool("shared", shared))
	r.bus.Emit(EventContactsChanged, snapshot)
	return snapshot, nil
}

// Reset clears all contacts and forgets the owner.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.contacts = nil
	r.owner = ""
	r.epoch++
	r.mu.Unlock()
	r.bus.Emit(EventContactsChanged, []Contact{})
}

// Contacts returns a snapshot of the contact list.
func (r *Registry) Contacts() []Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.contacts)
}

// Contains reports whether username is listed.
func (r *Registry) Contains(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(username) >= 0
}

func (r *Registry) indexOf(username string) int {
	return slices.IndexFunc(r.contacts, func(c Contact) bool { return c.Username == username })
}

// normalize drops empty, self and duplicate entries while keeping server order.
func (r *Registry) normalize(in []Contact, current string) []Contact {
	out := make([]Contact, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		if c.Username == "" || c.Username == current || c.Username == r.owner {
			continue
		}
		if _, dup := seen[c.Username]; dup {
			continue
		}
		seen[c.Username] = struct{}{}
		out = append(out, c)
	}
	return out
}
