package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/farmlink/farmlink-go/internal/api"
)

// ErrMutationInProgress means a mutation for the same item is still in
// flight. The second request is rejected locally and never sent, which
// prevents double-delete races.
var ErrMutationInProgress = errors.New("mutation already in progress for this item")

// Kind labels a mutation.
type Kind int

const (
	Create Kind = iota
	Update
	Delete
)

// Authenticator reports whether a usable session is held.
// *session.Store satisfies this.
type Authenticator interface {
	Authenticated() bool
}

// Coordinator sequences create/update/delete calls for one collection.
// It guarantees at most one in-flight mutation per item id and refreshes
// the owning controller after every successful mutation, so the snapshot
// reflects server truth. No speculative local patching is done: the view
// shows a pending state during the round trip instead of guessing the
// outcome, and failures therefore need no rollback.
type Coordinator struct {
	auth    Authenticator
	refresh func(context.Context) error

	mu       sync.Mutex
	inflight map[string]Kind
}

// NewCoordinator creates a coordinator that refreshes the owning
// controller (via refresh) after each successful mutation.
func NewCoordinator(auth Authenticator, refresh func(context.Context) error) *Coordinator {
	return &Coordinator{
		auth:     auth,
		refresh:  refresh,
		inflight: make(map[string]Kind),
	}
}

// InFlight reports whether a mutation for itemID is pending.
func (co *Coordinator) InFlight(itemID string) bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	_, ok := co.inflight[itemID]
	return ok
}

// Mutate runs op as a kind mutation of itemID. itemID may be "" for
// creates, which are not keyed. Without a session it fails with
// api.ErrUnauthenticated before any network activity; with a mutation
// already pending for itemID it fails with ErrMutationInProgress. On
// success the owning controller is refreshed; on failure local state is
// left untouched.
func (co *Coordinator) Mutate(ctx context.Context, kind Kind, itemID string, op func(context.Context) error) error {
	if !co.auth.Authenticated() {
		return api.ErrUnauthenticated
	}

	if itemID != "" {
		co.mu.Lock()
		if _, pending := co.inflight[itemID]; pending {
			co.mu.Unlock()
			return ErrMutationInProgress
		}
		co.inflight[itemID] = kind
		co.mu.Unlock()

		defer func() {
			co.mu.Lock()
			delete(co.inflight, itemID)
			co.mu.Unlock()
		}()
	}

	if err := op(ctx); err != nil {
		return err
	}
	return co.refresh(ctx)
}
