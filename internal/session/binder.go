// Package session binds identity state transitions to the lifecycle of a
// ledger.Store: signing in loads the user's transactions, signing out drops them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
)

// State is the binder's view of authentication.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// EventKind identifies an identity transition.
type EventKind int

const (
	// SignedIn is published after a successful sign-in or sign-up.
	SignedIn EventKind = iota
	// Resumed is published when a still-valid session token is presented.
	Resumed
	// SignedOut is published after sign-out.
	SignedOut
)

// Event is an identity transition for a single user.
type Event struct {
	Kind   EventKind
	UserID string
}

// TransactionLister fetches every transaction owned by a user.
type TransactionLister interface {
	ListAll(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Binder drives one Store through the Anonymous → Authenticating →
// Authenticated(userID) state machine.
type Binder struct {
	store   *ledger.Store
	lister  TransactionLister
	timeout time.Duration
	onLoad  func(userID string, count int)

	mu         sync.Mutex
	state      State
	userID     string
	generation uint64
}

// Option configures a Binder.
type Option func(*Binder)

// WithOnLoad registers a hook run after every sign-in attempt settles, with
// the number of records now held.
func WithOnLoad(fn func(userID string, count int)) Option {
	return func(b *Binder) { b.onLoad = fn }
}

// NewBinder creates an Anonymous binder. timeout bounds each fetch; zero
// means the caller's context is the only limit.
func NewBinder(store *ledger.Store, lister TransactionLister, timeout time.Duration, opts ...Option) *Binder {
	b := &Binder{store: store, lister: lister, timeout: timeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SignIn loads userID's transactions into the store. A failed fetch is
// returned as a PERSISTENCE_FAILURE or TIMEOUT AppError; the binder still ends
// Authenticated with an empty store and does not retry.
func (b *Binder) SignIn(ctx context.Context, userID string) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.state = Authenticating
	b.userID = userID
	b.store.Clear()
	b.mu.Unlock()

	fetchCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	records, err := b.lister.ListAll(fetchCtx, userID)

	b.mu.Lock()
	if gen != b.generation {
		// Signed out, or signed in again, while the fetch was running.
		b.mu.Unlock()
		return nil
	}
	if err == nil {
		b.store.ReplaceAll(records)
	}
	b.state = Authenticated
	b.mu.Unlock()

	if err != nil {
		err = classify(err)
		logger.Named("session").Errorw("failed to load transactions",
			"user_id", userID,
			"error", err,
		)
	}
	if b.onLoad != nil {
		b.onLoad(userID, b.store.Len())
	}
	return err
}

// SignOut clears the store and forgets the user.
func (b *Binder) SignOut() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	b.state = Anonymous
	b.userID = ""
	b.store.Clear()
}

// State returns the current state.
func (b *Binder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// UserID returns the bound user while Authenticated.
func (b *Binder) UserID() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Authenticated {
		return "", false
	}
	return b.userID, true
}

// Store returns the store this binder manages.
func (b *Binder) Store() *ledger.Store {
	return b.store
}

func classify(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrTimeout, err)
	}
	return apperrors.Wrap(apperrors.ErrPersistence, fmt.Errorf("list transactions: %w", err))
}
