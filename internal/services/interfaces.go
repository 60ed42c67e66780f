package services

import (
	"context"

	"expensetracker/internal/models"
	"expensetracker/internal/session"
)

// AuthServicer defines the contract for the identity service.
type AuthServicer interface {
	SignUp(ctx context.Context, email, password, displayName string) (*models.User, string, error)
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	SignOut(ctx context.Context, userID string) error
	Resume(ctx context.Context, userID, token string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, error)
	Subscribe(fn func(ctx context.Context, event session.Event))
}

// TransactionStore defines the contract for the transaction document store.
// It never filters or sorts on behalf of the caller.
type TransactionStore interface {
	ListAll(ctx context.Context, userID string) ([]models.Transaction, error)
	Create(ctx context.Context, userID string, input models.NewTransaction) (*models.Transaction, error)
	DeleteByID(ctx context.Context, userID, id string) error
}

// PreferenceStore defines the contract for per-user key/value settings.
type PreferenceStore interface {
	Get(ctx context.Context, userID, name string) (string, bool, error)
	Set(ctx context.Context, userID, name, value string) error
}

// PreferenceUpdate holds the optional fields of a preference change.
type PreferenceUpdate struct {
	Currency *string
	Theme    *string
}

// TrackerServicer defines the contract for the per-session expense tracker.
// An empty userID means the caller is anonymous.
type TrackerServicer interface {
	Dashboard(ctx context.Context, userID string) (*DashboardView, error)
	History(ctx context.Context, userID, filter, sort string) (*HistoryView, error)
	AddTransaction(ctx context.Context, userID string, input models.NewTransaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	Preferences(ctx context.Context, userID string) (*PreferencesView, error)
	UpdatePreferences(ctx context.Context, userID string, update PreferenceUpdate) (*PreferencesView, error)
	ToggleTheme(ctx context.Context, userID string) (*PreferencesView, error)
	HandleAuthEvent(ctx context.Context, event session.Event)
}
