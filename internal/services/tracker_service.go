package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"expensetracker/internal/currency"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/ledger"
	"expensetracker/internal/logger"
	"expensetracker/internal/models"
	"expensetracker/internal/session"
	"expensetracker/internal/validator"
)

// transactionMessages are the user-facing messages for invalid new transactions.
var transactionMessages = map[string]string{
	"description":     "Please add a description",
	"description.max": "Description must be at most 500 characters",
	"amount":          "Please add a valid amount",
	"type":            "Please select income or expense",
	"date":            "Please use YYYY-MM-DD",
}

// TrackerConfig holds the tunables of the tracker service.
type TrackerConfig struct {
	Timeout         time.Duration
	DefaultCurrency string
	SummaryLimit    int
}

// Ledger is the application state of one signed-in user: the session binder
// and its store, the remembered view parameters, and display preferences.
type Ledger struct {
	binder *session.Binder

	// One in-flight operation per action kind.
	addSlot    *semaphore.Weighted
	deleteSlot *semaphore.Weighted
	prefSlot   *semaphore.Weighted
	loadSlot   *semaphore.Weighted

	mu       sync.Mutex
	filter   ledger.Filter
	sortKey  ledger.SortKey
	currency string
	theme    string
	loadErr  error
}

func newLedger(binder *session.Binder, defaultCurrency string) *Ledger {
	return &Ledger{
		binder:     binder,
		addSlot:    semaphore.NewWeighted(1),
		deleteSlot: semaphore.NewWeighted(1),
		prefSlot:   semaphore.NewWeighted(1),
		loadSlot:   semaphore.NewWeighted(1),
		filter:     ledger.FilterAll,
		sortKey:    ledger.DefaultSortKey,
		currency:   defaultCurrency,
		theme:      models.ThemeLight,
	}
}

func (l *Ledger) preferences() PreferencesView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return PreferencesView{
		Currency:       l.currency,
		CurrencySymbol: currency.Symbol(l.currency),
		Theme:          l.theme,
	}
}

func (l *Ledger) notice() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var appErr *apperrors.AppError
	if errors.As(l.loadErr, &appErr) {
		return appErr.Message
	}
	return ""
}

// trackerService is the application controller. It keeps one Ledger per
// signed-in user and reacts to identity events.
type trackerService struct {
	transactions TransactionStore
	preferences  PreferenceStore
	cfg          TrackerConfig
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*Ledger
}

// NewTrackerService creates a new TrackerServicer.
func NewTrackerService(transactions TransactionStore, preferences PreferenceStore, cfg TrackerConfig) TrackerServicer {
	if !currency.IsSupported(cfg.DefaultCurrency) {
		cfg.DefaultCurrency = currency.DefaultCode
	}
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)
	if cfg.SummaryLimit <= 0 {
		cfg.SummaryLimit = 3
	}
	return &trackerService{
		transactions: transactions,
		preferences:  preferences,
		cfg:          cfg,
		now:          time.Now,
		sessions:     make(map[string]*Ledger),
	}
}

// HandleAuthEvent binds or unbinds the user's ledger.
func (s *trackerService) HandleAuthEvent(ctx context.Context, event session.Event) {
	switch event.Kind {
	case session.SignedIn:
		s.load(ctx, event.UserID, true)
	case session.Resumed:
		s.load(ctx, event.UserID, false)
	case session.SignedOut:
		s.mu.Lock()
		l, ok := s.sessions[event.UserID]
		delete(s.sessions, event.UserID)
		s.mu.Unlock()
		if ok {
			l.binder.SignOut()
		}
	}
}

// load signs the user's binder in. A resumed session that is already bound
// is left alone.
func (s *trackerService) load(ctx context.Context, userID string, force bool) {
	l := s.ledgerFor(userID, true)

	if err := l.loadSlot.Acquire(ctx, 1); err != nil {
		return
	}
	defer l.loadSlot.Release(1)

	if !force && l.binder.State() == session.Authenticated {
		return
	}

	s.loadPreferences(ctx, userID, l)
	err := l.binder.SignIn(ctx, userID)

	l.mu.Lock()
	l.loadErr = err
	l.mu.Unlock()
}

func (s *trackerService) loadPreferences(ctx context.Context, userID string, l *Ledger) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	log := logger.Named("tracker")
	code, ok, err := s.preferences.Get(ctx, userID, models.PreferenceCurrency)
	if err != nil {
		log.Warnw("failed to load currency preference", "user_id", userID, "error", err)
	}
	theme, themeOK, err := s.preferences.Get(ctx, userID, models.PreferenceTheme)
	if err != nil {
		log.Warnw("failed to load theme preference", "user_id", userID, "error", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if ok && currency.IsSupported(code) {
		l.currency = strings.ToUpper(code)
	}
	if themeOK && (theme == models.ThemeLight || theme == models.ThemeDark) {
		l.theme = theme
	}
}

func (s *trackerService) ledgerFor(userID string, create bool) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sessions[userID]
	if !ok && create {
		store := ledger.NewStore()
		binder := session.NewBinder(store, s.transactions, s.cfg.Timeout, session.WithOnLoad(func(uid string, n int) {
			logger.Named("tracker").Infow("ledger loaded", "user_id", uid, "transactions", n)
		}))
		l = newLedger(binder, s.cfg.DefaultCurrency)
		s.sessions[userID] = l
	}
	return l
}

// active returns the ledger of an authenticated user.
func (s *trackerService) active(userID string) (*Ledger, error) {
	if userID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	l := s.ledgerFor(userID, false)
	if l == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	if uid, ok := l.binder.UserID(); !ok || uid != userID {
		return nil, apperrors.ErrNotAuthenticated
	}
	return l, nil
}

func (s *trackerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *trackerService) today() string {
	return s.now().UTC().Format(models.DateLayout)
}

// Dashboard returns the balance and the most recent transactions
func (s *trackerService) Dashboard(_ context.Context, userID string) (*DashboardView, error) {
	view := &DashboardView{Today: s.today()}
	prefs := s.defaultPreferences()
	var records []models.Transaction

	if l, err := s.active(userID); err == nil {
		view.Authenticated = true
		prefs = l.preferences()
		records = l.binder.Store().All()
		view.Notice = l.notice()
	}

	view.Currency = prefs.Currency
	view.CurrencySymbol = prefs.CurrencySymbol
	view.Balance = newBalanceView(ledger.ComputeBalance(records), prefs.Currency)
	recent := ledger.LimitForSummaryView(ledger.FilterAndSort(records, ledger.FilterAll, ledger.SortNewest), s.cfg.SummaryLimit)
	view.Recent = newTransactionItems(recent, prefs.Currency)
	view.EmptyMessage = emptyMessage(view.Recent)
	return view, nil
}

// History returns every transaction matching filter, ordered by sortKey. Empty
// parameters reuse the session's previous choice.
func (s *trackerService) History(_ context.Context, userID, filter, sortKey string) (*HistoryView, error) {
	view := &HistoryView{Filter: ledger.FilterAll, Sort: ledger.DefaultSortKey}
	prefs := s.defaultPreferences()
	var records []models.Transaction

	if l, err := s.active(userID); err == nil {
		view.Authenticated = true
		prefs = l.preferences()
		records = l.binder.Store().All()
		view.Notice = l.notice()

		l.mu.Lock()
		if strings.TrimSpace(filter) != "" {
			l.filter = ledger.ParseFilter(filter)
		}
		if strings.TrimSpace(sortKey) != "" {
			l.sortKey = ledger.ParseSortKey(sortKey)
		}
		view.Filter, view.Sort = l.filter, l.sortKey
		l.mu.Unlock()
	} else {
		view.Filter, view.Sort = ledger.ParseFilter(filter), ledger.ParseSortKey(sortKey)
	}

	view.Currency = prefs.Currency
	view.Items = newTransactionItems(ledger.FilterAndSort(records, view.Filter, view.Sort), prefs.Currency)
	view.EmptyMessage = emptyMessage(view.Items)
	return view, nil
}

// AddTransaction validates and persists a transaction, then appends it to the
// session's store. Nothing is appended unless the document store accepted it.
func (s *trackerService) AddTransaction(ctx context.Context, userID string, input models.NewTransaction) (*models.Transaction, error) {
	l, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	input.Description = strings.TrimSpace(input.Description)
	input.Date = strings.TrimSpace(input.Date)
	if err := validator.Get().Struct(input); err != nil {
		fields := validator.FieldMessages(err, transactionMessages)
		if fields == nil {
			return nil, apperrors.Wrap(apperrors.ErrValidation, err)
		}
		return nil, apperrors.WithFields(apperrors.ErrValidation, fields)
	}

	if !l.addSlot.TryAcquire(1) {
		return nil, apperrors.ErrRequestInFlight
	}
	defer l.addSlot.Release(1)

	now := s.now()
	if input.Date == "" {
		input.Date = now.UTC().Format(models.DateLayout)
	}
	input.CreatedAt = now

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	created, err := s.transactions.Create(callCtx, userID, input)
	if err != nil {
		return nil, collaboratorError(err)
	}

	// The user may have signed out while the write was in flight.
	if uid, ok := l.binder.UserID(); ok && uid == userID {
		if err := l.binder.Store().Add(*created); err != nil {
			logger.Named("tracker").Warnw("persisted transaction not added to ledger",
				"user_id", userID,
				"transaction_id", created.ID,
				"error", err,
			)
		}
	}
	return created, nil
}

// DeleteTransaction removes a transaction from the document store and then
// from the session's store. A transaction the document store no longer has is
// dropped locally as well.
func (s *trackerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	l, err := s.active(userID)
	if err != nil {
		return err
	}

	if !l.deleteSlot.TryAcquire(1) {
		return apperrors.ErrRequestInFlight
	}
	defer l.deleteSlot.Release(1)

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.transactions.DeleteByID(callCtx, userID, id); err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			l.binder.Store().Remove(id)
			return err
		}
		return collaboratorError(err)
	}

	l.binder.Store().Remove(id)
	return nil
}

func (s *trackerService) defaultPreferences() PreferencesView {
	return PreferencesView{
		Currency:       s.cfg.DefaultCurrency,
		CurrencySymbol: currency.Symbol(s.cfg.DefaultCurrency),
		Theme:          models.ThemeLight,
	}
}

// Preferences returns the session's display settings, or the defaults for
// anonymous callers.
func (s *trackerService) Preferences(_ context.Context, userID string) (*PreferencesView, error) {
	prefs := s.defaultPreferences()
	if l, err := s.active(userID); err == nil {
		prefs = l.preferences()
	}
	return &prefs, nil
}

// UpdatePreferences persists and applies the given settings. Every value is
// checked before anything is written.
func (s *trackerService) UpdatePreferences(ctx context.Context, userID string, update PreferenceUpdate) (*PreferencesView, error) {
	l, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	var code, theme string
	if update.Currency != nil {
		code = strings.ToUpper(strings.TrimSpace(*update.Currency))
		if !currency.IsSupported(code) {
			return nil, apperrors.ErrUnsupportedCurrency
		}
	}
	if update.Theme != nil {
		theme = strings.ToLower(strings.TrimSpace(*update.Theme))
		if theme != models.ThemeLight && theme != models.ThemeDark {
			return nil, apperrors.ErrUnsupportedTheme
		}
	}

	if !l.prefSlot.TryAcquire(1) {
		return nil, apperrors.ErrRequestInFlight
	}
	defer l.prefSlot.Release(1)

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if code != "" {
		if err := s.preferences.Set(callCtx, userID, models.PreferenceCurrency, code); err != nil {
			return nil, collaboratorError(err)
		}
		l.mu.Lock()
		l.currency = code
		l.mu.Unlock()
	}
	if theme != "" {
		if err := s.preferences.Set(callCtx, userID, models.PreferenceTheme, theme); err != nil {
			return nil, collaboratorError(err)
		}
		l.mu.Lock()
		l.theme = theme
		l.mu.Unlock()
	}

	prefs := l.preferences()
	return &prefs, nil
}

// ToggleTheme switches between the light and dark themes
func (s *trackerService) ToggleTheme(ctx context.Context, userID string) (*PreferencesView, error) {
	l, err := s.active(userID)
	if err != nil {
		return nil, err
	}

	next := models.ThemeDark
	if l.preferences().Theme == models.ThemeDark {
		next = models.ThemeLight
	}
	return s.UpdatePreferences(ctx, userID, PreferenceUpdate{Theme: &next})
}
