package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/models"
	"expensetracker/internal/session"
)

// authService is the identity service: it owns users and their session token,
// and notifies subscribers of every identity transition.
type authService struct {
	db *gorm.DB

	mu          sync.RWMutex
	subscribers []func(ctx context.Context, event session.Event)

	// Per-user locks held from the token check or write until the event is
	// delivered, so a Resumed event can never follow a SignedOut for the
	// same token.
	sessionLocks sync.Map
}

// NewAuthService creates a new AuthServicer.
func NewAuthService(db *gorm.DB) AuthServicer {
	return &authService{db: db}
}

// Subscribe registers fn for identity events. Events are delivered
// synchronously, in registration order.
func (s *authService) Subscribe(fn func(ctx context.Context, event session.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *authService) lockSession(userID string) func() {
	v, _ := s.sessionLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *authService) publish(ctx context.Context, event session.Event) {
	s.mu.RLock()
	subscribers := make([]func(context.Context, session.Event), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(ctx, event)
	}
}

// SignUp registers a new user and signs them in
func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", collaboratorError(err)
	}
	if count > 0 {
		return nil, "", apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: strings.TrimSpace(displayName),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, "", collaboratorError(err)
	}

	token, err := s.startSession(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SignIn verifies credentials and opens a new session, replacing any previous one
func (s *authService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", collaboratorError(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	token, err := s.startSession(ctx, &user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *authService) startSession(ctx context.Context, user *models.User) (string, error) {
	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	unlock := s.lockSession(user.ID)
	defer unlock()

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"session_token_hash": middleware.HashToken(token),
		"last_login_at":      now,
	}).Error; err != nil {
		return "", collaboratorError(err)
	}
	user.LastLoginAt = &now

	logger.Named("auth").Infow("signed in", "user_id", user.ID)
	s.publish(ctx, session.Event{Kind: session.SignedIn, UserID: user.ID})
	return token, nil
}

// SignOut invalidates the user's session token
func (s *authService) SignOut(ctx context.Context, userID string) error {
	unlock := s.lockSession(userID)
	defer unlock()

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("session_token_hash", "").Error; err != nil {
		return collaboratorError(err)
	}

	logger.Named("auth").Infow("signed out", "user_id", userID)
	s.publish(ctx, session.Event{Kind: session.SignedOut, UserID: userID})
	return nil
}

// Resume checks that token is the user's live session token
func (s *authService) Resume(ctx context.Context, userID, token string) error {
	unlock := s.lockSession(userID)
	defer unlock()

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrNotAuthenticated
		}
		return err
	}
	if user.SessionTokenHash == "" || user.SessionTokenHash != middleware.HashToken(token) {
		return apperrors.ErrNotAuthenticated
	}

	s.publish(ctx, session.Event{Kind: session.Resumed, UserID: userID})
	return nil
}

// GetUser retrieves a user by ID
func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, collaboratorError(err)
	}
	return &user, nil
}

// UpdateProfile sets the user's display name
func (s *authService) UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(displayName)
	if err := s.db.WithContext(ctx).Model(user).Update("display_name", user.DisplayName).Error; err != nil {
		return nil, collaboratorError(err)
	}
	return user, nil
}
