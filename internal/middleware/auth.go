package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"expensetracker/internal/config"
	apperrors "expensetracker/internal/errors"
	"expensetracker/internal/models"
)

const tokenIssuer = "expensetracker-api"

// getJWTKey returns the JWT key from configuration
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionResumer confirms that a token still belongs to a live session.
type SessionResumer interface {
	Resume(ctx context.Context, userID, token string) error
}

// GenerateAccessToken generates a session token for a user.
func GenerateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.Get().JWTExpirationDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			// Two sign-ins within the same second must still yield distinct tokens.
			ID: fmt.Sprintf("%d", now.UnixNano()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// ParseToken validates a session token and returns its claims.
func ParseToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}

// HashToken returns the SHA-256 hex digest of a token string.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// AuthMiddleware verifies the bearer token, resumes its session and sets the
// user in the context. Requests without a live session are rejected.
func AuthMiddleware(resumer SessionResumer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, resumer); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth behaves like AuthMiddleware but lets anonymous requests
// through without a user in the context. A missing, invalid or ended session
// is anonymous; any other failure aborts the request.
func OptionalAuth(resumer SessionResumer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			err := authenticate(c, resumer)
			if err != nil && !errors.Is(err, apperrors.ErrUnauthorized) && !errors.Is(err, apperrors.ErrNotAuthenticated) {
				abortWithError(c, err)
				return
			}
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, resumer SessionResumer) error {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format")
	}

	claims, err := ParseToken(parts[1])
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token")
	}

	if err := resumer.Resume(c.Request.Context(), claims.UserID, parts[1]); err != nil {
		return err
	}

	c.Set("userID", claims.UserID)
	c.Set("email", claims.Email)
	return nil
}
