// Package auth resolves caller identity before protected handlers run.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"postboard/internal/domain"
	"postboard/internal/metrics"
	"postboard/internal/service"
)

const (
	SchemeBasic  = "Basic"
	SchemeBearer = "Bearer"

	userKey = "auth_user"

	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "requestId"
	realm   = "postboard"
)

var (
	// ErrMissingCredentials is returned when the request carries no usable Authorization header.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials is returned when a username/password pair does not verify.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnboundToken is returned when a valid token names a user that does not exist.
	ErrUnboundToken = errors.New("token is not bound to a user")
)

// Guard resolves the user behind a request or rejects it.
type Guard interface {
	Scheme() string
	Authenticate(c *gin.Context) (*domain.User, error)
}

// Credentials is the part of the user service the basic guard needs.
type Credentials interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// UserResolver loads the user a verified token points at.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// TokenVerifier checks a bearer token and returns the bound user id.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

type BasicGuard struct {
	users Credentials
}

func NewBasicGuard(users Credentials) *BasicGuard {
	return &BasicGuard{users: users}
}

func (g *BasicGuard) Scheme() string { return SchemeBasic }

func (g *BasicGuard) Authenticate(c *gin.Context) (*domain.User, error) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		return nil, ErrMissingCredentials
	}

	user, err := g.users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

type TokenGuard struct {
	tokens TokenVerifier
	users  UserResolver
}

func NewTokenGuard(tokens TokenVerifier, users UserResolver) *TokenGuard {
	return &TokenGuard{tokens: tokens, users: users}
}

func (g *TokenGuard) Scheme() string { return SchemeBearer }

func (g *TokenGuard) Authenticate(c *gin.Context) (*domain.User, error) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return nil, ErrMissingCredentials
	}
	scheme, token, found := strings.Cut(raw, " ")
	if !found || !strings.EqualFold(scheme, SchemeBearer) {
		return nil, ErrMissingCredentials
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingCredentials
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := g.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, ErrUnboundToken
		}
		return nil, err
	}
	return user, nil
}

// Require runs guard before the rest of the chain. Rejected requests are answered
// with 401 and never reach the handler; store faults during resolution answer 500.
func Require(guard Guard, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := guard.Authenticate(c)
		if err == nil {
			metrics.AuthAttempts.WithLabelValues(guard.Scheme(), "authorized").Inc()
			c.Set(userKey, user)
			c.Next()
			return
		}

		entry := log.WithFields(logrus.Fields{
			"scheme":     guard.Scheme(),
			"path":       c.FullPath(),
			"request_id": c.GetString(RequestIDKey),
		})
		if !isRejection(err) {
			metrics.AuthAttempts.WithLabelValues(guard.Scheme(), "error").Inc()
			entry.WithError(err).Error("auth guard failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  "not ok",
				"message": "internal server error",
			})
			return
		}

		metrics.AuthAttempts.WithLabelValues(guard.Scheme(), "rejected").Inc()
		entry.WithError(err).Warn("request rejected")
		challenge := guard.Scheme()
		if challenge == SchemeBasic {
			challenge += fmt.Sprintf(" realm=%q", realm)
		}
		c.Header("WWW-Authenticate", challenge)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "not ok",
			"message": rejectionMessage(err),
		})
	}
}

// CurrentUser returns the user resolved by Require.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUnboundToken)
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "Authentication required."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	default:
		return "Invalid or expired token."
	}
}
