package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"plusnotify/internal/identity/model"
	"plusnotify/pkg/logger"
)

var ErrNotASubscriber = errors.New("not a subscriber")

type Repository interface {
	GetBySession(ctx context.Context, sessionKey string) (model.User, error)
	UpsertSubscriber(ctx context.Context, p model.Payload) (model.User, error)
}

// TokenValidator checks a bearer credential with the identity authority.
// Rejections come back as a payload with Error set, not as an error.
type TokenValidator interface {
	Validate(ctx context.Context, token string) model.Payload
}

type Resolver struct {
	Repo       Repository
	Validator  TokenValidator
	CookieName string
}

func NewResolver(repo Repository, validator TokenValidator, cookieName string) *Resolver {
	return &Resolver{Repo: repo, Validator: validator, CookieName: cookieName}
}

// Resolve finds the subscriber behind a request: a live session wins,
// otherwise the Authorization header is validated and its subject is
// provisioned on first use.
func (s *Resolver) Resolve(r *http.Request) (model.User, error) {
	ctx := r.Context()

	if user, ok := s.fromSession(ctx, r); ok {
		return user, nil
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return model.User{}, ErrNotASubscriber
	}

	payload := s.Validator.Validate(ctx, token)
	if payload.Error != "" {
		logger.Sugar.Debugf("Token rejected: %s", payload.Error)
		return model.User{}, fmt.Errorf("%w: %s", ErrNotASubscriber, payload.Error)
	}
	if payload.Subject == "" {
		return model.User{}, fmt.Errorf("%w: missing subject", ErrNotASubscriber)
	}

	user, err := s.Repo.UpsertSubscriber(ctx, payload)
	if err != nil {
		return model.User{}, fmt.Errorf("provision subscriber: %w", err)
	}
	return user, nil
}

// IsSubscriber is the non-raising form of Resolve.
func (s *Resolver) IsSubscriber(r *http.Request) (model.User, bool) {
	user, err := s.Resolve(r)
	if err != nil {
		if !errors.Is(err, ErrNotASubscriber) {
			logger.Sugar.Errorf("Subscriber check failed: %v", err)
		}
		return model.User{}, false
	}
	return user, true
}

func (s *Resolver) fromSession(ctx context.Context, r *http.Request) (model.User, bool) {
	if s.CookieName == "" {
		return model.User{}, false
	}
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return model.User{}, false
	}
	user, err := s.Repo.GetBySession(ctx, cookie.Value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Sugar.Errorf("Session lookup failed: %v", err)
		}
		return model.User{}, false
	}
	return user, true
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return header
}
