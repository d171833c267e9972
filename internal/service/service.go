// Package service holds the account use cases: registration, login, logout
// and session checks.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"souqbridge-identity/internal/core/auth"
	"souqbridge-identity/internal/core/cache"
	"souqbridge-identity/internal/domain"
	"souqbridge-identity/internal/storage"
	"souqbridge-identity/internal/validate"
	"souqbridge-identity/pkg/utils"
)

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(subjectID string, role domain.Role, extended bool) (string, *auth.Claims, error)
	Parse(token string) (*auth.Claims, error)
}

// ErrInvalidSession is what callers see for absent, forged, expired or
// revoked tokens alike.
var ErrInvalidSession = domain.Unauthenticated("invalid session")

type Deps struct {
	Repo      domain.IdentityRepository
	Tokens    TokenCodec
	Denylist  cache.Denylist
	Cache     *cache.Cache
	Documents *storage.Documents
	Validator *validate.Validator
	Log       *zap.Logger
}

// Accounts wires the identity store, token codec, revocation list and
// document store together.
type Accounts struct {
	repo      domain.IdentityRepository
	tokens    TokenCodec
	denylist  cache.Denylist
	cache     *cache.Cache
	docs      *storage.Documents
	validator *validate.Validator
	log       *zap.Logger

	newID   func() string
	now     func() time.Time
	nameTTL time.Duration
}

func NewAccounts(d Deps) *Accounts {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Cache == nil {
		d.Cache = cache.New("", "", 0)
	}
	if d.Denylist == nil {
		d.Denylist = cache.NewDenylist(d.Cache)
	}
	return &Accounts{
		repo:      d.Repo,
		tokens:    d.Tokens,
		denylist:  d.Denylist,
		cache:     d.Cache,
		docs:      d.Documents,
		validator: d.Validator,
		log:       d.Log,
		newID:     utils.NewID,
		now:       time.Now,
		nameTTL:   5 * time.Minute,
	}
}

// Session is a freshly issued token and what the client needs alongside it.
type Session struct {
	IdentityID  string
	Role        domain.Role
	DisplayName string
	Token       string
	ExpiresAt   time.Time
	RememberMe  bool
}

func (a *Accounts) session(ident *domain.Identity, extended bool) (*Session, error) {
	tok, claims, err := a.tokens.Issue(ident.ID, ident.Role, extended)
	if err != nil {
		return nil, domain.Storage("could not issue session", err)
	}
	return &Session{
		IdentityID:  ident.ID,
		Role:        ident.Role,
		DisplayName: utils.FirstWord(ident.DisplayName, "Account"),
		Token:       tok,
		ExpiresAt:   claims.ExpiresAt.Time,
		RememberMe:  extended,
	}, nil
}

// Authenticate verifies token and checks the revocation list.
func (a *Accounts) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, domain.StorageRetryable("session store unavailable", err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}
	return &domain.Principal{
		SubjectID: claims.SubjectID(),
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Health pings the relational store and, when configured, redis.
func (a *Accounts) Health(ctx context.Context) error {
	if err := a.repo.Ping(ctx); err != nil {
		return err
	}
	if err := a.cache.Ping(ctx); err != nil {
		return domain.StorageRetryable("cache unavailable", err)
	}
	return nil
}

// SetAllOffline is the shutdown hook: one bulk presence reset.
func (a *Accounts) SetAllOffline(ctx context.Context) (int64, error) {
	n, err := a.repo.SetAllOffline(ctx)
	if err != nil {
		return 0, err
	}
	a.log.Info("presence reset", zap.Int64("profiles", n))
	return n, nil
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }
