// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/metrics"
	"github.com/gatekey/gatekey/internal/model"
	"github.com/gatekey/gatekey/internal/repository"
)

// Service errors. These are the complete set of expected outcomes;
// anything else escaping the service is a programmer error.
var (
	// ErrValidation indicates malformed input (bad email shape, weak
	// password). Wrapped errors carry the per-field reason.
	ErrValidation = errors.New("invalid input")
	// ErrEmailTaken indicates the email is already registered.
	// Registration endpoints conventionally disclose this.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionInvalid covers every way a presented token can fail:
	// bad signature, expired, malformed, revoked.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrStoreUnavailable indicates a store or cache failure.
	// Retryable by the caller; never surfaced with internal detail.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrHashing indicates a catastrophic hashing failure.
	ErrHashing = errors.New("password hashing failed")
)

// ProfileStore is the persistence dependency of the AuthService.
// *repository.Repository satisfies it; tests use an in-memory fake.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *model.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfileName(ctx context.Context, id, name string) (*model.Profile, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenBlocklist records revoked token ids until their natural expiry.
// *cache.Cache satisfies it.
type TokenBlocklist interface {
	RevokeToken(ctx context.Context, tokenID string, remaining time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthResult is the outcome of a successful registration or login.
// Profile is the sanitized view; the password hash never appears here.
type AuthResult struct {
	Profile model.ProfileView `json:"profile"`
	Token   string            `json:"token"`
}

// AuthService implements registration, login and session verification.
// All dependencies are injected at construction; the service holds no
// mutable state of its own.
type AuthService struct {
	store     ProfileStore
	hasher    *auth.Hasher
	tokens    *auth.TokenIssuer
	blocklist TokenBlocklist
	metrics   metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(store ProfileStore, hasher *auth.Hasher, tokens *auth.TokenIssuer, blocklist TokenBlocklist, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		blocklist: blocklist,
		metrics:   recorder,
	}
}

// NormalizeEmail canonicalizes an email for storage and lookup.
// Lowercasing makes uniqueness case-insensitive regardless of the
// store's collation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new profile and issues a session token.
//
// Email-format and password-strength validation is the transport
// layer's precondition; only emptiness is re-checked here. The
// pre-existence check is purely user-facing - the insert relies on the
// store's unique index, so a concurrent duplicate registration still
// resolves to exactly one success.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if exists {
		s.metrics.IncRegisterDuplicate()
		return nil, ErrEmailTaken
	}

	hashStart := time.Now()
	passwordHash, err := s.hasher.Hash(password)
	s.metrics.ObserveHashDuration(time.Since(hashStart))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHashing, err)
	}

	now := time.Now().UTC()
	profile := &model.Profile{
		ID:           ulid.Make().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost the race to a concurrent registration.
			s.metrics.IncRegisterDuplicate()
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	token, err := s.tokens.Issue(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncRegisterSuccess()

	return &AuthResult{Profile: profile.View(), Token: token}, nil
}

// Login verifies credentials and issues a session token.
//
// Unknown email and wrong password return the identical
// ErrInvalidCredentials; the unknown-email branch still burns a full
// hash verification so response latency does not differ either.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			s.hasher.VerifyDummy(password)
			s.metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	match, err := s.hasher.Verify(password, profile.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLoginSuccess()

	return &AuthResult{Profile: profile.View(), Token: token}, nil
}

// VerifySession validates a presented token and returns the session it
// carries. Signature, expiry and the revocation blocklist are all
// checked; a blocklist lookup failure fails closed as
// ErrStoreUnavailable rather than admitting a possibly revoked token.
func (s *AuthService) VerifySession(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.metrics.IncSessionRejected()
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	revoked, err := s.blocklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if revoked {
		s.metrics.IncSessionRejected()
		return nil, fmt.Errorf("%w: token revoked", ErrSessionInvalid)
	}

	s.metrics.IncSessionVerified()

	return &model.Session{
		UserID:  claims.UserID(),
		TokenID: claims.ID,
		Expires: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the presented token for its remaining lifetime.
// An already expired or otherwise invalid token is not an error; the
// caller's goal (the token no longer works) is already met.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if err := s.blocklist.RevokeToken(ctx, claims.ID, remaining); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.metrics.IncSessionRevoked()

	return nil
}

// Profile returns the sanitized view of a profile by id.
func (s *AuthService) Profile(ctx context.Context, userID string) (model.ProfileView, error) {
	profile, err := s.store.GetProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return model.ProfileView{}, fmt.Errorf("%w: profile gone", ErrSessionInvalid)
		}
		return model.ProfileView{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return profile.View(), nil
}

// UpdateName changes the display name of a profile.
func (s *AuthService) UpdateName(ctx context.Context, userID, name string) (model.ProfileView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ProfileView{}, fmt.Errorf("%w: name is required", ErrValidation)
	}

	profile, err := s.store.UpdateProfileName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return model.ProfileView{}, fmt.Errorf("%w: profile gone", ErrSessionInvalid)
		}
		return model.ProfileView{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return profile.View(), nil
}
