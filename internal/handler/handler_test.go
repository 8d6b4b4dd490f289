package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/model"
	"github.com/gatekey/gatekey/internal/repository"
	"github.com/gatekey/gatekey/internal/service"
)

// fakeStore is an in-memory ProfileStore for handler tests.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]*model.Profile
	byEmail map[string]*model.Profile
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:    make(map[string]*model.Profile),
		byEmail: make(map[string]*model.Profile),
	}
}

func (s *fakeStore) CreateProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.byEmail[p.Email]; ok {
		return repository.ErrEmailExists
	}
	cp := *p
	s.byID[p.ID] = &cp
	s.byEmail[p.Email] = &cp
	return nil
}

func (s *fakeStore) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetProfileByID(_ context.Context, id string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) UpdateProfileName(_ context.Context, id, name string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	p.Name = name
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (s *fakeStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

type fakeBlocklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (b *fakeBlocklist) RevokeToken(_ context.Context, tokenID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked == nil {
		b.revoked = make(map[string]bool)
	}
	b.revoked[tokenID] = true
	return nil
}

func (b *fakeBlocklist) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revoked[tokenID], nil
}

// testEnv bundles a handler-level test fixture.
type testEnv struct {
	store *fakeStore
	svc   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hasher, err := auth.NewHasher(auth.HasherParams{Time: 1, Memory: 1024, Threads: 1})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	tokens, err := auth.NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	store := newFakeStore()
	svc := service.NewAuthService(store, hasher, tokens, &fakeBlocklist{}, nil)
	return &testEnv{store: store, svc: svc}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// decodeBody decodes a JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHello(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Hello(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["message"] == "" {
		t.Error("hello response missing message")
	}
}

func TestNotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
