//go:build e2e

// Package e2e drives a running Gatekey server end to end over HTTP.
// Requires a server with its database and Redis already up:
//
//	GATEKEY_BASE_URL=http://localhost:8080 go test -tags e2e ./tests/e2e/
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Profile profileResponse `json:"profile"`
	Token   string          `json:"token"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("GATEKEY_BASE_URL", "http://localhost:8080")
	client := &http.Client{Timeout: 10 * time.Second}

	requireHealthy(t, client, baseURL)

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
	password := "correct-horse-4"

	// Register
	reg := register(t, client, baseURL, email, password)
	if reg.Token == "" {
		t.Fatal("registration returned no token")
	}
	if reg.Profile.Email != email {
		t.Fatalf("registered email = %q, want %q", reg.Profile.Email, email)
	}

	// Duplicate registration conflicts
	status, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	if status != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409, body %s", status, body)
	}
	if code := decodeError(t, body).Code; code != "EMAIL_TAKEN" {
		t.Fatalf("duplicate register code = %q, want EMAIL_TAKEN", code)
	}

	// Login with the right password
	login := loginAs(t, client, baseURL, email, password)

	// Wrong password is a 401, as is an unknown email, with the same body
	statusWrong, bodyWrong := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"wrong-horse-4"}`, email))
	statusUnknown, bodyUnknown := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "",
		`{"email":"nobody-e2e@example.com","password":"correct-horse-4"}`)
	if statusWrong != http.StatusUnauthorized || statusUnknown != http.StatusUnauthorized {
		t.Fatalf("login failure statuses = %d, %d, want 401, 401", statusWrong, statusUnknown)
	}
	if bodyWrong != bodyUnknown {
		t.Fatalf("login failure bodies differ:\n%s\n%s", bodyWrong, bodyUnknown)
	}
	if code := decodeError(t, bodyWrong).Code; code != "INVALID_CREDENTIALS" {
		t.Fatalf("login failure code = %q, want INVALID_CREDENTIALS", code)
	}

	// Session endpoint reflects the token
	var session sessionResponse
	getJSON(t, client, baseURL+"/api/v1/auth/session", login.Token, &session)
	if session.UserID != reg.Profile.ID {
		t.Fatalf("session user = %q, want %q", session.UserID, reg.Profile.ID)
	}

	// Profile update round-trips
	status, body = doJSON(t, client, http.MethodPatch, baseURL+"/api/v1/profile", login.Token,
		`{"name":"E2E Renamed"}`)
	if status != http.StatusOK {
		t.Fatalf("profile update status = %d, body %s", status, body)
	}
	var updated profileResponse
	getJSON(t, client, baseURL+"/api/v1/profile", login.Token, &updated)
	if updated.Name != "E2E Renamed" {
		t.Fatalf("profile name = %q, want E2E Renamed", updated.Name)
	}

	// Logout revokes the token
	status, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/logout", login.Token, "")
	if status != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", status)
	}
	status, body = doJSON(t, client, http.MethodGet, baseURL+"/api/v1/auth/session", login.Token, "")
	if status != http.StatusUnauthorized {
		t.Fatalf("session after logout status = %d, want 401", status)
	}
	if code := decodeError(t, body).Code; code != "UNAUTHORIZED" {
		t.Fatalf("session after logout code = %q, want UNAUTHORIZED", code)
	}
}

// decodeError parses an error body in the API's flat shape.
func decodeError(t *testing.T, body string) errorResponse {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode error body: %v\nbody: %s", err, body)
	}
	return out
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func requireHealthy(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	resp, err := client.Get(baseURL + "/readyz")
	if err != nil {
		t.Fatalf("server not reachable at %s: %v", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("server not ready: %d %s", resp.StatusCode, body)
	}
}

func register(t *testing.T, client *http.Client, baseURL, email, password string) *authResponse {
	t.Helper()
	status, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/register", "",
		fmt.Sprintf(`{"email":%q,"password":%q,"name":"E2E"}`, email, password))
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", status, body)
	}
	var out authResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return &out
}

func loginAs(t *testing.T, client *http.Client, baseURL, email, password string) *authResponse {
	t.Helper()
	status, body := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	if status != http.StatusOK {
		t.Fatalf("login status = %d, body %s", status, body)
	}
	var out authResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return &out
}

func getJSON(t *testing.T, client *http.Client, url, token string, v any) {
	t.Helper()
	status, body := doJSON(t, client, http.MethodGet, url, token, "")
	if status != http.StatusOK {
		t.Fatalf("GET %s status = %d, body %s", url, status, body)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("decode %s response: %v", url, err)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token, body string) (int, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp.StatusCode, string(respBody)
}
