package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/handler/dto"
	"github.com/gatekey/gatekey/internal/service"
)

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger *slog.Logger
	Auth   *service.AuthService
}

// Session returns a middleware that authenticates requests by their
// session token. It extracts the bearer token from the Authorization
// header, verifies it, and injects the session into the request
// context. Requests without a valid session get a 401.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				cfg.Logger.Warn("session rejected",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionError(w)
				return
			}

			// Every verification failure gets the same 401, including a
			// blocklist outage: a token whose revocation state is unknown
			// must not be admitted, and the body must not reveal which
			// check failed.
			session, err := cfg.Auth.VerifySession(r.Context(), token)
			if err != nil {
				cfg.Logger.Warn("session rejected",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeSessionError(w)
				return
			}

			ctx := auth.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken pulls the token out of "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// writeSessionError writes a 401 Unauthorized response.
// Uses the same message for all session failures to prevent enumeration,
// in the flat error shape the rest of the API uses.
func writeSessionError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error: "Invalid or missing session token",
		Code:  "UNAUTHORIZED",
	})
}
