// Command bootstrap-profile seeds an initial profile directly in the
// store. Intended for local development and smoke tests; production
// accounts go through the registration endpoint.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatekey/gatekey/internal/auth"
	"github.com/gatekey/gatekey/internal/model"
	"github.com/gatekey/gatekey/internal/repository"
)

type output struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "admin@gatekey.local", "Profile email")
		name        = flag.String("name", "bootstrap", "Display name")
		password    = flag.String("password", "", "Password (generated if empty)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	plaintext := *password
	generated := false
	if plaintext == "" {
		var err error
		plaintext, err = generatePassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate password:", err)
			os.Exit(1)
		}
		generated = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hasher, err := auth.NewHasher(auth.DefaultHasherParams())
	if err != nil {
		fmt.Fprintln(os.Stderr, "init hasher:", err)
		os.Exit(1)
	}

	passwordHash, err := hasher.Hash(plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	profile := &model.Profile{
		ID:           ulid.Make().String(),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		Name:         *name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			fmt.Fprintln(os.Stderr, "profile already exists:", profile.Email)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "create profile:", err)
		os.Exit(1)
	}

	out := output{
		ProfileID: profile.ID,
		Email:     profile.Email,
	}
	if generated {
		out.Password = plaintext
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.ProfileID)
		if generated {
			fmt.Println(out.Password)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// generatePassword returns a random password strong enough to pass
// registration-grade validation.
func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "gk1-" + base64.RawURLEncoding.EncodeToString(buf), nil
}
