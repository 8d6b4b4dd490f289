// Package auth provides credential hashing and session token handling.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	hashKeyLen  = 32
	hashSaltLen = 16
)

var (
	// ErrInvalidHash indicates the hash format is invalid.
	ErrInvalidHash = errors.New("invalid hash format")
	// ErrIncompatibleVersion indicates the hash version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// HasherParams control the Argon2id work factor.
// Defaults follow the OWASP recommended minimum (~100ms per hash
// on commodity hardware); tune via configuration, never downward
// below these values in production.
type HasherParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultHasherParams returns the OWASP recommended minimum parameters.
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Time:    3,
		Memory:  64 * 1024, // 64 MB
		Threads: 4,
	}
}

// Hasher produces and verifies Argon2id password hashes in PHC string
// format. The zero value is not usable; construct with NewHasher.
type Hasher struct {
	params HasherParams

	// dummyHash is verified against when no real hash exists,
	// keeping login latency independent of account existence.
	dummyHash string
}

// NewHasher creates a Hasher with the given work factor.
// The dummy hash is precomputed once so that VerifyDummy costs the
// same as a real verification.
func NewHasher(params HasherParams) (*Hasher, error) {
	if params.Time == 0 || params.Memory == 0 || params.Threads == 0 {
		return nil, fmt.Errorf("hasher params must be non-zero: %+v", params)
	}

	h := &Hasher{params: params}

	dummy, err := h.Hash("gatekey-dummy-credential")
	if err != nil {
		return nil, fmt.Errorf("precompute dummy hash: %w", err)
	}
	h.dummyHash = dummy

	return h, nil
}

// Hash creates an Argon2id hash of the given password.
// Returns the hash in PHC string format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, hashSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Threads,
		hashKeyLen,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		b64Salt,
		b64Hash,
	), nil
}

// Verify checks if the password matches the encoded hash.
// The work factor embedded in the hash is used, so hashes created
// under older parameters keep verifying after a tuning change.
// Uses constant-time comparison to prevent timing attacks.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, ErrInvalidHash
	}

	if parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrInvalidHash
	}
	if version != argon2.Version {
		return false, ErrIncompatibleVersion
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrInvalidHash
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrInvalidHash
	}

	computedHash := argon2.IDKey(
		[]byte(password),
		salt,
		time,
		memory,
		threads,
		uint32(len(expectedHash)),
	)

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

// VerifyDummy burns a full verification against the precomputed dummy
// hash. Called on the no-such-account branch of login so that the
// response latency does not reveal whether the email exists.
func (h *Hasher) VerifyDummy(password string) {
	_, _ = h.Verify(password, h.dummyHash)
}
