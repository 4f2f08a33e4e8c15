package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	schemeBcrypt = "bcrypt"
	schemeArgon2 = "argon2"
)

var (
	// ErrMismatchedPassword reports a secret that does not match the stored hash.
	ErrMismatchedPassword = errors.New("auth: password mismatch")
	// ErrUnsupportedHash reports a stored hash without a known {scheme} prefix.
	ErrUnsupportedHash = errors.New("auth: unsupported password hash")
)

// PasswordEncoder encodes new secrets as {bcrypt} and verifies any stored
// {bcrypt} or {argon2} hash.
type PasswordEncoder struct {
	cost int
}

// NewPasswordEncoder builds an encoder with the given bcrypt cost. Values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewPasswordEncoder(cost int) *PasswordEncoder {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordEncoder{cost: cost}
}

// Encode hashes raw and prefixes the scheme identifier.
func (e *PasswordEncoder) Encode(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), e.cost)
	if err != nil {
		return "", fmt.Errorf("encode password: %w", err)
	}
	return "{" + schemeBcrypt + "}" + string(hashed), nil
}

// Matches verifies raw against an encoded hash. It returns nil on success,
// ErrMismatchedPassword on a wrong secret and ErrUnsupportedHash when the
// hash carries no usable scheme.
func (e *PasswordEncoder) Matches(raw, encoded string) error {
	scheme, hash, ok := splitScheme(encoded)
	if !ok {
		return ErrUnsupportedHash
	}
	switch scheme {
	case schemeBcrypt:
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrMismatchedPassword
		default:
			return fmt.Errorf("%w: %v", ErrUnsupportedHash, err)
		}
	case schemeArgon2:
		return matchArgon2(raw, hash)
	default:
		return ErrUnsupportedHash
	}
}

func splitScheme(encoded string) (scheme, hash string, ok bool) {
	if !strings.HasPrefix(encoded, "{") {
		return "", "", false
	}
	end := strings.IndexByte(encoded, '}')
	if end < 2 {
		return "", "", false
	}
	return encoded[1:end], encoded[end+1:], true
}

// matchArgon2 verifies a PHC formatted argon2id hash:
// $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>
func matchArgon2(raw, hash string) error {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrUnsupportedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return ErrUnsupportedHash
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return ErrUnsupportedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrUnsupportedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return ErrUnsupportedHash
	}
	got := argon2.IDKey([]byte(raw), salt, iterations, memory, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatchedPassword
	}
	return nil
}

// EncodeArgon2 renders an argon2id hash in the {argon2} format accepted by
// Matches. The parameters follow the argon2 package recommendations.
func EncodeArgon2(raw string, salt []byte) string {
	const (
		memory     = 64 * 1024
		iterations = 1
		threads    = 4
		keyLen     = 32
	)
	key := argon2.IDKey([]byte(raw), salt, iterations, memory, threads, keyLen)
	return fmt.Sprintf("{%s}$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		schemeArgon2, argon2.Version, memory, iterations, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}
