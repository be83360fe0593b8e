package security

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

var errInvalidConfig = errors.New("pbkdf2: invalid configuration")

// PBKDF2Config defines tunable parameters for PBKDF2-SHA512 password hashing.
type PBKDF2Config struct {
	Iterations int
	SaltLength int
	KeyLength  int
}

var (
	defaultPBKDF2Config = PBKDF2Config{
		Iterations: 10000,
		SaltLength: 16,
		KeyLength:  512,
	}

	activePBKDF2Config = defaultPBKDF2Config
	pbkdf2ConfigMu     sync.RWMutex
)

// DefaultPBKDF2Config returns the library default hashing configuration.
func DefaultPBKDF2Config() PBKDF2Config {
	return defaultPBKDF2Config
}

// CurrentPBKDF2Config returns the currently active hashing configuration.
func CurrentPBKDF2Config() PBKDF2Config {
	pbkdf2ConfigMu.RLock()
	defer pbkdf2ConfigMu.RUnlock()
	return activePBKDF2Config
}

// ConfigurePBKDF2 sets the active hashing configuration after validation.
func ConfigurePBKDF2(cfg PBKDF2Config) error {
	if err := validatePBKDF2Config(cfg); err != nil {
		return err
	}

	pbkdf2ConfigMu.Lock()
	activePBKDF2Config = cfg
	pbkdf2ConfigMu.Unlock()
	return nil
}

func validatePBKDF2Config(cfg PBKDF2Config) error {
	if cfg.Iterations < 10000 {
		return fmt.Errorf("%w: iterations must be at least 10000", errInvalidConfig)
	}
	if cfg.SaltLength < 16 {
		return fmt.Errorf("%w: salt length must be at least 16 bytes", errInvalidConfig)
	}
	if cfg.KeyLength < 64 {
		return fmt.Errorf("%w: key length must be at least 64 bytes", errInvalidConfig)
	}
	return nil
}

// HashPassword derives a PBKDF2-SHA512 key from the password under a fresh
// random salt. The returned value is encoded as "saltHex$keyHex", the format
// the platform has stored since its first release.
func HashPassword(password string) (string, error) {
	cfg := CurrentPBKDF2Config()

	salt := make([]byte, cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("pbkdf2: generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	key := pbkdf2.Key([]byte(password), []byte(saltHex), cfg.Iterations, cfg.KeyLength, sha512.New)

	return saltHex + "$" + hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the key from the candidate password using the salt
// embedded in the stored hash and compares in constant time. Malformed or
// unrecognized stored values verify false without error so legacy records
// degrade to a failed login rather than a 500.
func VerifyPassword(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 2 {
		return false, nil
	}

	saltHex, keyHex := parts[0], parts[1]
	expected, err := hex.DecodeString(keyHex)
	if err != nil || len(expected) == 0 {
		return false, nil
	}

	cfg := CurrentPBKDF2Config()
	computed := pbkdf2.Key([]byte(password), []byte(saltHex), cfg.Iterations, len(expected), sha512.New)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
