package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenInvalid indicates the token is malformed, carries a bad
	// signature, or was signed with an unexpected algorithm or secret.
	ErrTokenInvalid = errors.New("jwt: token invalid")
	// ErrTokenExpired indicates the token's signature verified but it is past
	// its expiry.
	ErrTokenExpired = errors.New("jwt: token expired")
	// ErrTokenPurposeMismatch indicates a scoped token was presented for a
	// purpose other than the one it was minted for.
	ErrTokenPurposeMismatch = errors.New("jwt: token purpose mismatch")
)

// ScopedTokenPurposeInvite authorizes accepting an administrator invite.
const ScopedTokenPurposeInvite = "invite"

// SessionClaims carry the minimal identity snapshot embedded in session
// tokens. The disabled flag is a snapshot at issue time; validation re-checks
// the live record.
type SessionClaims struct {
	Email    string `json:"email"`
	Disabled bool   `json:"disabled"`
	// Purpose is never set on session tokens. It is decoded so a scoped
	// single-action token cannot pass as a session when both classes share
	// a secret.
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// ScopedClaims carry a resource id and a purpose, nothing else. Used for
// invite links and other single-action grants.
type ScopedClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenServiceConfig holds the secrets and TTLs for both token classes.
type TokenServiceConfig struct {
	Issuer        string
	SessionSecret string
	SessionTTL    time.Duration
	ScopedSecret  string
	ScopedTTL     time.Duration
}

// TokenService mints and validates HS256 session and scoped tokens.
type TokenService struct {
	cfg TokenServiceConfig
}

// NewTokenService constructs a TokenService after validating secrets.
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, fmt.Errorf("jwt: session secret is required")
	}
	if strings.TrimSpace(cfg.ScopedSecret) == "" {
		cfg.ScopedSecret = cfg.SessionSecret
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.ScopedTTL <= 0 {
		cfg.ScopedTTL = 3 * time.Hour
	}

	return &TokenService{cfg: cfg}, nil
}

// SessionTTL exposes the configured session token lifetime.
func (s *TokenService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

// ScopedTTL exposes the configured scoped token lifetime.
func (s *TokenService) ScopedTTL() time.Duration {
	return s.cfg.ScopedTTL
}

// IssueSessionToken signs a session token for the supplied identity snapshot.
func (s *TokenService) IssueSessionToken(adminID, email string, disabled bool) (string, error) {
	return s.IssueSessionTokenAt(adminID, email, disabled, time.Now().UTC(), s.cfg.SessionTTL)
}

// IssueSessionTokenAt signs a session token with an explicit issue time and
// TTL. Split out so tests can pin the clock.
func (s *TokenService) IssueSessionTokenAt(adminID, email string, disabled bool, issuedAt time.Time, ttl time.Duration) (string, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return "", fmt.Errorf("jwt: admin id is required")
	}
	if ttl <= 0 {
		ttl = s.cfg.SessionTTL
	}

	issuedAt = issuedAt.UTC()
	claims := SessionClaims{
		Email:    email,
		Disabled: disabled,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SessionSecret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign session token: %w", err)
	}

	return signed, nil
}

// ParseSessionToken verifies signature before expiry and returns the embedded
// claims. Tokens signed with a non-HMAC algorithm are rejected outright.
func (s *TokenService) ParseSessionToken(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(token, claims, s.cfg.SessionSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IssueScopedToken signs a single-purpose token for the supplied resource id.
func (s *TokenService) IssueScopedToken(resourceID, purpose string, ttl time.Duration) (string, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return "", fmt.Errorf("jwt: resource id is required")
	}
	purpose = strings.TrimSpace(purpose)
	if purpose == "" {
		return "", fmt.Errorf("jwt: purpose is required")
	}
	if ttl <= 0 {
		ttl = s.cfg.ScopedTTL
	}

	now := time.Now().UTC()
	claims := ScopedClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   resourceID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.ScopedSecret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign scoped token: %w", err)
	}

	return signed, nil
}

// ParseScopedToken validates a scoped token and enforces its purpose.
func (s *TokenService) ParseScopedToken(token, purpose string) (*ScopedClaims, error) {
	claims := &ScopedClaims{}
	if err := s.parse(token, claims, s.cfg.ScopedSecret); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenPurposeMismatch
	}
	return claims, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}

	return nil
}
