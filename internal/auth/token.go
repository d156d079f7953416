// Package auth issues and verifies stateless session tokens and hashes passwords.
//
// A session token is an HS256 JWT carrying the principal id, username, role and
// source table captured at login. Verification never consults the credential
// store, so a role change only takes effect after the next login.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopscript/apiserver/types"
)

const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenInvalid covers malformed, tampered, or foreign tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Session is a freshly issued token with its validity window.
type Session struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Source   string `json:"src"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies session tokens with a shared secret.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner constructs a signer. The secret must not be empty.
func NewTokenSigner(secret string, ttl time.Duration) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	clone := *s
	clone.now = now
	return &clone
}

// TTL returns the validity window of issued tokens.
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the principal.
func (s *TokenSigner) Issue(p types.Principal) (Session, error) {
	now := s.now().Truncate(time.Second)
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		Username: p.Username,
		Role:     string(p.Role),
		Source:   string(p.Source),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: signed, IssuedAt: now, ExpiresAt: expires}, nil
}

// Verify checks signature and expiry and decodes the principal from the payload.
func (s *TokenSigner) Verify(tokenString string) (types.Principal, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return types.Principal{}, ErrTokenExpired
		}
		return types.Principal{}, ErrTokenInvalid
	}
	if !token.Valid {
		return types.Principal{}, ErrTokenInvalid
	}

	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return types.Principal{}, ErrTokenInvalid
	}
	role, ok := types.ParseRole(claims.Role)
	if !ok {
		return types.Principal{}, ErrTokenInvalid
	}
	source := types.PrincipalSource(claims.Source)
	if source != types.SourceAdmin && source != types.SourceUser {
		return types.Principal{}, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Username) == "" {
		return types.Principal{}, ErrTokenInvalid
	}

	return types.Principal{
		ID:       id,
		Username: claims.Username,
		Role:     role,
		Source:   source,
	}, nil
}
