// Package token issues and verifies the bearer credentials that bind a
// caller to an email identity. Tokens are RS256-signed JWTs with the
// email as subject; expiry is the only invalidation mechanism.
package token

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/samiul-it/parts-station-server/pkg/keyfetcher"
)

const (
	// DefaultTTL bounds the lifetime of an issued credential.
	DefaultTTL = time.Hour

	// DefaultClockSkewTolerance allows for clock drift between the
	// issuing and verifying hosts when checking issued-at times.
	DefaultClockSkewTolerance = 5 * time.Minute
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed token, expired, or claims that do not match this service.
var ErrInvalidToken = errors.New("invalid token")

// Config holds the claim values shared by issuer and verifier.
type Config struct {
	Issuer    string
	Audience  string
	TTL       time.Duration // Optional: defaults to DefaultTTL
	ClockSkew time.Duration // Optional: defaults to DefaultClockSkewTolerance
}

// Issuer signs identity tokens. Stateless beyond the signing key.
type Issuer struct {
	keys     keyfetcher.PrivateKeyFetcher
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer creates an Issuer with the given key source and claims.
func NewIssuer(keys keyfetcher.PrivateKeyFetcher, cfg Config) *Issuer {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &Issuer{
		keys:     keys,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
	}
}

// Issue produces a signed, time-bounded credential with email as the
// subject claim.
func (i *Issuer) Issue(email string) (string, error) {
	privateKey, err := i.keys.FetchPrivateKey()
	if err != nil {
		return "", fmt.Errorf("fetch private key: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   email,
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verifier validates identity tokens and extracts the subject email.
type Verifier struct {
	keys      keyfetcher.PublicKeyFetcher
	issuer    string
	audience  string
	clockSkew time.Duration
}

// NewVerifier creates a Verifier with the given key source and claims.
func NewVerifier(keys keyfetcher.PublicKeyFetcher, cfg Config) *Verifier {
	clockSkew := cfg.ClockSkew
	if clockSkew == 0 {
		clockSkew = DefaultClockSkewTolerance
	}

	return &Verifier{
		keys:      keys,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
		clockSkew: clockSkew,
	}
}

// Verify validates signature and expiry and returns the subject email.
// Any failure is reported as (a wrapped) ErrInvalidToken.
func (v *Verifier) Verify(tokenString string) (string, error) {
	key, err := v.keys.FetchPublicKey()
	if err != nil {
		return "", fmt.Errorf("fetch public key: %w", err)
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		// Pin the signing method so an attacker cannot downgrade to
		// a symmetric algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if err := v.validateClaims(claims); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims.Subject, nil
}

func (v *Verifier) validateClaims(claims *jwt.RegisteredClaims) error {
	if claims.Subject == "" {
		return errors.New("missing subject claim")
	}

	if claims.Issuer != v.issuer {
		return fmt.Errorf("invalid issuer: got %s, want %s", claims.Issuer, v.issuer)
	}

	if !slices.Contains(claims.Audience, v.audience) {
		return fmt.Errorf("invalid audience: missing %s", v.audience)
	}

	if claims.ExpiresAt == nil {
		return errors.New("missing expiration claim")
	}

	if claims.IssuedAt != nil && claims.IssuedAt.After(time.Now().Add(v.clockSkew)) {
		return errors.New("token issued too far in future")
	}

	return nil
}
