// Package identity supplies the caller identity the ledger consumes from its
// host: an opaque actor name carried in a signed token, so callers cannot
// self-assign someone else's identity.
package identity

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActorClaims are the JWT claims for an actor token. The actor identity is
// the Subject claim.
type ActorClaims struct {
	jwt.RegisteredClaims
}

// Issuer issues and verifies actor tokens signed with RS256.
type Issuer struct {
	key    *rsa.PrivateKey
	pub    *rsa.PublicKey
	issuer string
	ttl    time.Duration
}

// NewIssuer creates an Issuer.
//
//	issuerURL — the "iss" claim value; typically the ledger's base URL.
//	ttl       — token lifetime (default: 24 hours).
func NewIssuer(key *rsa.PrivateKey, issuerURL string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{
		key:    key,
		pub:    &key.PublicKey,
		issuer: issuerURL,
		ttl:    ttl,
	}
}

// Issue creates a signed token for the given actor identity.
func (i *Issuer) Issue(actor string) (string, error) {
	if actor == "" {
		return "", fmt.Errorf("actor is required")
	}

	now := time.Now().UTC()
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   actor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the actor identity it
// carries.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&ActorClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return i.pub, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}
