package identity

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CallerTokenClaims are the JWT claims for a caller token. The token carries
// the caller's creator blob so the ledger derives the same Caller it would
// from a certificate.
type CallerTokenClaims struct {
	jwt.RegisteredClaims
	Creator  string `json:"creator"` // base64 creator blob
	Provider string `json:"provider"`
}

// TokenIssuer issues and verifies caller tokens signed with HS256.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
//
//	secret: HMAC key shared by the daemon and whoever mints tokens.
//	issuer: the "iss" claim value.
//	ttl   : token lifetime (default: 1 hour).
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue creates a signed caller token for creator.
func (t *TokenIssuer) Issue(creator []byte) (string, error) {
	caller, err := FromCreator(creator)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	claims := CallerTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   caller.ClientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		Creator:  base64.StdEncoding.EncodeToString(creator),
		Provider: caller.Provider,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a caller token and returns its Caller.
func (t *TokenIssuer) Verify(tokenStr string) (Caller, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&CallerTokenClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Caller{}, fmt.Errorf("verify token: %w", err)
	}

	claims, ok := token.Claims.(*CallerTokenClaims)
	if !ok || !token.Valid {
		return Caller{}, fmt.Errorf("invalid token claims")
	}
	caller, err := FromCreatorBase64(claims.Creator)
	if err != nil {
		return Caller{}, fmt.Errorf("token creator: %w", err)
	}
	return caller, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }
