package utils // package utils provides helpers for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is the uniform failure for any bearer token problem:
// bad signature, malformed claims or elapsed expiry.  Callers must not be
// able to distinguish which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// BearerToken is a signed, stateless credential bound to an identity.  The
// Token field contains the serialized JWT; Exp records when it stops
// verifying.  Bearer tokens are never persisted and are independent of the
// server-side session: logging out does not revoke an already-issued token,
// it simply expires on its own.
type BearerToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenPayload is the identity information carried inside a bearer token.
type TokenPayload struct {
	UserID uint64 // subject user id
	Email  string // email snapshot at issue time
}

// NewBearerToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the payload, and a TTL in minutes.  The JWT carries the
// standard claims sub, exp and iat plus an email claim.  Issuing has no
// side effects.
func NewBearerToken(secret string, p TokenPayload, ttlMin int) (BearerToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   p.UserID,
		"email": p.Email,
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return BearerToken{}, err
	}
	return BearerToken{Token: signed, Exp: exp}, nil
}

// VerifyBearerToken checks signature and expiry and returns the embedded
// payload.  It deliberately consults nothing beyond the token itself; a
// session that has since been logged out does not invalidate the token.
func VerifyBearerToken(secret, raw string) (TokenPayload, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenPayload{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenPayload{}, ErrInvalidToken
	}
	var p TokenPayload
	switch sub := claims["sub"].(type) {
	case float64:
		// JWT numeric values decode as float64; convert to uint64.
		p.UserID = uint64(sub)
	default:
		return TokenPayload{}, ErrInvalidToken
	}
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if p.UserID == 0 {
		return TokenPayload{}, ErrInvalidToken
	}
	return p, nil
}
