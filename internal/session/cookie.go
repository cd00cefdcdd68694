package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CookieName is the client-visible cookie that carries the signed session
// identifier.
const CookieName = "sid"

// SignCookie returns the cookie value for a session identifier:
// "<id>.<hmac-sha256(id)>".  The signature prevents a client from minting
// identifiers; the identifier itself stays opaque.
func SignCookie(id, secret string) string {
	return id + "." + cookieSig(id, secret)
}

// VerifyCookie validates a cookie value and returns the embedded session
// identifier.  Tampered, unsigned or malformed values return ok=false and
// are treated by callers as "no session".
func VerifyCookie(value, secret string) (id string, ok bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 || i == len(value)-1 {
		return "", false
	}
	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(cookieSig(id, secret))) {
		return "", false
	}
	return id, true
}

func cookieSig(id, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
