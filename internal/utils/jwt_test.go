package utils

import (
	"testing"
)

func TestBearerTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	payload := TokenPayload{UserID: 42, Email: "alice@example.com"}

	tok, err := NewBearerToken(secret, payload, 15)
	if err != nil {
		t.Fatalf("NewBearerToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("expected non-empty token")
	}

	got, err := VerifyBearerToken(secret, tok.Token)
	if err != nil {
		t.Fatalf("VerifyBearerToken: %v", err)
	}
	if got != payload {
		t.Fatalf("payload round trip: got %+v want %+v", got, payload)
	}
}

func TestBearerTokenExpired(t *testing.T) {
	tok, err := NewBearerToken("s", TokenPayload{UserID: 1, Email: "a@b.c"}, -1)
	if err != nil {
		t.Fatalf("NewBearerToken: %v", err)
	}
	if _, err := VerifyBearerToken("s", tok.Token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestBearerTokenWrongSecret(t *testing.T) {
	tok, err := NewBearerToken("secret-a", TokenPayload{UserID: 7, Email: "x@y.z"}, 15)
	if err != nil {
		t.Fatalf("NewBearerToken: %v", err)
	}
	if _, err := VerifyBearerToken("secret-b", tok.Token); err == nil {
		t.Fatal("expected wrong-secret verification to fail")
	}
}

func TestBearerTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := VerifyBearerToken("s", raw); err == nil {
			t.Fatalf("expected garbage token %q to fail verification", raw)
		}
	}
}
