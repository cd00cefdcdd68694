package session

import "testing"

func TestCookieSignVerify(t *testing.T) {
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	value := SignCookie(id, "secret")
	got, ok := VerifyCookie(value, "secret")
	if !ok {
		t.Fatal("expected signed cookie to verify")
	}
	if got != id {
		t.Fatalf("verified id = %q, want %q", got, id)
	}
}

func TestCookieTamperedValueRejected(t *testing.T) {
	value := SignCookie("abc123", "secret")

	cases := []string{
		"",
		"abc123",                         // no signature
		"abc123.",                        // empty signature
		value + "0",                      // mangled signature
		"zzz999" + value[len("abc123"):], // swapped identifier
	}
	for _, v := range cases {
		if _, ok := VerifyCookie(v, "secret"); ok {
			t.Fatalf("expected %q to be rejected", v)
		}
	}
	if _, ok := VerifyCookie(value, "other-secret"); ok {
		t.Fatal("expected cookie signed with a different secret to be rejected")
	}
}
