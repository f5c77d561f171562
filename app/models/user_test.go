package models

import "testing"

func TestHashAPIKey(t *testing.T) {
	h1 := HashAPIKey("pf_live_abc123")
	h2 := HashAPIKey("pf_live_abc123")
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %q and %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(h1))
	}
	if h1 == HashAPIKey("pf_live_abc124") {
		t.Fatalf("expected different keys to hash differently")
	}
}

func TestPasswordRoundtrip(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("s3cret-pass"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.Password == "s3cret-pass" {
		t.Fatalf("expected password to be hashed")
	}
	if !u.CheckPassword("s3cret-pass") {
		t.Fatalf("expected matching password to verify")
	}
	if u.CheckPassword("wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}
