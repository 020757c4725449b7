package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueThenVerify(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, err := Issue("test_secret", "fieldservice", "staff-1", "Dana", 10*time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := Verify(tok, "test_secret", "fieldservice", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != "staff-1" || got.Name != "Dana" {
		t.Fatalf("unexpected staff: %+v", got)
	}
}

func TestVerify_RejectsExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, err := Issue("test_secret", "fieldservice", "staff-1", "", time.Minute, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Verify(tok, "test_secret", "fieldservice", now.Add(2*time.Minute)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerify_RejectsWrongIssuerAndMissingSubject(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tok, _ := Issue("s", "someone-else", "staff-1", "", time.Hour, now)
	if _, err := Verify(tok, "s", "fieldservice", now); err == nil {
		t.Fatalf("expected issuer mismatch")
	}

	claims := StaffClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "fieldservice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Verify(raw, "s", "fieldservice", now); err == nil {
		t.Fatalf("expected missing subject error")
	}
}

func TestVerify_NameFallsBackToSubject(t *testing.T) {
	now := time.Unix(1700000000, 0)
	tok, _ := Issue("s", "", "staff-9", "", time.Hour, now)
	got, err := Verify(tok, "s", "", now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Name != "staff-9" {
		t.Fatalf("expected subject as name, got %q", got.Name)
	}
}
