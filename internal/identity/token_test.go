package identity_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/greentrace/carbonledger/internal/identity"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestIssueAndVerify(t *testing.T) {
	issuer := identity.NewIssuer(testKey(t), "http://localhost:8080", time.Hour)

	tok, err := issuer.Issue("actor-a")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	actor, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if actor != "actor-a" {
		t.Errorf("Verify: got actor %q, want %q", actor, "actor-a")
	}
}

func TestIssue_emptyActorRejected(t *testing.T) {
	issuer := identity.NewIssuer(testKey(t), "http://localhost:8080", time.Hour)

	if _, err := issuer.Issue(""); err == nil {
		t.Error("Issue(\"\") should fail")
	}
}

func TestVerify_expiredToken(t *testing.T) {
	issuer := identity.NewIssuer(testKey(t), "http://localhost:8080", -time.Minute)

	tok, err := issuer.Issue("actor-a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(tok); err == nil {
		t.Error("Verify should reject an expired token")
	}
}

func TestVerify_wrongKey(t *testing.T) {
	issuerA := identity.NewIssuer(testKey(t), "http://localhost:8080", time.Hour)
	issuerB := identity.NewIssuer(testKey(t), "http://localhost:8080", time.Hour)

	tok, err := issuerA.Issue("actor-a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuerB.Verify(tok); err == nil {
		t.Error("Verify should reject a token signed with a different key")
	}
}

func TestVerify_garbage(t *testing.T) {
	issuer := identity.NewIssuer(testKey(t), "http://localhost:8080", time.Hour)

	if _, err := issuer.Verify("not.a.token"); err == nil {
		t.Error("Verify should reject malformed input")
	}
}

func TestLoadOrCreateKey_roundTrip(t *testing.T) {
	dir := t.TempDir()

	k1, err := identity.LoadOrCreateKey(dir)
	if err != nil {
		t.Fatalf("first LoadOrCreateKey: %v", err)
	}
	k2, err := identity.LoadOrCreateKey(dir)
	if err != nil {
		t.Fatalf("second LoadOrCreateKey: %v", err)
	}
	if k1.N.Cmp(k2.N) != 0 {
		t.Error("second load returned a different key")
	}
}
