package identity

import "testing"

func TestNewEd25519IdentityGeneratesDistinctKeys(t *testing.T) {
	a, err := NewEd25519Identity("a")
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}
	b, err := NewEd25519Identity("b")
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}
	if string(a.Identity().PublicKey) == string(b.Identity().PublicKey) {
		t.Fatal("expected distinct public keys for distinct identities")
	}
}

func TestNewEd25519IdentityDefaultsIDToUUID(t *testing.T) {
	a, err := NewEd25519Identity("")
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}
	if a.Identity().ID == "" {
		t.Fatal("expected a generated ID when none supplied")
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewEd25519Identity("alice")
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}
	msg := []byte("hello world")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(signer.Identity(), msg, sig) {
		t.Fatal("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	signer, _ := NewEd25519Identity("alice")
	msg := []byte("hello world")
	sig, _ := signer.Sign(msg)
	if Verify(signer.Identity(), []byte("goodbye world"), sig) {
		t.Fatal("expected verification to fail for a tampered message")
	}
}

func TestVerifyRejectsMalformedPublicKey(t *testing.T) {
	id := Identity{ID: "x", PublicKey: []byte("too short")}
	if Verify(id, []byte("msg"), []byte("sig")) {
		t.Fatal("expected verification to fail for a malformed public key")
	}
}

func TestAlwaysTrustTrustsEverything(t *testing.T) {
	var p Provider = AlwaysTrust{}
	if !p.IsTrusted(Identity{ID: "anyone"}) {
		t.Fatal("expected AlwaysTrust to trust any identity")
	}
}
