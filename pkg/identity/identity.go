// Package identity defines the signer contract entries and logs depend on.
//
// The spec treats identity/signing as an external collaborator (out of
// scope for the core log): production deployments are expected to plug in
// their own key-management backend the way the teacher plugs in its own
// SQLite database as the coordination medium. This package defines the
// contract (Identity, Provider, Signer) plus one default implementation,
// Ed25519Identity, used by the CLI, examples, and tests.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// Identity is the public half of a signer: an opaque ID (conventionally
// derived from the public key) and the public key material itself.
// Entries store an Identity, never private key material (spec §3.2).
type Identity struct {
	ID        string
	PublicKey []byte
}

// Provider is the opaque handle an access controller's CanAppend receives
// (spec §6): enough to resolve an Identity's current standing (e.g. "is
// this key still valid/unrevoked") without the core log needing to know
// how that resolution happens.
type Provider interface {
	// IsTrusted reports whether id is currently permitted to sign entries.
	// A permissive provider always returns true.
	IsTrusted(id Identity) bool
}

// Signer signs bytes on behalf of a single Identity. Verification is the
// package-level Verify function, not a Signer method.
type Signer interface {
	Identity() Identity
	Sign(message []byte) ([]byte, error)
}

// Verify checks a signature against an Identity's public key. It is a
// free function (not a Signer method) because verification must work for
// identities the local process never created a Signer for — e.g. entries
// arriving via Join from another replica.
func Verify(id Identity, message, sig []byte) bool {
	if len(id.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(id.PublicKey), message, sig)
}

// Ed25519Identity is the default Signer implementation: an Ed25519
// keypair with the Identity.ID defaulting to a random UUID. It is meant
// for the CLI, examples and tests; production deployments that need
// hardware-backed or KMS-backed signing supply their own Signer instead.
type Ed25519Identity struct {
	id      Identity
	private ed25519.PrivateKey
}

// NewEd25519Identity generates a fresh Ed25519 keypair and wraps it as a
// Signer. If id is empty, a random UUID is used.
func NewEd25519Identity(id string) (*Ed25519Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &Ed25519Identity{
		id:      Identity{ID: id, PublicKey: pub},
		private: priv,
	}, nil
}

// Identity returns the public identity backing this signer.
func (e *Ed25519Identity) Identity() Identity { return e.id }

// Sign signs message with the wrapped private key.
func (e *Ed25519Identity) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(e.private, message), nil
}

// PrivateKey exposes the raw key material, for callers that need to
// persist a replica's identity across process restarts (the CLI stores it
// alongside its database rather than generating a fresh one per command).
func (e *Ed25519Identity) PrivateKey() ed25519.PrivateKey { return e.private }

// FromPrivateKey reconstructs a Signer from a previously generated Ed25519
// private key, restoring the same Identity.ID it was created under.
func FromPrivateKey(id string, priv ed25519.PrivateKey) *Ed25519Identity {
	pub := priv.Public().(ed25519.PublicKey)
	return &Ed25519Identity{id: Identity{ID: id, PublicKey: pub}, private: priv}
}

// AlwaysTrust is the default Provider: every identity is trusted. Pair it
// with accesscontrol.AllowAll for a permissive log, or override
// IsTrusted-dependent access controllers with your own Provider to revoke
// or scope signers.
type AlwaysTrust struct{}

// IsTrusted always returns true.
func (AlwaysTrust) IsTrusted(Identity) bool { return true }
