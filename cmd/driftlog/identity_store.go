package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ardnt/driftlog/pkg/identity"
)

// persistedIdentity is the on-disk form of a replica's signing key — a CLI
// process is short-lived, so the identity (and with it the Lamport clock's
// replica ID) has to survive across invocations the way the teacher's
// agent clock survived across invocations in SQLite.
type persistedIdentity struct {
	ID         string `json:"id"`
	PrivateKey string `json:"private_key"` // base64, ed25519.PrivateKeySize bytes
}

// loadOrCreateIdentity loads the replica identity from path, creating and
// persisting a fresh random Ed25519 keypair (whose identity ID is
// replicaID, or a random UUID if empty) the first time it's called for a
// given database.
func loadOrCreateIdentity(path, replicaID string) (identity.Signer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var p persistedIdentity
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		priv, err := base64.StdEncoding.DecodeString(p.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("decode private key in %s: %w", path, err)
		}
		return identity.FromPrivateKey(p.ID, ed25519.PrivateKey(priv)), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	signer, err := identity.NewEd25519Identity(replicaID)
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	p := persistedIdentity{
		ID:         signer.Identity().ID,
		PrivateKey: base64.StdEncoding.EncodeToString(signer.PrivateKey()),
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return signer, nil
}
