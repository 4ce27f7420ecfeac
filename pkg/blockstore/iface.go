// Package blockstore implements the content-addressed storage contract
// driftlog entries are persisted through (spec §1 external collaborators,
// §8 "Block store"). The core log never depends on a concrete backend; it
// depends only on Store.
package blockstore

import (
	"context"
	"errors"

	cid "github.com/ipfs/go-cid"
)

// ErrNotFound is returned by Get when no block exists for the given CID.
var ErrNotFound = errors.New("blockstore: not found")

// ErrStorage wraps unexpected backend failures (as opposed to a clean
// not-found), so callers can distinguish "never existed" from "backend is
// unhealthy".
var ErrStorage = errors.New("blockstore: storage error")

// Store is the minimal content-addressed blob store driftlog needs: put
// bytes, get them back by the hash Put returned. Every implementation in
// this package addresses blocks by a CIDv1 (raw codec) over a SHA2-256
// multihash of the bytes.
type Store interface {
	// Put hashes data, persists it, and returns its CID. Put is
	// idempotent: putting the same bytes twice returns the same CID and
	// succeeds without duplicating storage.
	Put(ctx context.Context, data []byte) (cid.Cid, error)

	// Get returns the bytes previously stored under c, or ErrNotFound.
	Get(ctx context.Context, c cid.Cid) ([]byte, error)

	// Has reports whether c is present without fetching its bytes.
	Has(ctx context.Context, c cid.Cid) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// Compile-time checks that every implementation satisfies Store.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Cached)(nil)
)
