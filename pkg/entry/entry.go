// Package entry implements the immutable, content-addressed, signed DAG
// node driftlog is built from (spec §3.2, component C2) and the
// deterministic total order used to sort them (spec §4.3, component C3).
package entry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/ardnt/driftlog/pkg/clock"
	"github.com/ardnt/driftlog/pkg/identity"
)

// Store is the subset of pkg/blockstore.Store that entry construction
// needs. Declared locally (rather than imported) so pkg/blockstore can
// freely depend on nothing from pkg/entry.
type Store interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
}

// Entry is an immutable, signed DAG node. All fields are set once by
// Create (local append) or by decoding bytes fetched from a Store (Join,
// load entry points) — never mutated afterward (spec §3.2 lifecycle).
type Entry struct {
	Hash     cid.Cid           `json:"hash"`
	ID       string            `json:"id"`
	Payload  []byte            `json:"payload"`
	Next     []cid.Cid         `json:"next"`
	Clock    clock.Stamp       `json:"clock"`
	Identity identity.Identity `json:"identity"`
	Sig      []byte            `json:"sig"`
}

// record is the canonical, hash/sign-relevant projection of an Entry: all
// fields except Hash, which is derived from this record's bytes (spec
// §3.2: "hash is a deterministic function of all other fields"). Field
// order is fixed by struct declaration order, which encoding/json
// preserves, so two entries built from identical inputs serialize
// byte-for-byte identically.
type record struct {
	ID       string            `json:"id"`
	Payload  []byte            `json:"payload"`
	Next     []string          `json:"next"`
	Clock    clock.Stamp       `json:"clock"`
	Identity identity.Identity `json:"identity"`
	Sig      []byte            `json:"sig,omitempty"`
}

// canonicalNext sorts and deduplicates predecessor hashes lexicographically
// by their string form, resolving the spec's open question about
// predecessor-set ordering (§9): two replicas computing an entry with the
// same logical predecessors must produce byte-identical serializations.
func canonicalNext(next []cid.Cid) []cid.Cid {
	seen := make(map[string]struct{}, len(next))
	out := make([]cid.Cid, 0, len(next))
	for _, c := range next {
		k := c.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func cidsToStrings(cids []cid.Cid) []string {
	out := make([]string, len(cids))
	for i, c := range cids {
		out[i] = c.String()
	}
	return out
}

func toRecord(logID string, payload []byte, next []cid.Cid, clk clock.Stamp, id identity.Identity, sig []byte) record {
	return record{
		ID:       logID,
		Payload:  payload,
		Next:     cidsToStrings(next),
		Clock:    clk,
		Identity: id,
		Sig:      sig,
	}
}

// signingBytes returns the canonical bytes a signature is computed over:
// the record with Sig omitted.
func signingBytes(logID string, payload []byte, next []cid.Cid, clk clock.Stamp, id identity.Identity) ([]byte, error) {
	return json.Marshal(toRecord(logID, payload, next, clk, id, nil))
}

// Create builds, signs, and persists a new entry (spec §4.2):
//  1. assemble the canonical tuple (id, payload, next, clock, identity);
//  2. sign the canonical serialization;
//  3. store the full record (including the signature) and obtain its hash;
//  4. return the hydrated Entry.
//
// No partial state is left behind on failure: Create either returns a
// fully-populated Entry or an error, never a half-built one.
func Create(ctx context.Context, store Store, signer identity.Signer, logID string, payload []byte, next []cid.Cid) (*Entry, error) {
	return CreateWithClock(ctx, store, signer, logID, payload, next, clock.Stamp{})
}

// CreateWithClock is Create with an explicit clock stamp; pkg/dlog uses
// this directly since Append computes the stamp itself before building
// the entry (spec §4.5 step 1 precedes step 3).
func CreateWithClock(ctx context.Context, store Store, signer identity.Signer, logID string, payload []byte, next []cid.Cid, clk clock.Stamp) (*Entry, error) {
	next = canonicalNext(next)
	id := signer.Identity()

	toSign, err := signingBytes(logID, payload, next, clk, id)
	if err != nil {
		return nil, fmt.Errorf("entry: canonicalize: %w", err)
	}
	sig, err := signer.Sign(toSign)
	if err != nil {
		return nil, fmt.Errorf("entry: sign: %w", err)
	}

	data, err := json.Marshal(toRecord(logID, payload, next, clk, id, sig))
	if err != nil {
		return nil, fmt.Errorf("entry: encode: %w", err)
	}
	hash, err := store.Put(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("entry: store: %w", err)
	}

	return &Entry{
		Hash:     hash,
		ID:       logID,
		Payload:  payload,
		Next:     next,
		Clock:    clk,
		Identity: id,
		Sig:      sig,
	}, nil
}

// Bytes returns the canonical record bytes for e, i.e. what Create hashed
// and stored. The CLI's join command uses it to re-persist entries fetched
// from another replica's store into the local one.
func (e *Entry) Bytes() ([]byte, error) {
	return json.Marshal(toRecord(e.ID, e.Payload, e.Next, e.Clock, e.Identity, e.Sig))
}

// Decode reconstructs an Entry from bytes previously returned by a Store,
// deriving Hash by rehashing the bytes exactly as Create would have
// (content addressing: the hash is never trusted from the wire, only
// recomputed — the spec's invariant that hash is a deterministic function
// of the rest of the fields is what makes this safe).
func Decode(data []byte, hasher func([]byte) (cid.Cid, error)) (*Entry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("entry: decode: %w", err)
	}
	next := make([]cid.Cid, len(rec.Next))
	for i, s := range rec.Next {
		c, err := cid.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("entry: decode next[%d]: %w", i, err)
		}
		next[i] = c
	}
	hash, err := hasher(data)
	if err != nil {
		return nil, fmt.Errorf("entry: hash: %w", err)
	}
	return &Entry{
		Hash:     hash,
		ID:       rec.ID,
		Payload:  rec.Payload,
		Next:     next,
		Clock:    rec.Clock,
		Identity: rec.Identity,
		Sig:      rec.Sig,
	}, nil
}

// SHA256Multihash hashes data into a CIDv1 with a SHA2-256 multihash, the
// default content-addressing scheme used by Hash and Decode's callers.
func SHA256Multihash(data []byte) (cid.Cid, error) {
	sum, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("entry: multihash: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify checks e's signature against e.Identity's public key over e's
// own canonical bytes (spec §3.2: "signature verification ... must
// succeed; otherwise the entry is not admissible").
func Verify(e *Entry) error {
	toSign, err := signingBytes(e.ID, e.Payload, e.Next, e.Clock, e.Identity)
	if err != nil {
		return fmt.Errorf("entry: canonicalize for verify: %w", err)
	}
	if !identity.Verify(e.Identity, toSign, e.Sig) {
		return fmt.Errorf("entry %s: %w", e.Hash, ErrSignatureInvalid)
	}
	return nil
}

// Compare implements the deterministic total order of spec §4.3
// (LastWriteWins): higher clock time is later; ties broken by clock
// replica ID; remaining ties broken by a byte-wise hash comparison. It
// returns a negative number if a sorts before b, zero if equal (only
// possible for the same entry), and positive if a sorts after b.
func Compare(a, b *Entry) int {
	if a.Clock.Time != b.Clock.Time {
		if a.Clock.Time < b.Clock.Time {
			return -1
		}
		return 1
	}
	if a.Clock.ReplicaID != b.Clock.ReplicaID {
		if a.Clock.ReplicaID < b.Clock.ReplicaID {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Hash.Bytes(), b.Hash.Bytes())
}

// Sort orders entries ascending under Compare (oldest first).
func Sort(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i], entries[j]) < 0
	})
}

// Reverse reverses entries in place.
func Reverse(entries []*Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
