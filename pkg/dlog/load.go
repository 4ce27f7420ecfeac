package dlog

import (
	"context"
	"encoding/json"
	"fmt"

	cid "github.com/ipfs/go-cid"
	"golang.org/x/sync/errgroup"

	"github.com/ardnt/driftlog/pkg/accesscontrol"
	"github.com/ardnt/driftlog/pkg/blockstore"
	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/identity"
)

// ProgressFunc, if non-nil, is invoked once per materialized entry during
// a load (spec §6 "Load entry points": optional progress callback).
type ProgressFunc func(*entry.Entry)

// Collaborators bundles the external handles every loader needs, beyond
// the roots/length/exclude parameters specific to each entry point.
type Collaborators struct {
	Store    blockstore.Store
	Signer   identity.Signer
	Access   accesscontrol.Controller
	Provider identity.Provider
	Progress ProgressFunc
}

// fetchDAG performs a concurrent breadth-first fetch of the entry set
// reachable from roots, belonging to logID, stopping at any hash already
// present in exclude. Each frontier level is fetched in parallel via
// errgroup, the way Voskan-arena-cache fans out concurrent loads; a
// failure anywhere in a level aborts the whole load.
func fetchDAG(ctx context.Context, store blockstore.Store, roots []cid.Cid, logID string, length int, exclude map[string]bool, progress ProgressFunc) ([]*entry.Entry, error) {
	visited := make(map[string]bool, len(exclude))
	for h := range exclude {
		visited[h] = true
	}

	var result []*entry.Entry
	frontier := roots

	for len(frontier) > 0 && (length < 0 || len(result) < length) {
		g, gctx := errgroup.WithContext(ctx)
		fetched := make([]*entry.Entry, len(frontier))

		for i, h := range frontier {
			if visited[h.String()] {
				continue
			}
			i, h := i, h
			g.Go(func() error {
				data, err := store.Get(gctx, h)
				if err != nil {
					return fmt.Errorf("dlog: fetch %s: %w", h, err)
				}
				e, err := entry.Decode(data, entry.SHA256Multihash)
				if err != nil {
					return fmt.Errorf("dlog: decode %s: %w", h, err)
				}
				fetched[i] = e
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var next []cid.Cid
		for i, h := range frontier {
			key := h.String()
			if visited[key] {
				continue
			}
			visited[key] = true

			e := fetched[i]
			if e == nil || e.ID != logID {
				continue
			}
			result = append(result, e)
			if progress != nil {
				progress(e)
			}
			if length >= 0 && len(result) >= length {
				break
			}
			for _, n := range e.Next {
				if !visited[n.String()] {
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	return result, nil
}

func excludeSet(exclude []cid.Cid) map[string]bool {
	set := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		set[c.String()] = true
	}
	return set
}

// FromEntryHash fetches the DAG reachable from hash, belonging to id, and
// constructs a Log from the materialized entries (spec §6).
func FromEntryHash(ctx context.Context, c Collaborators, hash cid.Cid, id string, length int, exclude []cid.Cid) (*Log, error) {
	if hash == cid.Undef {
		return nil, ErrInvalidArgument
	}
	entries, err := fetchDAG(ctx, c.Store, []cid.Cid{hash}, id, length, excludeSet(exclude), c.Progress)
	if err != nil {
		return nil, err
	}
	return New(c.Store, c.Signer, &Options{ID: id, Entries: entries, Access: c.Access, Provider: c.Provider})
}

// FromMultihash is FromEntryHash for the case where the caller doesn't
// know the log id ahead of time: the head entry's own ID field supplies
// it (spec §6).
func FromMultihash(ctx context.Context, c Collaborators, hash cid.Cid, length int, exclude []cid.Cid) (*Log, error) {
	if hash == cid.Undef {
		return nil, ErrInvalidArgument
	}
	data, err := c.Store.Get(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("dlog: fetch head %s: %w", hash, err)
	}
	head, err := entry.Decode(data, entry.SHA256Multihash)
	if err != nil {
		return nil, fmt.Errorf("dlog: decode head %s: %w", hash, err)
	}
	return FromEntryHash(ctx, c, hash, head.ID, length, exclude)
}

// FromEntry constructs a Log from an already-materialized set of head
// entries, fetching any ancestors not yet known (spec §6).
func FromEntry(ctx context.Context, c Collaborators, heads []*entry.Entry, length int, exclude []cid.Cid) (*Log, error) {
	if len(heads) == 0 {
		return nil, ErrInvalidArgument
	}
	id := heads[0].ID
	excl := excludeSet(exclude)
	for _, h := range heads {
		excl[h.Hash.String()] = true
	}

	var roots []cid.Cid
	for _, h := range heads {
		roots = append(roots, h.Next...)
	}
	rest, err := fetchDAG(ctx, c.Store, roots, id, length, excl, c.Progress)
	if err != nil {
		return nil, err
	}
	entries := make([]*entry.Entry, 0, len(heads)+len(rest))
	entries = append(entries, heads...)
	entries = append(entries, rest...)

	return New(c.Store, c.Signer, &Options{ID: id, Entries: entries, Heads: heads, Access: c.Access, Provider: c.Provider})
}

// FromJSON reconstructs a Log from the persisted {id, heads} form
// produced by Log.ToJSON, fetching the full reachable entry set up to
// length (spec §6).
func FromJSON(ctx context.Context, c Collaborators, data []byte, length int) (*Log, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrInvalidArgument, err)
	}
	if snap.ID == "" || len(snap.Heads) == 0 {
		return nil, ErrInvalidArgument
	}

	roots := make([]cid.Cid, 0, len(snap.Heads))
	for _, h := range snap.Heads {
		parsed, err := cid.Decode(h)
		if err != nil {
			return nil, fmt.Errorf("%w: decode head hash %q: %v", ErrInvalidArgument, h, err)
		}
		roots = append(roots, parsed)
	}

	entries, err := fetchDAG(ctx, c.Store, roots, snap.ID, length, nil, c.Progress)
	if err != nil {
		return nil, err
	}
	return New(c.Store, c.Signer, &Options{ID: snap.ID, Entries: entries, Access: c.Access, Provider: c.Provider})
}
