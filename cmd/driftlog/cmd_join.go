package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	cid "github.com/ipfs/go-cid"

	"github.com/ardnt/driftlog/pkg/accesscontrol"
	"github.com/ardnt/driftlog/pkg/blockstore"
	"github.com/ardnt/driftlog/pkg/dlog"
	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/frontier"
	"github.com/ardnt/driftlog/pkg/identity"
)

// cmdJoin merges another replica's log into this one. other-db names a
// driftlog directory laid out the same way this one is: a blocks.db and a
// HEAD.json produced by 'driftlog init'/'driftlog append' there.
func (a *app) cmdJoin(args []string) int {
	flags := flag.NewFlagSet("join", flag.ContinueOnError)
	maxSize := flags.Int("max-size", -1, "truncate the merged log to at most this many entries (-1: unbounded)")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "driftlog: join: missing <other-db>")
		return 1
	}
	otherDir := flags.Arg(0)

	otherStore, err := blockstore.NewSQLite(filepath.Join(otherDir, "blocks.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: open %s: %v\n", otherDir, err)
		return 1
	}
	defer otherStore.Close()

	otherData, err := os.ReadFile(headPath(otherDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: %v\n", err)
		return 1
	}
	var otherSnapshot struct {
		ID    string   `json:"id"`
		Heads []string `json:"heads"`
	}
	if err := json.Unmarshal(otherData, &otherSnapshot); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: decode %s: %v\n", headPath(otherDir), err)
		return 1
	}

	ctx := context.Background()
	collaborators := dlog.Collaborators{
		Store:    otherStore,
		Signer:   a.signer, // unused by Join beyond identity plumbing; this replica signs nothing on other's behalf
		Access:   accesscontrol.AllowAll{},
		Provider: identity.AlwaysTrust{},
	}

	otherHeads := make([]*entry.Entry, 0, len(otherSnapshot.Heads))
	for _, h := range otherSnapshot.Heads {
		hash, err := cid.Decode(h)
		if err != nil {
			fmt.Fprintf(os.Stderr, "driftlog: join: decode head hash %q: %v\n", h, err)
			return 1
		}
		data, err := otherStore.Get(ctx, hash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "driftlog: join: fetch head %s: %v\n", hash, err)
			return 1
		}
		head, err := entry.Decode(data, entry.SHA256Multihash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "driftlog: join: decode head %s: %v\n", hash, err)
			return 1
		}
		otherHeads = append(otherHeads, head)
	}

	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: %v\n", err)
		return 1
	}

	// Before pulling anything across, check whether the remote side is
	// actually ahead of any signer this replica already knows about.
	// Comparing per-signer high-water marks (spec §6's "exclude" intent,
	// component pkg/frontier) lets a sync client skip the whole fetch when
	// the two replicas' heads carry nothing new, the same way a gossiping
	// peer avoids re-requesting a signer's chain it has already caught up
	// with.
	localEntries := l.Values()
	localMarks := frontier.Compute(localEntries)
	remoteMarks := frontier.Compute(otherHeads)
	if len(frontier.Missing(localMarks, remoteMarks)) == 0 {
		fmt.Printf("%s is already up to date with %s\n", a.dbPath, otherDir)
		return 0
	}

	alreadyKnown := make(map[string]bool, len(localEntries))
	exclude := make([]cid.Cid, 0, len(localEntries))
	for _, e := range localEntries {
		alreadyKnown[e.Hash.String()] = true
		exclude = append(exclude, e.Hash)
	}

	// Fetch only what this replica doesn't already have: entries already
	// known locally bound the traversal (spec §6 "exclude").
	other, err := dlog.FromEntry(ctx, collaborators, otherHeads, -1, exclude)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: load %s: %v\n", otherDir, err)
		return 1
	}

	// Entries other carries that l hasn't integrated yet. Join only
	// merges them into l's in-memory indices; their bytes still live
	// solely in otherStore until they're re-persisted here.
	var fresh []*entry.Entry
	for _, e := range other.Values() {
		if !alreadyKnown[e.Hash.String()] {
			fresh = append(fresh, e)
		}
	}

	before := l.Length()
	if _, err := dlog.Join(ctx, l, other, *maxSize); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: %v\n", err)
		if err == dlog.ErrJoinDenied {
			return 2
		}
		return 1
	}

	for _, e := range fresh {
		if !l.Has(e.Hash) {
			continue // dropped by bounded truncation
		}
		data, err := e.Bytes()
		if err != nil {
			fmt.Fprintf(os.Stderr, "driftlog: join: encode %s: %v\n", e.Hash, err)
			return 1
		}
		if _, err := a.store.Put(ctx, data); err != nil {
			fmt.Fprintf(os.Stderr, "driftlog: join: persist %s: %v\n", e.Hash, err)
			return 1
		}
	}

	if err := a.saveLog(l); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: join: %v\n", err)
		return 1
	}

	fmt.Printf("joined %s: %d -> %d entries\n", otherDir, before, l.Length())
	return 0
}
