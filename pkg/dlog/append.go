package dlog

import (
	"context"
	"fmt"

	cid "github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/ardnt/driftlog/pkg/clock"
	"github.com/ardnt/driftlog/pkg/dag"
	"github.com/ardnt/driftlog/pkg/entry"
)

// Append advances the clock, selects predecessors, builds and gates a new
// entry, and inserts it as the log's sole head (spec §4.5).
//
// pointerCount sets how many entries are walked back from the current
// heads (never fewer than the number of heads, and the heads themselves
// count); the new entry references every head plus every entry that walk
// visits, the way a skip-list widens traversal without requiring a full
// linear scan back through history. With a single head, a pointerCount of
// 0 or 1 references just that head.
//
// On any failure (access denial, signing failure, storage failure) the
// log is left unchanged (spec §4.5 "Failure modes").
func Append(ctx context.Context, l *Log, payload []byte, pointerCount int) (*entry.Entry, error) {
	if l == nil {
		return nil, ErrLogNotDefined
	}

	heads := l.Heads()
	newTime := maxClockTime(heads, l.clock.Value()) + 1
	stamp := clock.Stamp{ReplicaID: l.clock.ID(), Time: newTime}

	want := pointerCount
	if len(heads) > want {
		want = len(heads)
	}
	references := dag.Traverse(l.entryIndex, heads, want, "")

	seen := make(map[string]bool, len(heads)+len(references))
	next := make([]cid.Cid, 0, len(heads)+len(references))
	for _, h := range heads {
		if !seen[h.Hash.String()] {
			seen[h.Hash.String()] = true
			next = append(next, h.Hash)
		}
	}
	for _, r := range references {
		if !seen[r.Hash.String()] {
			seen[r.Hash.String()] = true
			next = append(next, r.Hash)
		}
	}

	e, err := entry.CreateWithClock(ctx, l.store, l.signer, l.id, payload, next, stamp)
	if err != nil {
		return nil, fmt.Errorf("dlog: append: %w", err)
	}

	ok, err := l.access.CanAppend(ctx, e, l.provider)
	if err != nil {
		return nil, fmt.Errorf("dlog: append: access check: %w", err)
	}
	if !ok {
		l.logger.Warn("append denied", zap.String("hash", e.Hash.String()))
		return nil, ErrAppendDenied
	}

	l.clock.Set(newTime)
	l.entryIndex[e.Hash.String()] = e
	for _, p := range next {
		l.nextsIndex[p.String()] = e.Hash.String()
	}
	l.headsIndex = dag.ByHash{e.Hash.String(): e}

	l.metrics.IncAppend()
	l.metrics.SetLogLength(len(l.entryIndex))

	return e, nil
}
