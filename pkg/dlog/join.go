package dlog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ardnt/driftlog/pkg/dag"
	"github.com/ardnt/driftlog/pkg/entry"
)

// Join integrates other's entries into l under permission and signature
// gates, recomputes heads, optionally truncates, and retimes the clock
// (spec §4.6). Join is atomic from an observer's standpoint: either every
// gate passes and the whole transition commits, or l is left unchanged.
//
// Join against a log with a different ID is an intentional silent no-op
// (spec §7: "by design, to permit opportunistic merges on mixed
// streams") — it returns (l, nil), not an error. Callers who need to
// distinguish "nothing to do" from "actually merged" should compare
// l.Length() before and after.
//
// maxSize < 0 means unbounded; maxSize >= 0 truncates the result to the
// last maxSize entries under entry.Compare ascending (spec §4.6 step 6).
func Join(ctx context.Context, l *Log, other *Log, maxSize int) (*Log, error) {
	if l == nil {
		return nil, ErrLogNotDefined
	}
	if other == nil {
		return l, nil
	}
	if l.id != other.id {
		return l, nil
	}

	start := time.Now()
	defer func() { l.metrics.ObserveJoinDuration(time.Since(start)) }()

	newItems := dag.Difference(other.entryIndex, other.Heads(), other.id, l.entryIndex)
	if len(newItems) == 0 {
		return l, nil
	}

	// Permission gate (spec §4.6 step 2): any denial aborts before any
	// mutation.
	for _, e := range newItems {
		ok, err := l.access.CanAppend(ctx, e, l.provider)
		if err != nil {
			return nil, fmt.Errorf("dlog: join: access check: %w", err)
		}
		if !ok {
			l.logger.Warn("join denied", zap.String("hash", e.Hash.String()), zap.String("signer", e.Identity.ID))
			l.metrics.IncJoinDenied()
			return nil, ErrJoinDenied
		}
	}

	// Signature gate (spec §4.6 step 3): any invalid signature aborts.
	for _, e := range newItems {
		if err := entry.Verify(e); err != nil {
			l.logger.Warn("join signature invalid", zap.String("hash", e.Hash.String()))
			l.metrics.IncSignatureInvalid()
			return nil, fmt.Errorf("dlog: join: %s: %w", e.Hash, ErrSignatureInvalid)
		}
	}

	// Integration (spec §4.6 step 4): only after both gates pass for
	// every new item.
	for _, e := range newItems {
		for _, p := range e.Next {
			l.nextsIndex[p.String()] = e.Hash.String()
		}
		l.entryIndex[e.Hash.String()] = e
	}

	// Head recomputation (spec §4.6 step 5).
	nextsFromNew := make(map[string]bool)
	for _, e := range newItems {
		for _, n := range e.Next {
			nextsFromNew[n.String()] = true
		}
	}

	merged := make(dag.ByHash, len(l.headsIndex)+len(other.headsIndex))
	for k, v := range l.headsIndex {
		merged[k] = v
	}
	for k, v := range other.headsIndex {
		merged[k] = v
	}
	candidates := dag.FindHeads(merged)

	newHeads := make(dag.ByHash, len(candidates))
	for _, h := range candidates {
		key := h.Hash.String()
		if nextsFromNew[key] {
			continue
		}
		if _, hasSuccessor := l.nextsIndex[key]; hasSuccessor {
			continue
		}
		newHeads[key] = h
	}
	l.headsIndex = newHeads

	// Optional bounded truncation (spec §4.6 step 6).
	if maxSize >= 0 {
		values := l.Values()
		if len(values) > maxSize {
			l.logger.Info("join truncated", zap.Int("max_size", maxSize), zap.Int("dropped", len(values)-maxSize))
			values = values[len(values)-maxSize:]
		}
		retained := make(dag.ByHash, len(values))
		for _, e := range values {
			retained[e.Hash.String()] = e
		}
		l.entryIndex = retained
		retainedHeads := dag.FindHeads(retained)
		l.headsIndex = make(dag.ByHash, len(retainedHeads))
		for _, h := range retainedHeads {
			l.headsIndex[h.Hash.String()] = h
		}
		// Rebuilt from retained entries so nextsIndex never claims a
		// successor that truncation just dropped (spec §9 open question,
		// resolved in favor of rebuilding rather than leaving it stale).
		l.nextsIndex = buildNextsIndexFromMap(retained)
	}

	// Clock update (spec §4.6 step 7): local clock advances to at least
	// the maximum head time, never ticking past it.
	l.clock.Observe(maxClockTime(l.Heads(), l.clock.Value()))

	l.metrics.IncJoin()
	l.metrics.SetLogLength(len(l.entryIndex))

	return l, nil
}

func buildNextsIndexFromMap(entries dag.ByHash) map[string]string {
	nexts := make(map[string]string, len(entries))
	for _, e := range entries {
		for _, p := range e.Next {
			nexts[p.String()] = e.Hash.String()
		}
	}
	return nexts
}
