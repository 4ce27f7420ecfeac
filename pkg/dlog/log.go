// Package dlog implements the replicated, content-addressed append-only
// log itself: the in-memory DAG indices, the clock-driven append
// operation, and the gated join (merge) algorithm that makes the whole
// thing a CRDT.
//
// A Log is not reentrantly safe (spec §5): callers must serialize
// concurrent Append and Join calls against the same instance, the same
// way the teacher's coordination model assumed a single writer per
// agent. Read-only accessors (Values, Heads, ID, Length, Clock) may be
// called without coordination provided they don't race a writer.
package dlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	cid "github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/ardnt/driftlog/pkg/accesscontrol"
	"github.com/ardnt/driftlog/pkg/blockstore"
	"github.com/ardnt/driftlog/pkg/clock"
	"github.com/ardnt/driftlog/pkg/dag"
	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/identity"
	"github.com/ardnt/driftlog/pkg/metrics"
)

// Log is a single replica's view of an append-only, content-addressed
// DAG log (spec §3.3). It owns the in-memory indices and a Lamport clock
// scoped to its own identity; the block store, access controller, and
// identity/provider are external collaborators injected at construction.
type Log struct {
	id string

	store    blockstore.Store
	access   accesscontrol.Controller
	signer   identity.Signer
	provider identity.Provider
	clock    *clock.Clock

	entryIndex dag.ByHash
	headsIndex dag.ByHash
	nextsIndex map[string]string // predecessor hash -> a successor hash that references it

	logger  *zap.Logger
	metrics metrics.Sink
}

// Options carries the construction parameters proper (spec §6 "Construction
// options"): id, preloaded entries/heads, and an initial clock. Ambient
// collaborators (logger, metrics) are configured separately via Option
// functional options, grounded on Voskan-arena-cache/pkg/config.go.
type Options struct {
	// ID is the log identifier. If empty, a timestamp-derived identifier
	// is generated (spec §6).
	ID string

	// Entries preloads the log with an internally-consistent entry set.
	Entries []*entry.Entry

	// Heads is used as-is if given; otherwise computed from Entries.
	Heads []*entry.Entry

	// Clock seeds the local clock. If nil, it is initialized to
	// (signer identity ID, max head time).
	Clock *clock.Clock

	// Access gates every Append and every joined entry. Defaults to
	// accesscontrol.AllowAll{}.
	Access accesscontrol.Controller

	// Provider resolves trust for a signer identity, passed opaquely to
	// Access.CanAppend. Defaults to identity.AlwaysTrust{}.
	Provider identity.Provider
}

// Option configures a Log's ambient collaborators.
type Option func(*Log)

// WithLogger injects a structured logger used for diagnostic events (join
// denials, signature failures, truncation) — never on the hot append
// path. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(lg *Log) { lg.logger = l }
}

// WithMetrics injects a metrics sink. Defaults to metrics.Noop{}.
func WithMetrics(m metrics.Sink) Option {
	return func(lg *Log) { lg.metrics = m }
}

// WithClock overrides the Log's clock instance after construction
// defaults have been applied. Equivalent to Options.Clock; provided as a
// functional option for callers assembling a Log incrementally.
func WithClock(c *clock.Clock) Option {
	return func(lg *Log) { lg.clock = c }
}

func maxClockTime(entries []*entry.Entry, base int64) int64 {
	max := base
	for _, e := range entries {
		if e.Clock.Time > max {
			max = e.Clock.Time
		}
	}
	return max
}

// New constructs a Log (spec §4.1/§6). store and signer are mandatory;
// access and provider default to permissive implementations.
func New(store blockstore.Store, signer identity.Signer, opts *Options, options ...Option) (*Log, error) {
	if store == nil {
		return nil, ErrMissingStore
	}
	if signer == nil {
		return nil, ErrMissingIdentity
	}
	if opts == nil {
		opts = &Options{}
	}

	id := opts.ID
	if id == "" {
		id = strconv.FormatInt(time.Now().Unix(), 10)
	}

	access := opts.Access
	if access == nil {
		access = accesscontrol.AllowAll{}
	}
	provider := opts.Provider
	if provider == nil {
		provider = identity.AlwaysTrust{}
	}

	entryIndex := make(dag.ByHash, len(opts.Entries))
	for _, e := range opts.Entries {
		entryIndex[e.Hash.String()] = e
	}

	heads := opts.Heads
	if len(heads) == 0 && len(entryIndex) > 0 {
		heads = dag.FindHeads(entryIndex)
	}
	headsIndex := make(dag.ByHash, len(heads))
	for _, h := range heads {
		headsIndex[h.Hash.String()] = h
	}

	nextsIndex := buildNextsIndex(opts.Entries)

	var baseTime int64
	if opts.Clock != nil {
		baseTime = opts.Clock.Value()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New(signer.Identity().ID, maxClockTime(heads, baseTime))
	}

	l := &Log{
		id:         id,
		store:      store,
		access:     access,
		signer:     signer,
		provider:   provider,
		clock:      clk,
		entryIndex: entryIndex,
		headsIndex: headsIndex,
		nextsIndex: nextsIndex,
		logger:     zap.NewNop(),
		metrics:    metrics.Noop{},
	}
	for _, o := range options {
		o(l)
	}
	return l, nil
}

func buildNextsIndex(entries []*entry.Entry) map[string]string {
	nexts := make(map[string]string)
	for _, e := range entries {
		for _, p := range e.Next {
			nexts[p.String()] = e.Hash.String()
		}
	}
	return nexts
}

// ID returns the log's identifier.
func (l *Log) ID() string { return l.id }

// Length returns the number of entries currently in the entryIndex.
func (l *Log) Length() int { return len(l.entryIndex) }

// Clock returns the current Lamport stamp of the local clock.
func (l *Log) Clock() clock.Stamp { return l.clock.Stamp() }

// Get returns the entry stored under hash, if present locally.
func (l *Log) Get(hash cid.Cid) (*entry.Entry, bool) {
	e, ok := l.entryIndex[hash.String()]
	return e, ok
}

// Has reports whether hash is present in the local entryIndex.
func (l *Log) Has(hash cid.Cid) bool {
	_, ok := l.entryIndex[hash.String()]
	return ok
}

// Heads returns the current heads, sorted by entry.Compare descending
// (spec §4.9).
func (l *Log) Heads() []*entry.Entry {
	heads := make([]*entry.Entry, 0, len(l.headsIndex))
	for _, h := range l.headsIndex {
		heads = append(heads, h)
	}
	entry.Sort(heads)
	entry.Reverse(heads)
	return heads
}

// Values materializes every reachable entry in LastWriteWins ascending
// order (oldest first) — spec §4.9. Every call recomputes; callers cache
// if needed.
func (l *Log) Values() []*entry.Entry {
	if len(l.headsIndex) == 0 {
		return nil
	}
	result := dag.Traverse(l.entryIndex, l.Heads(), -1, "")
	entry.Reverse(result)
	return result
}

// snapshot is the wire form produced by ToJSON (spec §4.9/§6: "Persisted
// form").
type snapshot struct {
	ID    string   `json:"id"`
	Heads []string `json:"heads"`
}

// ToJSON returns the persisted form {id, heads} with heads in
// entry.Compare-descending order.
func (l *Log) ToJSON() ([]byte, error) {
	heads := l.Heads()
	hashes := make([]string, len(heads))
	for i, h := range heads {
		hashes[i] = h.Hash.String()
	}
	data, err := json.Marshal(snapshot{ID: l.id, Heads: hashes})
	if err != nil {
		return nil, fmt.Errorf("dlog: marshal snapshot: %w", err)
	}
	return data, nil
}

// FullSnapshot is the richer {id, heads, values} view ToSnapshot returns.
type FullSnapshot struct {
	ID     string         `json:"id"`
	Heads  []*entry.Entry `json:"heads"`
	Values []*entry.Entry `json:"values"`
}

// ToSnapshot returns {id, heads, values} (spec §4.9).
func (l *Log) ToSnapshot() FullSnapshot {
	return FullSnapshot{ID: l.id, Heads: l.Heads(), Values: l.Values()}
}

// ToString renders values (reversed: newest first) as an indented tree,
// mapping each entry's payload through payloadMapper (spec §4.9). Each
// entry is indented by the number of entries that list it as a
// predecessor in the value list.
func (l *Log) ToString(payloadMapper func(*entry.Entry) string) string {
	if payloadMapper == nil {
		payloadMapper = func(e *entry.Entry) string { return string(e.Payload) }
	}
	values := l.Values()
	entry.Reverse(values)

	parentCount := make(map[string]int, len(values))
	for _, e := range values {
		for _, n := range e.Next {
			parentCount[n.String()]++
		}
	}

	out := ""
	for i, e := range values {
		depth := parentCount[e.Hash.String()]
		for d := 0; d < depth; d++ {
			out += "  "
		}
		out += payloadMapper(e)
		if i < len(values)-1 {
			out += "\n"
		}
	}
	return out
}
