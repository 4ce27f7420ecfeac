// Package clock implements the Lamport logical clock that timestamps every
// entry in a driftlog replica.
//
// From Lamport (1978), two implementation rules govern the clock:
//
//	IR1 (internal event): before any internal event, increment the clock.
//	IR2 (message receipt): on receiving a message with timestamp t,
//	     set the clock to max(own, t) + 1.
//
// Unlike a single counter shared by one coordination domain, a driftlog
// clock is a (ReplicaID, Time) pair: every replica owns its own clock, and
// two entries from different replicas at the same Time are never the same
// event. Stamp.Less breaks ties deterministically by replica ID, giving
// every replica the same ordering without coordination.
//
// Note: Clock is not goroutine-safe. Each driftlog Log owns exactly one
// Clock instance; callers must serialize Append/Join against the same Log
// (see pkg/dlog doc comment).
package clock

import "bytes"

// Stamp is a Lamport timestamp paired with the identity of the replica
// that produced it. Two Stamps are equal only if both fields match.
type Stamp struct {
	ReplicaID string
	Time      int64
}

// Less defines the first two tiers of the total order used throughout
// driftlog (spec §4.3, "LastWriteWins"): higher Time is later; ties
// broken by ReplicaID. The third tier (hash byte-compare) is applied by
// callers on top, see CompareHash and pkg/entry.Compare.
func (s Stamp) Less(other Stamp) bool {
	if s.Time != other.Time {
		return s.Time < other.Time
	}
	return s.ReplicaID < other.ReplicaID
}

// Equal reports whether two stamps carry the same replica and time.
func (s Stamp) Equal(other Stamp) bool {
	return s.Time == other.Time && s.ReplicaID == other.ReplicaID
}

// Clock is a Lamport logical clock scoped to a single replica identity.
type Clock struct {
	id string
	ts int64
}

// New constructs a clock for replicaID starting at the given time.
func New(replicaID string, time int64) *Clock {
	return &Clock{id: replicaID, ts: time}
}

// ID returns the owning replica's identifier.
func (c *Clock) ID() string { return c.id }

// Tick implements IR1: increment the clock before an internal event
// (an Append). Returns the new Stamp.
func (c *Clock) Tick() Stamp {
	c.ts++
	return Stamp{ReplicaID: c.id, Time: c.ts}
}

// Receive implements IR2: on observing a timestamp from elsewhere, set the
// clock to max(own, observed) + 1. Returns the new Stamp.
func (c *Clock) Receive(observed int64) Stamp {
	if observed > c.ts {
		c.ts = observed
	}
	c.ts++
	return Stamp{ReplicaID: c.id, Time: c.ts}
}

// Observe advances the clock to at least observed without ticking past it
// (max(own, observed), no +1). Join recomputes the clock this way: the
// spec requires clock.time >= max head time after a merge (§4.6 step 7),
// not a fresh tick.
func (c *Clock) Observe(observed int64) {
	if observed > c.ts {
		c.ts = observed
	}
}

// Value returns the current clock time without advancing it.
func (c *Clock) Value() int64 { return c.ts }

// Stamp returns the current (ReplicaID, Time) pair without advancing it.
func (c *Clock) Stamp() Stamp { return Stamp{ReplicaID: c.id, Time: c.ts} }

// Set initializes the clock to a specific value. Used when seeding a Log
// from persisted or loaded state (construction option, spec §6).
func (c *Clock) Set(v int64) { c.ts = v }

// CompareHash breaks a tie between two equal Stamps by comparing raw
// content-address bytes. It is the third and final tier of the total
// order defined in spec §4.3; Stamp.Less alone only covers the first two.
func CompareHash(a, b []byte) int {
	return bytes.Compare(a, b)
}
