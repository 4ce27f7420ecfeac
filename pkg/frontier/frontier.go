// Package frontier tracks, per signer, the highest clock time a replica
// has already integrated — the replicated-log analogue of the teacher's
// Naiad-style pointstamp frontier.
//
// A coordination-free CRDT log has no global barrier to track progress
// against: that's the entire point of the join algorithm (spec §1).
// What a replicated log legitimately needs instead is a per-signer
// high-water mark, so a sync client asking a peer "what's new" doesn't
// re-fetch entries it has already integrated from a signer it has seen
// before. Mark replaces the teacher's Pointstamp; Compute/Frontier/Missing
// replace ComputeFrontier/ComputeFrontierStatus. The dominance reduction
// over the new (replica, time) pair is a single pass keeping the highest
// Time per ReplicaID.
package frontier

import "github.com/ardnt/driftlog/pkg/entry"

// Mark is a replica's high-water mark: the highest clock time this
// replica has observed from ReplicaID.
type Mark struct {
	ReplicaID string
	Time      int64
}

// Compute returns, for every distinct Clock.ReplicaID observed across
// entries, the maximum Clock.Time seen — the set of marks describing what
// this replica has already integrated from each signer.
func Compute(entries []*entry.Entry) []Mark {
	max := map[string]int64{}
	for _, e := range entries {
		if e.Clock.Time > max[e.Clock.ReplicaID] {
			max[e.Clock.ReplicaID] = e.Clock.Time
		}
	}
	marks := make([]Mark, 0, len(max))
	for id, t := range max {
		marks = append(marks, Mark{ReplicaID: id, Time: t})
	}
	return dominanceFilter(marks)
}

// dominanceFilter keeps only the marks not dominated by another: for each
// ReplicaID, the mark with the highest Time. Since Compute already reduces
// to one mark per replica, every mark it passes in is already undominated.
// The pass is kept explicit, in place of the teacher's ComputeFrontier
// dominance loop, so a future caller feeding in overlapping marks from
// multiple sources still gets a correctly reduced antichain instead of
// silently accumulating duplicates.
func dominanceFilter(marks []Mark) []Mark {
	best := map[string]int64{}
	for _, m := range marks {
		if v, ok := best[m.ReplicaID]; !ok || m.Time > v {
			best[m.ReplicaID] = m.Time
		}
	}
	out := make([]Mark, 0, len(best))
	for id, t := range best {
		out = append(out, Mark{ReplicaID: id, Time: t})
	}
	return out
}

// Frontier builds a replica-id -> high-water-mark lookup table from marks.
func Frontier(marks []Mark) map[string]int64 {
	f := make(map[string]int64, len(marks))
	for _, m := range marks {
		f[m.ReplicaID] = m.Time
	}
	return f
}

// Missing reports, for each replica known locally or remotely, how far
// local has fallen behind remote: a Mark is returned for every replica
// where remote's high-water mark exceeds local's (or local has none at
// all). The result is suitable as the basis for a sync client's exclude
// set when asking a peer what's new — replicas not listed here need no
// further fetching.
func Missing(local, remote []Mark) []Mark {
	localFrontier := Frontier(local)

	var missing []Mark
	for _, r := range remote {
		if l, ok := localFrontier[r.ReplicaID]; !ok || r.Time > l {
			missing = append(missing, r)
		}
	}
	return missing
}
