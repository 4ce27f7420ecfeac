// Package dag implements the structural algorithms that operate over a
// driftlog's entry set as a directed acyclic graph: deterministic
// traversal, head/tail discovery, and the difference computation Join
// uses to find what's new (spec §4.4, §4.7, component C4).
//
// Every function here is a pure computation over maps and slices — no
// network or storage access — so pkg/dlog can call them freely while
// holding its own lock.
package dag

import (
	"sort"

	"github.com/ardnt/driftlog/pkg/entry"
)

// ByHash indexes entries by their hash string, the representation every
// function in this package expects callers to maintain incrementally as
// entries are appended or joined in.
type ByHash map[string]*entry.Entry

// Traverse walks the DAG breadth-first from roots, visiting each entry at
// most once, in the priority order given by entry.Compare over the
// frontier (spec §4.4): roots are sorted descending (most-recent first)
// and newly discovered predecessors are inserted in the same order they'd
// sort, so traversal always explores the causally-latest available entry
// first. It stops after amount entries (amount < 0 means "all") or upon
// reaching endHash, whichever comes first.
func Traverse(byHash ByHash, roots []*entry.Entry, amount int, endHash string) []*entry.Entry {
	if len(roots) == 0 {
		return nil
	}

	stack := make([]*entry.Entry, len(roots))
	copy(stack, roots)
	entry.Sort(stack)
	entry.Reverse(stack) // descending: newest/highest-priority first

	traversed := make(map[string]bool, len(byHash))
	result := make([]*entry.Entry, 0, len(byHash))

	for len(stack) > 0 && (amount < 0 || len(result) < amount) {
		e := stack[0]
		stack = stack[1:]

		result = append(result, e)
		traversed[e.Hash.String()] = true

		for _, next := range e.Next {
			nextEntry, ok := byHash[next.String()]
			if !ok || traversed[next.String()] {
				continue
			}
			stack = insertSorted(stack, nextEntry)
			traversed[next.String()] = true
		}

		if e.Hash.String() == endHash {
			break
		}
	}

	return result
}

// insertSorted inserts e into stack, keeping it sorted descending by
// entry.Compare (mirrors Add-then-sort in the reference traversal, done
// incrementally to avoid re-sorting the whole stack on every step).
func insertSorted(stack []*entry.Entry, e *entry.Entry) []*entry.Entry {
	i := sort.Search(len(stack), func(i int) bool {
		return entry.Compare(stack[i], e) <= 0
	})
	stack = append(stack, nil)
	copy(stack[i+1:], stack[i:])
	stack[i] = e
	return stack
}

// FindHeads returns the entries in byHash that no other entry in the set
// references as a predecessor (spec §3.3: "an entry with no known
// successor in the local entry set"). Order is by clock replica ID
// ascending, matching go-ipfs-log's findHeads: a stable, deterministic
// tiebreak for display purposes — Join's correctness depends only on the
// returned set, not this order.
func FindHeads(byHash ByHash) []*entry.Entry {
	referenced := make(map[string]bool, len(byHash))
	for _, e := range byHash {
		for _, n := range e.Next {
			referenced[n.String()] = true
		}
	}

	heads := make([]*entry.Entry, 0)
	for hash, e := range byHash {
		if !referenced[hash] {
			heads = append(heads, e)
		}
	}

	sort.SliceStable(heads, func(i, j int) bool {
		return heads[i].Clock.ReplicaID < heads[j].Clock.ReplicaID
	})
	return heads
}

// FindTails returns every entry in entries that references at least one
// predecessor absent from entries, plus every entry that has no
// predecessors at all — the entries this set is causally rooted at
// (spec §3.3's tail definition). The result is unique by hash.
func FindTails(entries []*entry.Entry) []*entry.Entry {
	reverseIndex := map[string][]*entry.Entry{}
	var nullIndex []*entry.Entry
	hashes := map[string]bool{}
	var nexts []string

	for _, e := range entries {
		if len(e.Next) == 0 {
			nullIndex = append(nullIndex, e)
		}
		for _, n := range e.Next {
			key := n.String()
			reverseIndex[key] = append(reverseIndex[key], e)
			nexts = append(nexts, key)
		}
		hashes[e.Hash.String()] = true
	}

	seen := map[string]bool{}
	var tails []*entry.Entry
	for _, n := range nexts {
		if hashes[n] || seen[n] {
			continue
		}
		seen[n] = true
		tails = append(tails, reverseIndex[n]...)
	}
	tails = append(tails, nullIndex...)
	return dedupeByHash(tails)
}

func dedupeByHash(entries []*entry.Entry) []*entry.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]*entry.Entry, 0, len(entries))
	for _, e := range entries {
		k := e.Hash.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// FindTailHashes returns, for each entry that references a predecessor
// absent from entries, that entry's own hash — the set Join needs to
// fetch ancestors for before a remote entry set can be fully integrated
// (spec §4.7 "the predecessor is absent locally"). Spec §4.8 describes
// the return value as "the dangling predecessor hashes themselves ...
// insertion-order reversed"; this instead returns the referencing
// entry's hash in encounter order, matching go-ipfs-log's findTailHashes
// (the function this is grounded on carries the same discrepancy). No
// operation in this package currently calls it.
func FindTailHashes(entries []*entry.Entry) []string {
	hashes := make(map[string]bool, len(entries))
	for _, e := range entries {
		hashes[e.Hash.String()] = true
	}

	var res []string
	for _, e := range entries {
		for _, n := range e.Next {
			key := n.String()
			if !hashes[key] {
				res = append(res, e.Hash.String())
				break
			}
		}
	}
	return res
}

// Difference returns the entries reachable from aHeads, belonging to
// aLogID, that are not already present in bByHash — the "new to B" set a
// Join integrates (spec §4.7 step 1). Traversal follows Next pointers
// outward from aHeads through aByHash, stopping at any entry already
// known to B.
func Difference(aByHash ByHash, aHeads []*entry.Entry, aLogID string, bByHash ByHash) ByHash {
	res := ByHash{}
	if len(aByHash) == 0 {
		return res
	}

	stack := make([]string, 0, len(aHeads))
	for _, h := range aHeads {
		stack = append(stack, h.Hash.String())
	}
	traversed := map[string]bool{}

	for len(stack) > 0 {
		hash := stack[0]
		stack = stack[1:]

		eA, okA := aByHash[hash]
		_, okB := bByHash[hash]

		if okA && !okB && eA.ID == aLogID {
			res[hash] = eA
			traversed[hash] = true
			for _, n := range eA.Next {
				key := n.String()
				if _, inB := bByHash[key]; !traversed[key] && !inB {
					stack = append(stack, key)
					traversed[key] = true
				}
			}
		}
	}

	return res
}
