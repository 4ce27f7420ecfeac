package dag

import (
	"testing"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/ardnt/driftlog/pkg/clock"
	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/identity"
)

func fixtureCID(seed string) cid.Cid {
	sum, err := mh.Sum([]byte(seed), mh.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, sum)
}

// chain builds a linear sequence of n entries, entry i pointing at entry
// i-1, all belonging to logID and stamped by replica at increasing times.
func chain(logID, replica string, n int) []*entry.Entry {
	out := make([]*entry.Entry, n)
	for i := 0; i < n; i++ {
		var next []cid.Cid
		if i > 0 {
			next = []cid.Cid{out[i-1].Hash}
		}
		out[i] = &entry.Entry{
			Hash:     fixtureCID(logID + replica + string(rune('a'+i))),
			ID:       logID,
			Next:     next,
			Clock:    clock.Stamp{ReplicaID: replica, Time: int64(i + 1)},
			Identity: identity.Identity{ID: replica},
		}
	}
	return out
}

func toByHash(entries []*entry.Entry) ByHash {
	out := make(ByHash, len(entries))
	for _, e := range entries {
		out[e.Hash.String()] = e
	}
	return out
}

func TestFindHeadsSingleChain(t *testing.T) {
	entries := chain("log1", "r1", 5)
	heads := FindHeads(toByHash(entries))
	if len(heads) != 1 {
		t.Fatalf("expected 1 head, got %d", len(heads))
	}
	if !heads[0].Hash.Equals(entries[4].Hash) {
		t.Fatalf("expected tail entry to be the head")
	}
}

func TestFindHeadsConcurrentBranches(t *testing.T) {
	a := chain("log1", "r1", 1)
	b := chain("log1", "r2", 1)
	heads := FindHeads(toByHash(append(a, b...)))
	if len(heads) != 2 {
		t.Fatalf("expected 2 heads for two independent roots, got %d", len(heads))
	}
}

func TestFindTailsNoPredecessors(t *testing.T) {
	entries := chain("log1", "r1", 3)
	tails := FindTails(entries)
	if len(tails) != 1 || !tails[0].Hash.Equals(entries[0].Hash) {
		t.Fatalf("expected single root entry as tail")
	}
}

func TestFindTailHashesAllKnownLocally(t *testing.T) {
	entries := chain("log1", "r1", 3)
	hashes := FindTailHashes(entries)
	if len(hashes) != 0 {
		t.Fatalf("expected no missing-predecessor entries, got %d", len(hashes))
	}
}

func TestFindTailHashesDetectsMissingPredecessor(t *testing.T) {
	entries := chain("log1", "r1", 3)
	// Drop the root entry from the slice passed in: now entries[1] (index 0
	// in the slice below) references a predecessor absent from this set.
	partial := entries[1:]
	hashes := FindTailHashes(partial)
	if len(hashes) != 1 {
		t.Fatalf("expected 1 entry with a missing predecessor, got %d", len(hashes))
	}
	if hashes[0] != entries[1].Hash.String() {
		t.Fatalf("expected the entry referencing the missing predecessor, got %s", hashes[0])
	}
}

func TestTraverseVisitsEveryEntryOnce(t *testing.T) {
	entries := chain("log1", "r1", 5)
	byHash := toByHash(entries)
	heads := FindHeads(byHash)

	result := Traverse(byHash, heads, -1, "")
	if len(result) != 5 {
		t.Fatalf("expected to visit all 5 entries, got %d", len(result))
	}
	seen := map[string]bool{}
	for _, e := range result {
		k := e.Hash.String()
		if seen[k] {
			t.Fatalf("entry %s visited twice", k)
		}
		seen[k] = true
	}
}

func TestTraverseIsBoundedByAmount(t *testing.T) {
	entries := chain("log1", "r1", 5)
	byHash := toByHash(entries)
	heads := FindHeads(byHash)

	result := Traverse(byHash, heads, 2, "")
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	// Traverse starts from the most recent (highest-priority) entry.
	if !result[0].Hash.Equals(entries[4].Hash) {
		t.Fatalf("expected traversal to start at the head")
	}
}

func TestTraverseIsDeterministicAcrossRuns(t *testing.T) {
	entries := chain("log1", "r1", 6)
	byHash := toByHash(entries)
	heads := FindHeads(byHash)

	a := Traverse(byHash, heads, -1, "")
	b := Traverse(byHash, heads, -1, "")
	if len(a) != len(b) {
		t.Fatalf("length mismatch between runs: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].Hash.Equals(b[i].Hash) {
			t.Fatalf("order mismatch at %d: %s vs %s", i, a[i].Hash, b[i].Hash)
		}
	}
}

func TestDifferenceFindsEntriesMissingFromB(t *testing.T) {
	entries := chain("log1", "r1", 5)
	aByHash := toByHash(entries)
	aHeads := FindHeads(aByHash)

	// B only knows about the first two entries.
	bByHash := toByHash(entries[:2])

	diff := Difference(aByHash, aHeads, "log1", bByHash)
	if len(diff) != 3 {
		t.Fatalf("expected 3 new entries, got %d", len(diff))
	}
	for _, e := range entries[2:] {
		if _, ok := diff[e.Hash.String()]; !ok {
			t.Fatalf("expected %s in difference", e.Hash)
		}
	}
}

func TestDifferenceEmptyWhenBHasEverything(t *testing.T) {
	entries := chain("log1", "r1", 3)
	aByHash := toByHash(entries)
	aHeads := FindHeads(aByHash)
	bByHash := toByHash(entries)

	diff := Difference(aByHash, aHeads, "log1", bByHash)
	if len(diff) != 0 {
		t.Fatalf("expected empty difference, got %d entries", len(diff))
	}
}

func TestDifferenceIgnoresEntriesFromOtherLogs(t *testing.T) {
	entries := chain("other-log", "r1", 2)
	aByHash := toByHash(entries)
	aHeads := FindHeads(aByHash)

	diff := Difference(aByHash, aHeads, "log1", ByHash{})
	if len(diff) != 0 {
		t.Fatalf("expected no entries from a differently-ID'd log, got %d", len(diff))
	}
}
