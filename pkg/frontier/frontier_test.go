package frontier

import (
	"testing"

	"github.com/ardnt/driftlog/pkg/clock"
	"github.com/ardnt/driftlog/pkg/entry"
)

func mkEntry(replica string, t int64) *entry.Entry {
	return &entry.Entry{Clock: clock.Stamp{ReplicaID: replica, Time: t}}
}

func TestComputeTracksHighWaterMarkPerReplica(t *testing.T) {
	entries := []*entry.Entry{
		mkEntry("A", 1),
		mkEntry("A", 3),
		mkEntry("B", 2),
		mkEntry("A", 2),
	}
	marks := Compute(entries)
	f := Frontier(marks)
	if f["A"] != 3 {
		t.Fatalf("expected A's high-water mark 3, got %d", f["A"])
	}
	if f["B"] != 2 {
		t.Fatalf("expected B's high-water mark 2, got %d", f["B"])
	}
}

func TestComputeEmptyForNoEntries(t *testing.T) {
	marks := Compute(nil)
	if len(marks) != 0 {
		t.Fatalf("expected no marks for empty input, got %d", len(marks))
	}
}

func TestComputeOneMarkPerReplica(t *testing.T) {
	entries := []*entry.Entry{mkEntry("A", 1), mkEntry("B", 1)}
	marks := Compute(entries)
	if len(marks) != 2 {
		t.Fatalf("expected 2 marks for 2 replicas, got %d", len(marks))
	}
}

func TestMissingReportsBehindReplicas(t *testing.T) {
	local := []Mark{{ReplicaID: "A", Time: 3}, {ReplicaID: "B", Time: 1}}
	remote := []Mark{{ReplicaID: "A", Time: 3}, {ReplicaID: "B", Time: 5}, {ReplicaID: "C", Time: 1}}

	missing := Missing(local, remote)
	got := Frontier(missing)
	if len(got) != 2 {
		t.Fatalf("expected 2 replicas behind, got %d (%v)", len(got), got)
	}
	if got["B"] != 5 {
		t.Fatalf("expected B's remote mark 5, got %d", got["B"])
	}
	if got["C"] != 1 {
		t.Fatalf("expected C (unknown locally) reported missing at 1, got %d", got["C"])
	}
	if _, ok := got["A"]; ok {
		t.Fatal("expected A (up to date) not reported missing")
	}
}

func TestMissingEmptyWhenLocalIsCaughtUp(t *testing.T) {
	local := []Mark{{ReplicaID: "A", Time: 5}}
	remote := []Mark{{ReplicaID: "A", Time: 3}}
	if missing := Missing(local, remote); len(missing) != 0 {
		t.Fatalf("expected no missing replicas, got %v", missing)
	}
}

func TestMissingEmptyForEmptyRemote(t *testing.T) {
	if missing := Missing(nil, nil); len(missing) != 0 {
		t.Fatalf("expected no missing replicas for empty inputs, got %v", missing)
	}
}

func TestFrontierBuildsLookupTable(t *testing.T) {
	marks := []Mark{{ReplicaID: "A", Time: 3}, {ReplicaID: "B", Time: 7}}
	f := Frontier(marks)
	if f["A"] != 3 || f["B"] != 7 {
		t.Fatalf("unexpected frontier table: %v", f)
	}
}
