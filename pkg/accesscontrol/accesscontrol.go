// Package accesscontrol defines the permission-gate contract a driftlog
// Log consults on every Append and during every Join (spec §4.5 step 4,
// §4.6 step 2).
//
// Like pkg/identity, the policy itself is deliberately out of scope for
// the core (spec §1): this package defines the Controller contract and
// ships two reference implementations, AllowAll (permissive default) and
// AllowList (a deterministic allow-set gate), grounded on the teacher's
// AcquireLock total-order conflict resolution in pkg/store/store.go —
// there, clock.TotalOrderLess decided who wins a lock; here the same
// "decide deterministically, never block" posture decides who may write.
package accesscontrol

import (
	"context"

	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/identity"
)

// Controller is consulted for every entry before it is admitted into a
// Log's indices, whether freshly appended locally or received via Join.
type Controller interface {
	// CanAppend reports whether e may be admitted. provider resolves
	// trust for e's signer; implementations are free to ignore it.
	CanAppend(ctx context.Context, e *entry.Entry, provider identity.Provider) (bool, error)
}

// AllowAll admits every entry whose signer the Provider trusts. It is the
// default Controller for a new Log (spec §6 construction options list no
// access controller as required; a sensible default fills the gap, as
// go-ipfs-log's accesscontroller.Default does).
type AllowAll struct{}

// CanAppend returns provider.IsTrusted(e.Identity), nil.
func (AllowAll) CanAppend(_ context.Context, e *entry.Entry, provider identity.Provider) (bool, error) {
	if provider == nil {
		return true, nil
	}
	return provider.IsTrusted(e.Identity), nil
}

// AllowList admits entries only from a fixed set of signer IDs, checked
// against the Provider first. Deterministic across replicas: the decision
// depends only on e.Identity.ID and the configured set, never on arrival
// order, which is what makes it safe to apply independently on every
// replica during Join without producing divergent results.
type AllowList struct {
	allowed map[string]struct{}
}

// NewAllowList builds an AllowList permitting exactly the given signer IDs.
func NewAllowList(ids ...string) *AllowList {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return &AllowList{allowed: allowed}
}

// CanAppend admits e only if both the Provider trusts its signer and the
// signer's ID is in the configured allow set.
func (a *AllowList) CanAppend(_ context.Context, e *entry.Entry, provider identity.Provider) (bool, error) {
	if provider != nil && !provider.IsTrusted(e.Identity) {
		return false, nil
	}
	_, ok := a.allowed[e.Identity.ID]
	return ok, nil
}
