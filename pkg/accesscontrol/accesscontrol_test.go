package accesscontrol

import (
	"context"
	"testing"

	"github.com/ardnt/driftlog/pkg/entry"
	"github.com/ardnt/driftlog/pkg/identity"
)

func TestAllowAllAdmitsTrustedSigner(t *testing.T) {
	e := &entry.Entry{Identity: identity.Identity{ID: "alice"}}
	ok, err := AllowAll{}.CanAppend(context.Background(), e, identity.AlwaysTrust{})
	if err != nil || !ok {
		t.Fatalf("expected admit, got %v %v", ok, err)
	}
}

func TestAllowAllAdmitsWhenProviderNil(t *testing.T) {
	e := &entry.Entry{Identity: identity.Identity{ID: "alice"}}
	ok, err := AllowAll{}.CanAppend(context.Background(), e, nil)
	if err != nil || !ok {
		t.Fatalf("expected admit with nil provider, got %v %v", ok, err)
	}
}

type distrustAll struct{}

func (distrustAll) IsTrusted(identity.Identity) bool { return false }

func TestAllowAllRejectsUntrustedSigner(t *testing.T) {
	e := &entry.Entry{Identity: identity.Identity{ID: "mallory"}}
	ok, err := AllowAll{}.CanAppend(context.Background(), e, distrustAll{})
	if err != nil || ok {
		t.Fatalf("expected reject, got %v %v", ok, err)
	}
}

func TestAllowListAdmitsOnlyConfiguredSigners(t *testing.T) {
	al := NewAllowList("alice", "bob")

	e := &entry.Entry{Identity: identity.Identity{ID: "alice"}}
	ok, err := al.CanAppend(context.Background(), e, identity.AlwaysTrust{})
	if err != nil || !ok {
		t.Fatalf("expected alice admitted, got %v %v", ok, err)
	}

	e2 := &entry.Entry{Identity: identity.Identity{ID: "mallory"}}
	ok, err = al.CanAppend(context.Background(), e2, identity.AlwaysTrust{})
	if err != nil || ok {
		t.Fatalf("expected mallory rejected, got %v %v", ok, err)
	}
}

func TestAllowListRejectsUntrustedEvenIfListed(t *testing.T) {
	al := NewAllowList("alice")
	e := &entry.Entry{Identity: identity.Identity{ID: "alice"}}
	ok, err := al.CanAppend(context.Background(), e, distrustAll{})
	if err != nil || ok {
		t.Fatalf("expected reject when provider distrusts, got %v %v", ok, err)
	}
}
