package registry

import (
	"errors"
	"log/slog"
	"testing"

	"relaybot/internal/domain"
)

func newTestRegistry(extra ...domain.UserID) *Registry {
	return New(9, extra, slog.Default())
}

func TestRegistry_SeededWithPrimary(t *testing.T) {
	r := newTestRegistry()
	if !r.IsOperator(9) {
		t.Fatal("primary should be an operator from the start")
	}
	if r.Primary() != 9 {
		t.Fatalf("primary = %d, want 9", r.Primary())
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestRegistry_AddAndDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Add(42); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !r.IsOperator(42) {
		t.Fatal("42 should be an operator after add")
	}
	if err := r.Add(42); !errors.Is(err, domain.ErrAlreadyOperator) {
		t.Fatalf("duplicate add = %v, want ErrAlreadyOperator", err)
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := newTestRegistry(42)
	if err := r.Remove(9, 42); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if r.IsOperator(42) {
		t.Fatal("42 should no longer be an operator")
	}
	if err := r.Remove(9, 42); !errors.Is(err, domain.ErrNotAnOperator) {
		t.Fatalf("second remove = %v, want ErrNotAnOperator", err)
	}
}

func TestRegistry_RemovePrimaryFails(t *testing.T) {
	r := newTestRegistry(42)
	if err := r.Remove(42, 9); !errors.Is(err, domain.ErrCannotRemovePrimary) {
		t.Fatalf("remove primary = %v, want ErrCannotRemovePrimary", err)
	}
	if !r.IsOperator(9) {
		t.Fatal("primary must survive the attempt")
	}
}

// When requester == target == primary, the self check must win over the
// primary check.
func TestRegistry_SelfCheckBeforePrimaryCheck(t *testing.T) {
	r := newTestRegistry()
	if err := r.Remove(9, 9); !errors.Is(err, domain.ErrCannotRemoveSelf) {
		t.Fatalf("primary removing itself = %v, want ErrCannotRemoveSelf", err)
	}
	if r.Count() != 1 {
		t.Fatal("membership must be unchanged")
	}
}

func TestRegistry_SelfCheckForNonPrimary(t *testing.T) {
	r := newTestRegistry(42)
	if err := r.Remove(42, 42); !errors.Is(err, domain.ErrCannotRemoveSelf) {
		t.Fatalf("self remove = %v, want ErrCannotRemoveSelf", err)
	}
}

func TestRegistry_SelfCheckBeforeMembershipCheck(t *testing.T) {
	r := newTestRegistry()
	// 77 is not even an operator, but removing oneself still reports
	// the self violation first.
	if err := r.Remove(77, 77); !errors.Is(err, domain.ErrCannotRemoveSelf) {
		t.Fatalf("remove = %v, want ErrCannotRemoveSelf", err)
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	r := newTestRegistry(100, 3)
	got := r.List()
	want := []domain.UserID{3, 9, 100}
	if len(got) != len(want) {
		t.Fatalf("list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("list = %v, want %v", got, want)
		}
	}
}

func TestRegistry_Removable(t *testing.T) {
	r := newTestRegistry(42, 77)
	got := r.Removable(42)
	if len(got) != 1 || got[0] != 77 {
		t.Fatalf("removable for 42 = %v, want [77]", got)
	}
	if got := r.Removable(9); len(got) != 2 {
		t.Fatalf("removable for primary = %v, want two entries", got)
	}
}
