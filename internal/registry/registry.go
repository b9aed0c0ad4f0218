// Package registry holds the mutable set of operator identities with a
// protected primary member fixed at startup.
package registry

import (
	"log/slog"
	"slices"
	"sync"

	"relaybot/internal/domain"
)

// Registry is the operator set. The primary operator is seeded at
// construction and can never be removed.
type Registry struct {
	mu      sync.RWMutex
	primary domain.UserID
	ops     map[domain.UserID]struct{}
	logger  *slog.Logger
}

// New creates a registry containing the primary operator plus any
// extra pre-configured operators.
func New(primary domain.UserID, extra []domain.UserID, logger *slog.Logger) *Registry {
	ops := make(map[domain.UserID]struct{}, 1+len(extra))
	ops[primary] = struct{}{}
	for _, id := range extra {
		ops[id] = struct{}{}
	}
	return &Registry{primary: primary, ops: ops, logger: logger}
}

// Primary returns the protected primary operator id.
func (r *Registry) Primary() domain.UserID { return r.primary }

// IsOperator reports whether id is currently an operator.
func (r *Registry) IsOperator(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ops[id]
	return ok
}

// Add promotes id to operator. Fails with ErrAlreadyOperator if it
// already is one.
func (r *Registry) Add(id domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[id]; ok {
		return domain.ErrAlreadyOperator
	}
	r.ops[id] = struct{}{}
	r.logger.Info("operator added", "id", int64(id))
	return nil
}

// Remove demotes target on behalf of requester. The guard checks run
// self → primary → membership, so removing oneself while also being
// primary reports ErrCannotRemoveSelf, the more actionable error.
func (r *Registry) Remove(requester, target domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if target == requester {
		return domain.ErrCannotRemoveSelf
	}
	if target == r.primary {
		return domain.ErrCannotRemovePrimary
	}
	if _, ok := r.ops[target]; !ok {
		return domain.ErrNotAnOperator
	}
	delete(r.ops, target)
	r.logger.Info("operator removed", "id", int64(target), "by", int64(requester))
	return nil
}

// List returns all operator ids in ascending order.
func (r *Registry) List() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.ops))
	for id := range r.ops {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Count returns the number of operators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops)
}

// Removable lists operators that requester could demote: everyone
// except the primary and the requester themselves.
func (r *Registry) Removable(requester domain.UserID) []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserID, 0, len(r.ops))
	for id := range r.ops {
		if id != r.primary && id != requester {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
