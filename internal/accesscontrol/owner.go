// Package accesscontrol models the single privileged "owner" identity gating
// sale configuration and treasury operations. One stored address plus a
// capability check; a predicate over caller+operation would generalize this if
// multiple roles are ever needed.
package accesscontrol

import (
	"sync"

	"dropspace/pkg/domain"
	domainerrors "dropspace/pkg/domain-errors"
)

// Authority holds the current owner address.
type Authority struct {
	mu    sync.RWMutex
	owner domain.Address
}

func New(owner domain.Address) *Authority {
	return &Authority{owner: owner}
}

// Owner returns the current owner address.
func (a *Authority) Owner() domain.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

// RequireOwner fails with Unauthorized when caller is not the owner.
func (a *Authority) RequireOwner(caller domain.Address) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if caller.IsZero() || caller != a.owner {
		return domainerrors.New(domainerrors.CodeUnauthorized, "caller is not the owner")
	}
	return nil
}

// TransferOwnership hands the owner role to next. Only the current owner may
// transfer, and the role cannot be handed to the zero address (that would
// permanently lock every gated operation).
func (a *Authority) TransferOwnership(caller, next domain.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if caller.IsZero() || caller != a.owner {
		return domainerrors.New(domainerrors.CodeUnauthorized, "caller is not the owner")
	}
	if next.IsZero() {
		return domainerrors.New(domainerrors.CodeInvalidConfiguration, "new owner address is required")
	}
	a.owner = next
	return nil
}
