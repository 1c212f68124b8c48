// Package policy decides what a caller may do with ledger transactions.
// Every function here is pure: the result depends only on the arguments,
// so the same rule applies from any transport.
package policy

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

var ErrInsufficientRole = errors.New("insufficient role")

type Decision struct {
	Allowed bool
	Reason  error
}

func allow() Decision { return Decision{Allowed: true} }

func deny() Decision { return Decision{Reason: ErrInsufficientRole} }

// Err is nil for an allowed decision and the deny reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == nil {
		return ErrInsufficientRole
	}
	return d.Reason
}

func privileged(role models.Role) bool {
	return role == models.RoleAdmin || role == models.RoleAccountant
}

// AuthorizeMutation gates create, update and delete. Plain users may not
// mutate any transaction, their own included.
func AuthorizeMutation(role models.Role) Decision {
	if privileged(role) {
		return allow()
	}
	return deny()
}

// AuthorizeList returns the visibility filter for bulk reads.
func AuthorizeList(role models.Role, callerID uuid.UUID) Filter {
	switch {
	case privileged(role):
		return Filter{Scope: ScopeAll}
	case role == models.RoleUser:
		return Filter{Scope: ScopeOwnDepositsAllExpenses, OwnerID: callerID}
	}
	return Filter{Scope: ScopeNone}
}

// AuthorizeRead applies the list filter to a single transaction.
func AuthorizeRead(role models.Role, callerID uuid.UUID, tx *models.Transaction) Decision {
	if AuthorizeList(role, callerID).Matches(tx) {
		return allow()
	}
	return deny()
}

// AuthorizeReport gates reports. A nil target asks for the organisation
// summary; otherwise target names the user whose deposit report is wanted.
func AuthorizeReport(role models.Role, callerID uuid.UUID, target *uuid.UUID) Decision {
	if privileged(role) {
		return allow()
	}
	if target == nil {
		return deny()
	}
	if role == models.RoleUser && *target == callerID {
		return allow()
	}
	return deny()
}

// AuthorizeUserAdmin gates user management, which only admins may do.
func AuthorizeUserAdmin(role models.Role) Decision {
	if role == models.RoleAdmin {
		return allow()
	}
	return deny()
}
