package policy

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

type Scope int

const (
	// ScopeNone is the zero value so an unset Filter hides everything.
	ScopeNone Scope = iota
	ScopeAll
	// ScopeOwnDepositsAllExpenses is
	// (type = deposit AND owner = OwnerID) OR (type = expense).
	ScopeOwnDepositsAllExpenses
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwnDepositsAllExpenses:
		return "own_deposits_all_expenses"
	}
	return "none"
}

// Filter is a predicate over transactions. The repository and the search
// index translate it into their own query languages; Matches is the
// reference semantics they must agree with.
type Filter struct {
	Scope   Scope
	OwnerID uuid.UUID
}

func (f Filter) Matches(tx *models.Transaction) bool {
	if tx == nil {
		return false
	}
	switch f.Scope {
	case ScopeAll:
		return true
	case ScopeOwnDepositsAllExpenses:
		return tx.Type == models.TypeExpense ||
			(tx.Type == models.TypeDeposit && tx.UserID == f.OwnerID)
	}
	return false
}

// Apply keeps the transactions that match f, preserving order.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		if f.Matches(&txs[i]) {
			out = append(out, txs[i])
		}
	}
	return out
}
