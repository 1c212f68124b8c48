package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

func tx(typ models.TransactionType, owner uuid.UUID) models.Transaction {
	return models.Transaction{
		ID:          uuid.New(),
		Type:        typ,
		Amount:      10,
		Description: string(typ),
		UserID:      owner,
		Date:        time.Now().UTC(),
	}
}

func TestAuthorizeMutation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role    models.Role
		allowed bool
	}{
		{role: models.RoleAdmin, allowed: true},
		{role: models.RoleAccountant, allowed: true},
		{role: models.RoleUser, allowed: false},
		{role: models.Role("auditor"), allowed: false},
		{role: "", allowed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.role), func(t *testing.T) {
			t.Parallel()

			d := AuthorizeMutation(tt.role)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				assert.ErrorIs(t, d.Err(), ErrInsufficientRole)
			}
		})
	}
}

func TestAuthorizeList_UserSeesOwnDepositsAndAllExpenses(t *testing.T) {
	t.Parallel()

	userA := uuid.New()
	userB := uuid.New()

	depositA := tx(models.TypeDeposit, userA)
	depositB := tx(models.TypeDeposit, userB)
	expenseB := tx(models.TypeExpense, userB)
	all := []models.Transaction{depositA, depositB, expenseB}

	got := AuthorizeList(models.RoleUser, userA).Apply(all)

	require.Len(t, got, 2)
	assert.Equal(t, depositA.ID, got[0].ID)
	assert.Equal(t, expenseB.ID, got[1].ID)
}

func TestAuthorizeList_PrivilegedSeeEverything(t *testing.T) {
	t.Parallel()

	caller := uuid.New()
	other := uuid.New()
	all := []models.Transaction{
		tx(models.TypeDeposit, caller),
		tx(models.TypeDeposit, other),
		tx(models.TypeExpense, other),
	}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleAccountant} {
		f := AuthorizeList(role, caller)
		assert.Equal(t, ScopeAll, f.Scope)
		assert.Len(t, f.Apply(all), 3)
	}
}

func TestAuthorizeList_UnknownRoleSeesNothing(t *testing.T) {
	t.Parallel()

	caller := uuid.New()
	f := AuthorizeList(models.Role("guest"), caller)

	assert.Equal(t, ScopeNone, f.Scope)
	assert.Empty(t, f.Apply([]models.Transaction{tx(models.TypeExpense, caller)}))
}

func TestFilter_ZeroValueMatchesNothing(t *testing.T) {
	t.Parallel()

	var f Filter
	d := tx(models.TypeExpense, uuid.New())
	assert.False(t, f.Matches(&d))
	assert.False(t, f.Matches(nil))
}

func TestFilter_ExpensesAreNotOwnerScoped(t *testing.T) {
	t.Parallel()

	caller := uuid.New()
	f := AuthorizeList(models.RoleUser, caller)

	foreignExpense := tx(models.TypeExpense, uuid.New())
	ownExpense := tx(models.TypeExpense, caller)
	foreignDeposit := tx(models.TypeDeposit, uuid.New())
	orphanDeposit := tx(models.TypeDeposit, uuid.Nil)

	assert.True(t, f.Matches(&foreignExpense))
	assert.True(t, f.Matches(&ownExpense))
	assert.False(t, f.Matches(&foreignDeposit))
	assert.False(t, f.Matches(&orphanDeposit))
}

func TestAuthorizeRead(t *testing.T) {
	t.Parallel()

	caller := uuid.New()
	own := tx(models.TypeDeposit, caller)
	foreign := tx(models.TypeDeposit, uuid.New())

	assert.True(t, AuthorizeRead(models.RoleUser, caller, &own).Allowed)
	assert.ErrorIs(t, AuthorizeRead(models.RoleUser, caller, &foreign).Err(), ErrInsufficientRole)
	assert.True(t, AuthorizeRead(models.RoleAccountant, caller, &foreign).Allowed)
}

func TestAuthorizeReport(t *testing.T) {
	t.Parallel()

	one := uuid.New()
	two := uuid.New()

	tests := []struct {
		name    string
		role    models.Role
		caller  uuid.UUID
		target  *uuid.UUID
		allowed bool
	}{
		{name: "user other target", role: models.RoleUser, caller: one, target: &two, allowed: false},
		{name: "user own target", role: models.RoleUser, caller: one, target: &one, allowed: true},
		{name: "user summary", role: models.RoleUser, caller: one, target: nil, allowed: false},
		{name: "accountant summary", role: models.RoleAccountant, caller: one, target: nil, allowed: true},
		{name: "accountant any target", role: models.RoleAccountant, caller: one, target: &two, allowed: true},
		{name: "admin summary", role: models.RoleAdmin, caller: one, target: nil, allowed: true},
		{name: "admin any target", role: models.RoleAdmin, caller: one, target: &two, allowed: true},
		{name: "unknown role own target", role: models.Role("x"), caller: one, target: &one, allowed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := AuthorizeReport(tt.role, tt.caller, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.ErrorIs(t, d.Err(), ErrInsufficientRole)
			}
		})
	}
}

func TestAuthorizeUserAdmin(t *testing.T) {
	t.Parallel()

	assert.True(t, AuthorizeUserAdmin(models.RoleAdmin).Allowed)
	assert.False(t, AuthorizeUserAdmin(models.RoleAccountant).Allowed)
	assert.False(t, AuthorizeUserAdmin(models.RoleUser).Allowed)
}
