package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	TokenType        string      `json:"token_type"`
	Role             models.Role `json:"role"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshExpiresAt time.Time   `json:"refresh_expires_at"`
}

type UserCreateRequest struct {
	Name     string      `json:"name" validate:"required,min=2,max=100"`
	Username string      `json:"username" validate:"required,username"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin accountant user"`
}

type UserUpdateRequest struct {
	Name     *string      `json:"name" validate:"omitempty,min=2,max=100"`
	Username *string      `json:"username" validate:"omitempty,username"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Password *string      `json:"password" validate:"omitempty,min=6"`
	Role     *models.Role `json:"role" validate:"omitempty,oneof=admin accountant user"`
}

type UserList struct {
	Items []models.User `json:"items"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

type TransactionCreateRequest struct {
	Type        models.TransactionType `json:"type" validate:"required,oneof=deposit expense"`
	Amount      float64                `json:"amount" validate:"required,gt=0"`
	Description string                 `json:"description" validate:"required,min=1,max=500"`
	UserID      *uuid.UUID             `json:"user_id"`
	Date        *time.Time             `json:"date"`
}

type TransactionUpdateRequest struct {
	Type        *models.TransactionType `json:"type" validate:"omitempty,oneof=deposit expense"`
	Amount      *float64                `json:"amount" validate:"omitempty,gt=0"`
	Description *string                 `json:"description" validate:"omitempty,min=1,max=500"`
	Date        *time.Time              `json:"date"`
}

// Transaction is a ledger row as returned to clients, with the owner's
// display name resolved.
type Transaction struct {
	models.Transaction
	UserName string `json:"user_name"`
}

type TransactionList struct {
	Items []Transaction `json:"items"`
	Total int64         `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

type MonthTotals struct {
	Deposits float64 `json:"deposits"`
	Expenses float64 `json:"expenses"`
}

type SummaryReport struct {
	TotalDeposits    float64                `json:"total_deposits"`
	TotalExpenses    float64                `json:"total_expenses"`
	Balance          float64                `json:"balance"`
	DepositCount     int64                  `json:"deposit_count"`
	ExpenseCount     int64                  `json:"expense_count"`
	MonthlyBreakdown map[string]MonthTotals `json:"monthly_breakdown"`
}

type UserReport struct {
	UserID        uuid.UUID     `json:"user_id"`
	UserName      string        `json:"user_name"`
	TotalDeposits float64       `json:"total_deposits"`
	DepositCount  int           `json:"deposit_count"`
	Transactions  []Transaction `json:"transactions"`
}
