package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSearchDisabled     = errors.New("search is not configured")
)

// Caller is the authenticated principal as read from a verified access
// token. Role is the snapshot carried by the token.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

type UserStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type LedgerStore interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, f policy.Filter, offset, limit int) (int64, []models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ReportStore interface {
	TotalsByType(ctx context.Context) ([]repo.TypeTotal, error)
	MonthlyRows(ctx context.Context) ([]repo.MonthlyRow, error)
	UserDeposits(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Indexer is the search side of the ledger. The Elasticsearch
// TransactionIndex implements it.
type Indexer interface {
	IndexTransaction(ctx context.Context, tx *models.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	SearchTransactions(ctx context.Context, query string, f policy.Filter, from, size int) (int64, []models.Transaction, error)
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now().UTC()
	}
	return time.Now().UTC()
}
