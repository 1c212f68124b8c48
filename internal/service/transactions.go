package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/mykafka"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

const unknownUserName = "Unknown"

type TransactionService struct {
	Store LedgerStore
	// Index and Events are optional.
	Index  Indexer
	Events mykafka.Publisher
	Topic  string
	Now    func() time.Time
}

func (s *TransactionService) List(ctx context.Context, caller Caller, offset, limit int) (*transport.TransactionList, error) {
	f := policy.AuthorizeList(caller.Role, caller.ID)

	total, items, err := s.Store.ListTransactions(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	out, err := s.withNames(ctx, items)
	if err != nil {
		return nil, err
	}
	return &transport.TransactionList{Items: out, Total: total, Skip: offset, Limit: limit}, nil
}

func (s *TransactionService) Search(ctx context.Context, caller Caller, query string, offset, limit int) (*transport.TransactionList, error) {
	if s.Index == nil {
		return nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: q is required", ErrValidation)
	}

	f := policy.AuthorizeList(caller.Role, caller.ID)
	total, items, err := s.Index.SearchTransactions(ctx, query, f, offset, limit)
	if err != nil {
		return nil, err
	}
	out, err := s.withNames(ctx, items)
	if err != nil {
		return nil, err
	}
	return &transport.TransactionList{Items: out, Total: total, Skip: offset, Limit: limit}, nil
}

// Get returns a single transaction. Rows the caller may not see are
// reported as missing.
func (s *TransactionService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*transport.Transaction, error) {
	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.AuthorizeRead(caller.Role, caller.ID, tx).Allowed {
		return nil, fmt.Errorf("%w: transaction", ErrNotFound)
	}
	return s.withName(ctx, tx)
}

func (s *TransactionService) Create(ctx context.Context, caller Caller, req transport.TransactionCreateRequest) (*transport.Transaction, error) {
	l := logging.FromContext(ctx).With("svc", "transactions.create")

	if err := policy.AuthorizeMutation(caller.Role).Err(); err != nil {
		return nil, err
	}
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	owner := caller.ID
	if req.Type == models.TypeDeposit && req.UserID != nil && *req.UserID != uuid.Nil {
		owner = *req.UserID
	}
	if _, err := s.Store.FindUserByID(ctx, owner); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("create_transaction_failed", "status", 400, "reason", "invalid user_id", "user_id", owner)
			return nil, fmt.Errorf("%w: invalid user_id", ErrValidation)
		}
		return nil, err
	}

	date := clock(s.Now)
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	tx := &models.Transaction{
		ID:          uuid.New(),
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		UserID:      owner,
		Date:        date,
	}
	if err := s.Store.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.sync(ctx, tx)
	s.publish(ctx, mykafka.TransactionCreated, tx, caller.ID)
	l.Info("create_transaction_success", "transaction_id", tx.ID, "type", tx.Type)
	return s.withName(ctx, tx)
}

func (s *TransactionService) Update(ctx context.Context, caller Caller, id uuid.UUID, req transport.TransactionUpdateRequest) (*transport.Transaction, error) {
	if err := policy.AuthorizeMutation(caller.Role).Err(); err != nil {
		return nil, err
	}
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than 0", ErrValidation)
	}
	if req.Description != nil && *req.Description == "" {
		return nil, fmt.Errorf("%w: description must not be empty", ErrValidation)
	}

	tx, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		tx.Type = *req.Type
	}
	if req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if req.Description != nil {
		tx.Description = *req.Description
	}
	if req.Date != nil && !req.Date.IsZero() {
		tx.Date = req.Date.UTC()
	}

	if err := s.Store.UpdateTransaction(ctx, tx); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction", ErrNotFound)
		}
		return nil, err
	}

	s.sync(ctx, tx)
	s.publish(ctx, mykafka.TransactionUpdated, tx, caller.ID)
	return s.withName(ctx, tx)
}

func (s *TransactionService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := policy.AuthorizeMutation(caller.Role).Err(); err != nil {
		return err
	}
	if err := s.Store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: transaction", ErrNotFound)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteTransaction(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_index_failed", "op", "delete", "transaction_id", id, "error", err)
		}
	}
	s.publish(ctx, mykafka.TransactionDeleted, &models.Transaction{ID: id}, caller.ID)
	return nil
}

func (s *TransactionService) load(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	tx, err := s.Store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction", ErrNotFound)
		}
		return nil, err
	}
	return tx, nil
}

func (s *TransactionService) withName(ctx context.Context, tx *models.Transaction) (*transport.Transaction, error) {
	out, err := s.withNames(ctx, []models.Transaction{*tx})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *TransactionService) withNames(ctx context.Context, items []models.Transaction) ([]transport.Transaction, error) {
	return attachNames(ctx, s.Store, items)
}

// attachNames resolves owner names in one query. Owners that no longer
// exist are shown as "Unknown".
func attachNames(ctx context.Context, names interface {
	UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}, items []models.Transaction) ([]transport.Transaction, error) {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, tx := range items {
		if _, ok := seen[tx.UserID]; !ok {
			seen[tx.UserID] = struct{}{}
			ids = append(ids, tx.UserID)
		}
	}

	byID, err := names.UserNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]transport.Transaction, len(items))
	for i, tx := range items {
		name, ok := byID[tx.UserID]
		if !ok {
			name = unknownUserName
		}
		out[i] = transport.Transaction{Transaction: tx, UserName: name}
	}
	return out, nil
}

// sync pushes tx to the search index. Failures are logged; the database
// stays the source of truth.
func (s *TransactionService) sync(ctx context.Context, tx *models.Transaction) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexTransaction(ctx, tx); err != nil {
		logging.FromContext(ctx).Error("search_index_failed", "op", "index", "transaction_id", tx.ID, "error", err)
	}
}

func (s *TransactionService) publish(ctx context.Context, event string, tx *models.Transaction, actor uuid.UUID) {
	if s.Events == nil {
		return
	}
	ev := mykafka.TransactionEvent{
		Event:         event,
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		UserID:        tx.UserID,
		ActorID:       actor,
		At:            clock(s.Now),
	}
	if err := s.Events.PublishEvent(ctx, s.Topic, tx.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "event", event, "error", err)
	}
}
