package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
)

// Visible narrows a query to the rows f lets the caller see. It is the SQL
// form of policy.Filter.Matches.
func Visible(f policy.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch f.Scope {
		case policy.ScopeAll:
			return db
		case policy.ScopeOwnDepositsAllExpenses:
			return db.Where("((type = ? AND user_id = ?) OR type = ?)",
				models.TypeDeposit, f.OwnerID, models.TypeExpense)
		}
		return db.Where("1 = 0")
	}
}

func (r *GormRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return translate(r.DB.WithContext(ctx).Create(tx).Error)
}

func (r *GormRepo) GetTransaction(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

// ListTransactions returns one page of visible transactions, newest first,
// together with the total number of visible rows.
func (r *GormRepo) ListTransactions(ctx context.Context, f policy.Filter, offset, limit int) (int64, []models.Transaction, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Transaction{}).Scopes(Visible(f)).Count(&total).Error; err != nil {
		return 0, nil, translate(err)
	}

	items := make([]models.Transaction, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Transaction{}).
		Scopes(Visible(f)).
		Order("date DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, translate(err)
	}

	return total, items, nil
}

func (r *GormRepo) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", tx.ID).
		Updates(map[string]any{
			"type":        tx.Type,
			"amount":      tx.Amount,
			"description": tx.Description,
			"user_id":     tx.UserID,
			"date":        tx.Date,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
