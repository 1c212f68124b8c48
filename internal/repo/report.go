package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

type TypeTotal struct {
	Type  models.TransactionType
	Total float64
	Count int64
}

func (r *GormRepo) TotalsByType(ctx context.Context) ([]TypeTotal, error) {
	var rows []TypeTotal
	if err := r.DB.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

type MonthlyRow struct {
	Date   time.Time
	Type   models.TransactionType
	Amount float64
}

// MonthlyRows loads the columns needed for the monthly breakdown. The
// bucketing is done by the caller so the query stays dialect neutral.
func (r *GormRepo) MonthlyRows(ctx context.Context) ([]MonthlyRow, error) {
	var rows []MonthlyRow
	if err := r.DB.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("date, type, amount").
		Order("date DESC").
		Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (r *GormRepo) UserDeposits(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var items []models.Transaction
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, models.TypeDeposit).
		Order("date DESC").
		Find(&items).Error; err != nil {
		return nil, translate(err)
	}
	return items, nil
}
