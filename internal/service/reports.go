package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

const monthKeyLayout = "2006-01"

type ReportService struct {
	Store ReportStore
}

// Summary aggregates the whole ledger. Totals and the monthly breakdown
// are fetched concurrently.
func (s *ReportService) Summary(ctx context.Context, caller Caller) (*transport.SummaryReport, error) {
	if err := policy.AuthorizeReport(caller.Role, caller.ID, nil).Err(); err != nil {
		return nil, err
	}

	var (
		totals []repo.TypeTotal
		rows   []repo.MonthlyRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.Store.TotalsByType(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.Store.MonthlyRows(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summary report: %w", err)
	}

	out := &transport.SummaryReport{MonthlyBreakdown: monthly(rows)}
	for _, t := range totals {
		switch t.Type {
		case models.TypeDeposit:
			out.TotalDeposits, out.DepositCount = t.Total, t.Count
		case models.TypeExpense:
			out.TotalExpenses, out.ExpenseCount = t.Total, t.Count
		}
	}
	out.Balance = out.TotalDeposits - out.TotalExpenses
	return out, nil
}

func monthly(rows []repo.MonthlyRow) map[string]transport.MonthTotals {
	out := make(map[string]transport.MonthTotals)
	for _, r := range rows {
		key := r.Date.UTC().Format(monthKeyLayout)
		m := out[key]
		switch r.Type {
		case models.TypeDeposit:
			m.Deposits += r.Amount
		case models.TypeExpense:
			m.Expenses += r.Amount
		}
		out[key] = m
	}
	return out
}

// UserDeposits reports one user's deposits. The policy is checked before
// the target is looked up.
func (s *ReportService) UserDeposits(ctx context.Context, caller Caller, target uuid.UUID) (*transport.UserReport, error) {
	if err := policy.AuthorizeReport(caller.Role, caller.ID, &target).Err(); err != nil {
		return nil, err
	}

	user, err := s.Store.FindUserByID(ctx, target)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	deposits, err := s.Store.UserDeposits(ctx, target)
	if err != nil {
		return nil, err
	}
	items, err := attachNames(ctx, s.Store, deposits)
	if err != nil {
		return nil, err
	}

	out := &transport.UserReport{
		UserID:       target,
		UserName:     user.Name,
		DepositCount: len(deposits),
		Transactions: items,
	}
	for _, d := range deposits {
		out.TotalDeposits += d.Amount
	}
	return out, nil
}
