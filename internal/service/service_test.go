package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/finance_ledger/internal/db"
	"github.com/Skotchmaster/finance_ledger/internal/hash"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
)

func init() {
	hash.Cost = bcrypt.MinCost
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return &repo.GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *repo.GormRepo, username string, role models.Role, password string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           uuid.New(),
		Name:         "Name " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func caller(u *models.User) Caller {
	return Caller{ID: u.ID, Role: u.Role}
}

type recordedEvent struct {
	Topic string
	Key   string
	Event any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]models.Transaction
	queries []policy.Filter
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uuid.UUID]models.Transaction{}}
}

func (f *fakeIndex) IndexTransaction(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[tx.ID] = *tx
	return nil
}

func (f *fakeIndex) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchTransactions(_ context.Context, _ string, flt policy.Filter, _, _ int) (int64, []models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, flt)
	var out []models.Transaction
	for _, tx := range f.docs {
		if flt.Matches(&tx) {
			out = append(out, tx)
		}
	}
	return int64(len(out)), out, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
}
