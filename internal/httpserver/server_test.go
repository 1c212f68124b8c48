package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/finance_ledger/internal/db"
	"github.com/Skotchmaster/finance_ledger/internal/hash"
	authmw "github.com/Skotchmaster/finance_ledger/internal/middleware/auth"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
)

func init() {
	hash.Cost = bcrypt.MinCost
}

const testPassword = "s3cret!"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	T          *testing.T
	E          *echo.Echo
	Repo       *repo.GormRepo
	Tokens     *tokens.Service
	Clock      *testClock
	Admin      *models.User
	Accountant *models.User
	Alice      *models.User
	Bob        *models.User
}

func newTestEnv(t *testing.T, loginLimit int) *testEnv {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: gdb}
	clock := &testClock{now: time.Now().Truncate(time.Second)}
	tok := &tokens.Service{
		Secret:     []byte("test-jwt-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Store:      r,
		Now:        clock.Now,
	}
	metrics := observability.NewMetrics()

	e := New(&Deps{
		Auth:           &authmw.Middleware{Tokens: tok, Metrics: metrics},
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Users: r, Tokens: tok}, Metrics: metrics},
		Users:          &UsersHTTP{Svc: &service.UserService{Repo: r}, Metrics: metrics},
		Transactions:   &TransactionsHTTP{Svc: &service.TransactionService{Store: r}, Metrics: metrics},
		Reports:        &ReportsHTTP{Svc: &service.ReportService{Store: r}, Metrics: metrics},
		Metrics:        metrics,
		Ready:          func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		LoginRateLimit: loginLimit,
	})

	env := &testEnv{T: t, E: e, Repo: r, Tokens: tok, Clock: clock}
	env.Admin = env.seedUser("admin", models.RoleAdmin)
	env.Accountant = env.seedUser("accountant", models.RoleAccountant)
	env.Alice = env.seedUser("alice", models.RoleUser)
	env.Bob = env.seedUser("bob", models.RoleUser)
	return env
}

func (env *testEnv) seedUser(username string, role models.Role) *models.User {
	env.T.Helper()

	pwHash, err := hash.HashPassword(testPassword)
	require.NoError(env.T, err)
	u := &models.User{
		ID:           uuid.New(),
		Name:         "Name " + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(env.T, env.Repo.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) seedTx(typ models.TransactionType, owner uuid.UUID, amount float64) *models.Transaction {
	env.T.Helper()

	tx := &models.Transaction{
		ID:          uuid.New(),
		Type:        typ,
		Amount:      amount,
		Description: string(typ),
		UserID:      owner,
		Date:        env.Clock.Now().UTC(),
	}
	require.NoError(env.T, env.Repo.CreateTransaction(context.Background(), tx))
	env.Clock.Advance(time.Second)
	return tx
}

func (env *testEnv) pair(u *models.User) *tokens.Pair {
	env.T.Helper()

	p, err := env.Tokens.Issue(u)
	require.NoError(env.T, err)
	return p
}

func (env *testEnv) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
