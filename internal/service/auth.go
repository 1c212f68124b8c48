package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/hash"
	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
)

type AuthService struct {
	Users  UserStore
	Tokens *tokens.Service
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	l.Info("login_success", "user_id", user.ID, "role", user.Role)
	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, raw string) (*tokens.Pair, error) {
	pair, err := s.Tokens.Refresh(ctx, raw)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("refresh_success", "role", pair.Role)
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, raw string) error {
	return s.Tokens.Revoke(ctx, raw)
}

// Me loads the caller's stored record. A token whose subject has since
// been deleted is answered like any other unknown subject.
func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, tokens.ErrUnknownSubject
		}
		return nil, err
	}
	return user, nil
}
