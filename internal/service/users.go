package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/hash"
	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/mykafka"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

type UserService struct {
	Repo   UserStore
	Events mykafka.Publisher
	Topic  string
	Now    func() time.Time
}

func (s *UserService) List(ctx context.Context, caller Caller, offset, limit int) ([]models.User, error) {
	if err := policy.AuthorizeUserAdmin(caller.Role).Err(); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx, offset, limit)
}

func (s *UserService) Create(ctx context.Context, caller Caller, req transport.UserCreateRequest) (*models.User, error) {
	if err := policy.AuthorizeUserAdmin(caller.Role).Err(); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mykafka.UserCreated, user, caller.ID)
	return user, nil
}

// Bootstrap creates an admin without a calling principal. It backs the
// createadmin command and refuses to run twice for the same username.
func (s *UserService) Bootstrap(ctx context.Context, req transport.UserCreateRequest) (*models.User, error) {
	req.Role = models.RoleAdmin
	return s.create(ctx, req)
}

func (s *UserService) create(ctx context.Context, req transport.UserCreateRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.create")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.ensureUnique(ctx, uuid.Nil, req.Username, req.Email); err != nil {
		l.Warn("create_user_failed", "status", 409, "reason", "duplicate", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         req.Role,
		CreatedAt:    clock(s.Now),
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		return nil, err
	}

	l.Info("create_user_success", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, caller Caller, id uuid.UUID, req transport.UserUpdateRequest) (*models.User, error) {
	if err := policy.AuthorizeUserAdmin(caller.Role).Err(); err != nil {
		return nil, err
	}
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	username, email := user.Username, user.Email
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if username != user.Username || email != user.Email {
		if err := s.ensureUnique(ctx, user.ID, username, email); err != nil {
			return nil, err
		}
	}
	user.Username, user.Email = username, email

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = pwHash
	}

	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username or email already registered", ErrConflict)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	s.publish(ctx, mykafka.UserUpdated, user, caller.ID)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	if err := policy.AuthorizeUserAdmin(caller.Role).Err(); err != nil {
		return err
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}
	s.publish(ctx, mykafka.UserDeleted, &models.User{ID: id}, caller.ID)
	return nil
}

// ensureUnique reports a conflict when username or email belongs to a
// user other than self.
func (s *UserService) ensureUnique(ctx context.Context, self uuid.UUID, username, email string) error {
	if u, err := s.Repo.FindUserByUsername(ctx, username); err == nil && u.ID != self {
		return fmt.Errorf("%w: username already registered", ErrConflict)
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if u, err := s.Repo.FindUserByEmail(ctx, email); err == nil && u.ID != self {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, event string, user *models.User, actor uuid.UUID) {
	if s.Events == nil {
		return
	}
	ev := mykafka.UserEvent{
		Event:   event,
		UserID:  user.ID,
		Role:    string(user.Role),
		ActorID: actor,
		At:      clock(s.Now),
	}
	if err := s.Events.PublishEvent(ctx, s.Topic, user.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "event", event, "error", err)
	}
}
