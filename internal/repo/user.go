package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_ledger/internal/models"
)

func (r *GormRepo) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(user).Error)
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// UpdateUser writes the mutable columns of an existing user. A user
// deleted in the meantime is reported as ErrNotFound, never re-inserted.
func (r *GormRepo) UpdateUser(ctx context.Context, user *models.User) error {
	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":          user.Name,
			"username":      user.Username,
			"email":         user.Email,
			"password_hash": user.PasswordHash,
			"role":          user.Role,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserNames resolves display names for ids. Ids without a user are absent
// from the result.
func (r *GormRepo) UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	if err := r.DB.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}
