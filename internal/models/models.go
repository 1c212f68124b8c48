package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleUser       Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleUser:
		return true
	}
	return false
}

type TransactionType string

const (
	TypeDeposit TransactionType = "deposit"
	TypeExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TypeDeposit || t == TypeExpense
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `gorm:"not null"                 json:"created_at"`
}

type Transaction struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"  json:"id"`
	Type        TransactionType `gorm:"index;not null"        json:"type"`
	Amount      float64         `gorm:"not null"              json:"amount"`
	Description string          `gorm:"size:500;not null"     json:"description"`
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Date        time.Time       `gorm:"index;not null"        json:"date"`
}
