package mykafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionCreated = "transaction_created"
	TransactionUpdated = "transaction_updated"
	TransactionDeleted = "transaction_deleted"
	UserCreated        = "user_created"
	UserUpdated        = "user_updated"
	UserDeleted        = "user_deleted"
)

type TransactionEvent struct {
	Event         string    `json:"event"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Type          string    `json:"type,omitempty"`
	Amount        float64   `json:"amount,omitempty"`
	UserID        uuid.UUID `json:"user_id"`
	ActorID       uuid.UUID `json:"actor_id"`
	At            time.Time `json:"at"`
}

type UserEvent struct {
	Event   string    `json:"event"`
	UserID  uuid.UUID `json:"user_id"`
	Role    string    `json:"role,omitempty"`
	ActorID uuid.UUID `json:"actor_id"`
	At      time.Time `json:"at"`
}
