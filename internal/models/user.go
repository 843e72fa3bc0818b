package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record. Auth here is deliberately thin: bcrypt hash,
// JWT issuance, nothing more.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
