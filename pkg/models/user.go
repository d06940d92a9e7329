package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a local portal account. Remote histories and datasets are owned by
// the compute service; this table only covers authentication and ownership of
// the local analysis ledger.
type User struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Username     string    `db:"username"      json:"username"`
	Email        string    `db:"email"         json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}
