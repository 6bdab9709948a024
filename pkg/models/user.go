package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the admin-panel principal. It is a plain record; authorization is
// a single admin flag checked by the auth middleware.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `bun:",nullzero" json:"username"`
	FullName     string    `bun:",nullzero" json:"full_name"`
	PasswordHash string    `bun:",nullzero" json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
}
