package domain

import "time"

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleBarber UserRole = "barber"
	RoleAdmin  UserRole = "admin"

	// RoleSystem marks automated transitions (expiration sweeps) in
	// the booking timeline. It is never a login role.
	RoleSystem UserRole = "system"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
