package users

import (
	"time"

	"shelter-clinical-records/internal/ports/auth"
)

// User es una cuenta del sistema. PasswordHash nunca sale del paquete hacia la vista.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         auth.Role
	Active       bool
	CreatedAt    time.Time
}

func (u User) Principal() auth.Principal {
	return auth.Principal{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
