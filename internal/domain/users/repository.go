package users

import "context"

type Repository interface {
	// Create devuelve apperr.ErrDuplicate si el email ya existe.
	Create(ctx context.Context, u User) (int64, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
