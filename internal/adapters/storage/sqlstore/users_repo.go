package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"shelter-clinical-records/internal/domain/users"
	"shelter-clinical-records/internal/platform/apperr"
	"shelter-clinical-records/internal/ports/auth"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) (int64, error) {
	return r.db.conn().insert(ctx, `
		INSERT INTO users (name, email, password_hash, role, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.Active,
		u.CreatedAt.UTC(),
	)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return users.User{}, apperr.ErrNotFound
	}
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	if id <= 0 {
		return users.User{}, apperr.ErrNotFound
	}
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *UsersRepo) get(ctx context.Context, where string, arg any) (users.User, error) {
	row := r.db.conn().queryRow(ctx, `
		SELECT id, name, email, password_hash, role, active, created_at
		FROM users
		`+where, arg)

	var u users.User
	var role string
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.Active,
		&u.CreatedAt,
	); err != nil {
		return users.User{}, mapErr(err)
	}
	u.Role = auth.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *UsersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.conn().exec(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
