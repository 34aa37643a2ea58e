package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
)

type UsersRepo struct{ DB *pgxpool.Pool }

func (r *UsersRepo) Insert(ctx context.Context, u *market.User) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO users(id, email, username, password_hash, is_seller)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.IsSeller)
	return err
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*market.User, error) {
	var u market.User
	err := r.DB.QueryRow(ctx, `
		SELECT id, email, username, password_hash, is_seller, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsSeller, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
