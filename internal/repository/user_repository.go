package repository

import (
	"context"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type userRepository struct {
	db DBTX
}

const userColumns = `id, email, first_name, last_name, role, secondary_role, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, first_name, last_name, role, secondary_role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Role,
		user.SecondaryRole,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, role=$3, secondary_role=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Role,
		user.SecondaryRole,
		user.ID,
	).Scan(&user.UpdatedAt)
	return notFound(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.SecondaryRole,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
