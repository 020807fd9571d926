package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type categoryRepository struct {
	db DBTX
}

const categoryColumns = `id, name, description, created_at, updated_at`

// Ensure returns the category named name, creating it when absent.
func (r *categoryRepository) Ensure(ctx context.Context, name, description string) (*domain.Category, error) {
	const insert = `
        INSERT INTO categories (name, description) VALUES ($1, $2)
        ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.Exec(ctx, insert, name, description); err != nil {
		return nil, err
	}
	return r.GetByName(ctx, name)
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name=$1`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// AddAdmin is idempotent on (category, admin profile).
func (r *categoryRepository) AddAdmin(ctx context.Context, categoryID, adminProfileID string) error {
	const query = `
        INSERT INTO category_admins (category_id, admin_profile_id) VALUES ($1, $2)
        ON CONFLICT DO NOTHING`
	_, err := r.db.Exec(ctx, query, categoryID, adminProfileID)
	return err
}

// ListAdmins reads the membership in a single statement so callers see one snapshot.
func (r *categoryRepository) ListAdmins(ctx context.Context, categoryID string) ([]domain.AdminProfile, error) {
	const query = `
        SELECT ap.id, ap.user_id, ap.office, ap.function_title, ap.faculty, ap.is_system, ap.created_at
        FROM category_admins ca
        JOIN admin_profiles ap ON ap.id = ca.admin_profile_id
        WHERE ca.category_id=$1
        ORDER BY ca.created_at, ap.id`
	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	return collectAdminProfiles(rows)
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
