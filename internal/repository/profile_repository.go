package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type profileRepository struct {
	db DBTX
}

const adminProfileColumns = `id, user_id, office, function_title, faculty, is_system, created_at`

func (r *profileRepository) Get(ctx context.Context, userID string) (domain.Profiles, error) {
	var profiles domain.Profiles

	var student domain.StudentProfile
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, student_number, created_at FROM student_profiles WHERE user_id=$1`, userID,
	).Scan(&student.ID, &student.UserID, &student.StudentNumber, &student.CreatedAt)
	switch {
	case err == nil:
		profiles.Student = &student
	case !errors.Is(err, pgx.ErrNoRows):
		return profiles, err
	}

	var lecturer domain.LecturerProfile
	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM lecturer_profiles WHERE user_id=$1`, userID,
	).Scan(&lecturer.ID, &lecturer.UserID, &lecturer.CreatedAt)
	switch {
	case err == nil:
		profiles.Lecturer = &lecturer
	case !errors.Is(err, pgx.ErrNoRows):
		return profiles, err
	}

	admin, err := r.GetAdmin(ctx, userID)
	switch {
	case err == nil:
		profiles.Admin = admin
	case !errors.Is(err, ErrNotFound):
		return profiles, err
	}
	return profiles, nil
}

func (r *profileRepository) EnsureStudent(ctx context.Context, userID string) (*domain.StudentProfile, bool, error) {
	const insert = `
        INSERT INTO student_profiles (user_id) VALUES ($1)
        ON CONFLICT (user_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, insert, userID)
	if err != nil {
		return nil, false, err
	}
	var p domain.StudentProfile
	if err := r.db.QueryRow(ctx,
		`SELECT id, user_id, student_number, created_at FROM student_profiles WHERE user_id=$1`, userID,
	).Scan(&p.ID, &p.UserID, &p.StudentNumber, &p.CreatedAt); err != nil {
		return nil, false, notFound(err)
	}
	return &p, tag.RowsAffected() == 1, nil
}

func (r *profileRepository) EnsureLecturer(ctx context.Context, userID string) (*domain.LecturerProfile, bool, error) {
	const insert = `
        INSERT INTO lecturer_profiles (user_id) VALUES ($1)
        ON CONFLICT (user_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, insert, userID)
	if err != nil {
		return nil, false, err
	}
	var p domain.LecturerProfile
	if err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM lecturer_profiles WHERE user_id=$1`, userID,
	).Scan(&p.ID, &p.UserID, &p.CreatedAt); err != nil {
		return nil, false, notFound(err)
	}
	return &p, tag.RowsAffected() == 1, nil
}

// EnsureAdmin inserts profile unless the user already has one, then loads
// the stored row into profile. Existing rows are not modified.
func (r *profileRepository) EnsureAdmin(ctx context.Context, profile *domain.AdminProfile) (bool, error) {
	const insert = `
        INSERT INTO admin_profiles (user_id, office, function_title, faculty, is_system)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, insert,
		profile.UserID,
		profile.Office,
		profile.Function,
		profile.Faculty,
		profile.IsSystem,
	)
	if err != nil {
		return false, err
	}
	stored, err := r.GetAdmin(ctx, profile.UserID)
	if err != nil {
		return false, err
	}
	*profile = *stored
	return tag.RowsAffected() == 1, nil
}

func (r *profileRepository) GetAdmin(ctx context.Context, userID string) (*domain.AdminProfile, error) {
	row := r.db.QueryRow(ctx, `SELECT `+adminProfileColumns+` FROM admin_profiles WHERE user_id=$1`, userID)
	p, err := scanAdminProfile(row)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *profileRepository) ListAdmins(ctx context.Context) ([]domain.AdminProfile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+adminProfileColumns+` FROM admin_profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectAdminProfiles(rows)
}

func scanAdminProfile(row pgx.Row) (*domain.AdminProfile, error) {
	var p domain.AdminProfile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Office,
		&p.Function,
		&p.Faculty,
		&p.IsSystem,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectAdminProfiles(rows pgx.Rows) ([]domain.AdminProfile, error) {
	defer rows.Close()
	var profiles []domain.AdminProfile
	for rows.Next() {
		p, err := scanAdminProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
