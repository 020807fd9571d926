package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type courseRepository struct {
	db DBTX
}

const courseColumns = `id, code, title, semester, year, faculty, lecturer_id, created_at, updated_at`

// UpsertByCode inserts the course or overwrites the row with the same code.
func (r *courseRepository) UpsertByCode(ctx context.Context, course *domain.Course) error {
	const query = `
        INSERT INTO courses (code, title, semester, year, faculty, lecturer_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (code) DO UPDATE SET
            title=EXCLUDED.title, semester=EXCLUDED.semester, year=EXCLUDED.year,
            faculty=EXCLUDED.faculty, lecturer_id=EXCLUDED.lecturer_id, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		course.Code,
		course.Title,
		course.Semester,
		course.Year,
		course.Faculty,
		course.LecturerID,
	).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	c, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *courseRepository) ListByLecturer(ctx context.Context, lecturerID string) ([]domain.Course, error) {
	rows, err := r.db.Query(ctx, `SELECT `+courseColumns+` FROM courses WHERE lecturer_id=$1 ORDER BY code`, lecturerID)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

func (r *courseRepository) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := r.db.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY code`)
	if err != nil {
		return nil, err
	}
	return collectCourses(rows)
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	if err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Title,
		&c.Semester,
		&c.Year,
		&c.Faculty,
		&c.LecturerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCourses(rows pgx.Rows) ([]domain.Course, error) {
	defer rows.Close()
	var courses []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}
