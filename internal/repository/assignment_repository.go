package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type assignmentRepository struct {
	db DBTX
}

const assignmentColumns = `id, complaint_id, staff_id, message, reminder_count, revoked_at, created_at, updated_at`

// Create inserts the assignment and reports false when (complaint, staff) already exists.
func (r *assignmentRepository) Create(ctx context.Context, a *domain.ComplaintAssignment) (bool, error) {
	const query = `
        INSERT INTO complaint_assignments (complaint_id, staff_id, message)
        VALUES ($1, $2, $3)
        ON CONFLICT (complaint_id, staff_id) DO NOTHING
        RETURNING id, reminder_count, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, a.ComplaintID, a.StaffID, a.Message).
		Scan(&a.ID, &a.ReminderCount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*domain.ComplaintAssignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM complaint_assignments WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *assignmentRepository) GetForShare(ctx context.Context, complaintID, staffID string) (*domain.ComplaintAssignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM complaint_assignments
        WHERE complaint_id=$1 AND staff_id=$2
        FOR SHARE`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, complaintID, staffID))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *assignmentRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintAssignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+` FROM complaint_assignments WHERE complaint_id=$1 ORDER BY created_at, id`, complaintID)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

func (r *assignmentRepository) ListByStaff(ctx context.Context, staffID string, openOnly bool) ([]domain.ComplaintAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM complaint_assignments WHERE staff_id=$1`
	if openOnly {
		query += ` AND revoked_at IS NULL`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY created_at DESC, id`, staffID)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

func (r *assignmentRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	return affected(r.db.Exec(ctx,
		`UPDATE complaint_assignments SET revoked_at=COALESCE(revoked_at, $1), updated_at=NOW() WHERE id=$2`, at, id))
}

func (r *assignmentRepository) IncrementReminder(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`UPDATE complaint_assignments SET reminder_count=reminder_count+1, updated_at=NOW() WHERE id=$1 RETURNING reminder_count`, id,
	).Scan(&count)
	return count, notFound(err)
}

func scanAssignment(row pgx.Row) (*domain.ComplaintAssignment, error) {
	var a domain.ComplaintAssignment
	if err := row.Scan(
		&a.ID,
		&a.ComplaintID,
		&a.StaffID,
		&a.Message,
		&a.ReminderCount,
		&a.RevokedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAssignments(rows pgx.Rows) ([]domain.ComplaintAssignment, error) {
	defer rows.Close()
	var assignments []domain.ComplaintAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}
