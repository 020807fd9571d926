package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type complaintRepository struct {
	db DBTX
}

const complaintColumns = `c.id, c.student_id, c.title, c.description, c.category_id, c.course_id, c.type,
               c.is_anonymous, c.status, c.deadline, c.semester, c.year, c.routed, c.created_at, c.updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (student_id, title, description, category_id, course_id, type, is_anonymous,
                                status, deadline, semester, year, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		complaint.StudentID,
		complaint.Title,
		complaint.Description,
		complaint.CategoryID,
		complaint.CourseID,
		complaint.Type,
		complaint.IsAnonymous,
		complaint.Status,
		complaint.Deadline,
		complaint.Semester,
		complaint.Year,
		complaint.CreatedAt,
	).Scan(&complaint.ID)
}

// Update writes the mutable complaint fields only; deadline and routed are never written.
func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET title=$1, description=$2, type=$3, status=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		complaint.Title,
		complaint.Description,
		complaint.Type,
		complaint.Status,
		complaint.ID,
	).Scan(&complaint.UpdatedAt)
	return notFound(err)
}

// MarkRouted flips the routed flag and reports whether this caller won.
func (r *complaintRepository) MarkRouted(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE complaints SET routed=TRUE WHERE id=$1 AND routed=FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		clauses = append(clauses, fmt.Sprintf("c.student_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM complaint_assignments a WHERE a.complaint_id=c.id AND a.staff_id=$%d AND a.revoked_at IS NULL)",
			len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("c.status=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("c.type=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM complaints c WHERE %s ORDER BY c.created_at DESC, c.id LIMIT %d OFFSET %d`,
		complaintColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectComplaints(rows)
}

// ListOverdue returns non-terminal complaints whose deadline is before now.
func (r *complaintRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints c
        WHERE c.deadline < $1 AND c.status IN ($2, $3)
        ORDER BY c.deadline, c.id`
	rows, err := r.db.Query(ctx, query, now, domain.ComplaintStatusOpen, domain.ComplaintStatusInProgress)
	if err != nil {
		return nil, err
	}
	return collectComplaints(rows)
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var c domain.Complaint
	if err := row.Scan(
		&c.ID,
		&c.StudentID,
		&c.Title,
		&c.Description,
		&c.CategoryID,
		&c.CourseID,
		&c.Type,
		&c.IsAnonymous,
		&c.Status,
		&c.Deadline,
		&c.Semester,
		&c.Year,
		&c.Routed,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func collectComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	defer rows.Close()
	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}
