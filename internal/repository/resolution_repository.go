package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

type resolutionRepository struct {
	db DBTX
}

const resolutionColumns = `id, complaint_id, resolved_by_id, reviewed_by_id, is_reviewed, comments,
               attendance_mark, assignment_mark, ca_mark, exam_mark, final_mark, created_at, updated_at`

func (r *resolutionRepository) Create(ctx context.Context, res *domain.Resolution) error {
	const query = `
        INSERT INTO resolutions (complaint_id, resolved_by_id, reviewed_by_id, is_reviewed, comments,
                                 attendance_mark, assignment_mark, ca_mark, exam_mark, final_mark)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		res.ComplaintID,
		res.ResolvedByID,
		res.ReviewedByID,
		res.IsReviewed,
		res.Comments,
		res.AttendanceMark,
		res.AssignmentMark,
		res.CAMark,
		res.ExamMark,
		res.FinalMark,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *resolutionRepository) Update(ctx context.Context, res *domain.Resolution) error {
	const query = `
        UPDATE resolutions SET resolved_by_id=$1, reviewed_by_id=$2, is_reviewed=$3, comments=$4,
            attendance_mark=$5, assignment_mark=$6, ca_mark=$7, exam_mark=$8, final_mark=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		res.ResolvedByID,
		res.ReviewedByID,
		res.IsReviewed,
		res.Comments,
		res.AttendanceMark,
		res.AssignmentMark,
		res.CAMark,
		res.ExamMark,
		res.FinalMark,
		res.ID,
	).Scan(&res.UpdatedAt)
	return notFound(err)
}

func (r *resolutionRepository) GetByID(ctx context.Context, id string) (*domain.Resolution, error) {
	res, err := scanResolution(r.db.QueryRow(ctx, `SELECT `+resolutionColumns+` FROM resolutions WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return res, nil
}

func (r *resolutionRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Resolution, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+resolutionColumns+` FROM resolutions WHERE complaint_id=$1 ORDER BY created_at, id`, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var resolutions []domain.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, *res)
	}
	return resolutions, rows.Err()
}

func scanResolution(row pgx.Row) (*domain.Resolution, error) {
	var res domain.Resolution
	if err := row.Scan(
		&res.ID,
		&res.ComplaintID,
		&res.ResolvedByID,
		&res.ReviewedByID,
		&res.IsReviewed,
		&res.Comments,
		&res.AttendanceMark,
		&res.AssignmentMark,
		&res.CAMark,
		&res.ExamMark,
		&res.FinalMark,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}
