package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("repository: record not found")

// UserRepository persists institutional users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ProfileRepository persists the role-specific profiles. Ensure* calls are
// get-or-create and report whether a row was inserted.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (domain.Profiles, error)
	EnsureStudent(ctx context.Context, userID string) (*domain.StudentProfile, bool, error)
	EnsureLecturer(ctx context.Context, userID string) (*domain.LecturerProfile, bool, error)
	EnsureAdmin(ctx context.Context, profile *domain.AdminProfile) (bool, error)
	GetAdmin(ctx context.Context, userID string) (*domain.AdminProfile, error)
	ListAdmins(ctx context.Context) ([]domain.AdminProfile, error)
}

// CourseRepository persists courses keyed by code.
type CourseRepository interface {
	UpsertByCode(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByLecturer(ctx context.Context, lecturerID string) ([]domain.Course, error)
	List(ctx context.Context) ([]domain.Course, error)
}

// CategoryRepository persists categories and their admin membership.
type CategoryRepository interface {
	Ensure(ctx context.Context, name, description string) (*domain.Category, error)
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	AddAdmin(ctx context.Context, categoryID, adminProfileID string) error
	ListAdmins(ctx context.Context, categoryID string) ([]domain.AdminProfile, error)
}

// ComplaintFilter narrows complaint listings. Zero values match everything.
type ComplaintFilter struct {
	StudentID  *string
	AssigneeID *string
	Status     *domain.ComplaintStatus
	Type       *domain.ComplaintType
	Limit      int
	Offset     int
}

// ComplaintRepository persists complaints. Update never writes the deadline.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	MarkRouted(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Complaint, error)
}

// AssignmentRepository persists complaint assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.ComplaintAssignment) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.ComplaintAssignment, error)
	// GetForShare reads the (complaint, staff) assignment and locks it
	// against concurrent revocation for the rest of the transaction.
	GetForShare(ctx context.Context, complaintID, staffID string) (*domain.ComplaintAssignment, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintAssignment, error)
	ListByStaff(ctx context.Context, staffID string, openOnly bool) ([]domain.ComplaintAssignment, error)
	Revoke(ctx context.Context, id string, at time.Time) error
	IncrementReminder(ctx context.Context, id string) (int, error)
}

// ResolutionRepository persists resolutions.
type ResolutionRepository interface {
	Create(ctx context.Context, resolution *domain.Resolution) error
	Update(ctx context.Context, resolution *domain.Resolution) error
	GetByID(ctx context.Context, id string) (*domain.Resolution, error)
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Resolution, error)
}

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// Repositories bundles every repository bound to one connection or transaction.
type Repositories struct {
	Users         UserRepository
	Profiles      ProfileRepository
	Courses       CourseRepository
	Categories    CategoryRepository
	Complaints    ComplaintRepository
	Assignments   AssignmentRepository
	Resolutions   ResolutionRepository
	Notifications NotificationRepository
}

// Store is the record store. Repos returns autocommit repositories;
// WithinTx runs fn against repositories sharing one transaction, which is
// rolled back when fn returns an error.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool  *pgxpool.Pool
	repos Repositories
}

// NewPostgresStore returns a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool, repos: NewRepositories(pool)}
}

// NewRepositories binds the Postgres repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Users:         &userRepository{db: db},
		Profiles:      &profileRepository{db: db},
		Courses:       &courseRepository{db: db},
		Categories:    &categoryRepository{db: db},
		Complaints:    &complaintRepository{db: db},
		Assignments:   &assignmentRepository{db: db},
		Resolutions:   &resolutionRepository{db: db},
		Notifications: &notificationRepository{db: db},
	}
}

func (s *postgresStore) Repos() Repositories {
	return s.repos
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
