package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/policy"
	"github.com/spec-kit/complaint-desk/internal/repository"
	"github.com/spec-kit/complaint-desk/internal/repository/memory"
)

const testDomain = "ictuniversity.edu.cm"

var testNow = time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC)

type staticRoster struct {
	admins  []domain.AdminRosterRow
	courses []domain.CourseRosterRow
}

func (r *staticRoster) GetAdminRoster(context.Context) ([]domain.AdminRosterRow, error) {
	return r.admins, nil
}

func (r *staticRoster) GetCourseRoster(context.Context) ([]domain.CourseRosterRow, error) {
	return r.courses, nil
}

type recordingSink struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (s *recordingSink) Deliver(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sent))
	for _, n := range s.sent {
		out = append(out, n.RecipientID)
	}
	return out
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	table       *policy.Table
	institution config.InstitutionConfig
	directory   *CategoryDirectory
	router      *AssignmentRouter
	authorizer  *ResolutionAuthorizer
	sink        *recordingSink
	categories  map[string]domain.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		ctx:   context.Background(),
		store: memory.New(),
		table: policy.Default(),
		institution: config.InstitutionConfig{
			EmailDomain:         testDomain,
			DeleteRejectedUsers: true,
			SystemEmail:         "system@" + testDomain,
		},
		sink:       &recordingSink{},
		categories: map[string]domain.Category{},
	}
	fx.directory = NewCategoryDirectory(fx.table, nil)
	fx.router = NewAssignmentRouter(fx.directory, fx.institution, nil)
	fx.authorizer = NewResolutionAuthorizer(fx.table)

	seeded, err := fx.directory.Seed(fx.ctx, fx.store.Repos())
	require.NoError(t, err)
	for _, c := range seeded {
		fx.categories[c.Name] = c
	}
	return fx
}

func (fx *fixture) clock() Clock {
	return func() time.Time { return testNow }
}

func (fx *fixture) user(t *testing.T, email string, role domain.Role, secondary *domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Role: role, SecondaryRole: secondary}
	require.NoError(t, fx.store.Repos().Users.Create(fx.ctx, u))
	return u
}

func (fx *fixture) admin(t *testing.T, email string, office domain.Office, faculty domain.Faculty) (*domain.User, *domain.AdminProfile) {
	t.Helper()
	u := fx.user(t, email, domain.RoleAdmin, nil)
	profile := &domain.AdminProfile{UserID: u.ID, Office: office, Faculty: faculty}
	require.NoError(t, fx.store.WithinTx(fx.ctx, func(repos repository.Repositories) error {
		if _, err := repos.Profiles.EnsureAdmin(fx.ctx, profile); err != nil {
			return err
		}
		return fx.directory.OnAdminProfileCreated(fx.ctx, repos, profile)
	}))
	return u, profile
}

func (fx *fixture) course(t *testing.T, code string, faculty domain.Faculty, lecturer *domain.User) *domain.Course {
	t.Helper()
	c := &domain.Course{Code: code, Title: code, Semester: "Spring", Year: 2024, Faculty: faculty, LecturerID: lecturer.ID}
	require.NoError(t, fx.store.Repos().Courses.UpsertByCode(fx.ctx, c))
	return c
}

func (fx *fixture) complaintService(guard IdempotencyGuard) *ComplaintService {
	return NewComplaintService(ComplaintDependencies{
		Store:       fx.store,
		Router:      fx.router,
		Sink:        fx.sink,
		Idempotency: guard,
		Clock:       fx.clock(),
	})
}

func (fx *fixture) resolutionService() *ResolutionService {
	return NewResolutionService(ResolutionDependencies{
		Store:      fx.store,
		Authorizer: fx.authorizer,
		Sink:       fx.sink,
	})
}

func (fx *fixture) file(t *testing.T, student *domain.User, category string, course *domain.Course) *FiledComplaint {
	t.Helper()
	in := FileComplaintInput{Description: "please check", CategoryID: fx.categories[category].ID}
	if course != nil {
		in.CourseID = &course.ID
	}
	filed, err := fx.complaintService(nil).FileComplaint(fx.ctx, student, in)
	require.NoError(t, err)
	return filed
}

func repositoryFilterForStudent(studentID string) repository.ComplaintFilter {
	return repository.ComplaintFilter{StudentID: &studentID}
}
