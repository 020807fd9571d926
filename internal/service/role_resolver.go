package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-desk/internal/config"
	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/identity"
	"github.com/spec-kit/complaint-desk/internal/policy"
	"github.com/spec-kit/complaint-desk/internal/repository"
	"github.com/spec-kit/complaint-desk/internal/roster"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

// RoleDecision is the outcome of the role decision table.
type RoleDecision struct {
	Primary   domain.Role
	Secondary *domain.Role
}

// DecideRoles maps roster evidence to roles:
//
//	admin match and courses -> Admin / Lecturer
//	admin match only        -> Admin
//	courses only            -> Lecturer
//	neither                 -> Student
func DecideRoles(adminMatch *domain.AdminRosterRow, courses []domain.CourseRosterRow) RoleDecision {
	switch {
	case adminMatch != nil && len(courses) > 0:
		return RoleDecision{Primary: domain.RoleAdmin, Secondary: domain.RolePtr(domain.RoleLecturer)}
	case adminMatch != nil:
		return RoleDecision{Primary: domain.RoleAdmin}
	case len(courses) > 0:
		return RoleDecision{Primary: domain.RoleLecturer}
	default:
		return RoleDecision{Primary: domain.RoleStudent}
	}
}

// withCoordinator keeps an appointed coordinator's role as primary and
// demotes the roster decision to secondary. Students get no secondary. With
// only one secondary slot, an Admin+Lecturer coordinator keeps Admin; the
// lecturer profile and courses are still synced.
func withCoordinator(user *domain.User, d RoleDecision) RoleDecision {
	if !user.HasRole(domain.RoleComplaintCoordinator) {
		return d
	}
	out := RoleDecision{Primary: domain.RoleComplaintCoordinator}
	if d.Primary != domain.RoleStudent {
		out.Secondary = domain.RolePtr(d.Primary)
	}
	return out
}

// RoleAssignment reports what Resolve decided and persisted.
type RoleAssignment struct {
	User       *domain.User
	Decision   RoleDecision
	AdminMatch *domain.AdminRosterRow
	Courses    []domain.Course
	Profiles   domain.Profiles
}

// RoleResolver derives a user's institutional roles from the rosters on every login.
type RoleResolver struct {
	store       repository.Store
	roster      roster.Provider
	directory   *CategoryDirectory
	policy      *policy.Table
	institution config.InstitutionConfig
	logger      *zap.Logger
}

// RoleResolverDependencies bundles collaborators for the resolver.
type RoleResolverDependencies struct {
	Store       repository.Store
	Roster      roster.Provider
	Directory   *CategoryDirectory
	Policy      *policy.Table
	Institution config.InstitutionConfig
	Logger      *zap.Logger
}

// NewRoleResolver constructs the resolver.
func NewRoleResolver(deps RoleResolverDependencies) *RoleResolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleResolver{
		store:       deps.Store,
		roster:      deps.Roster,
		directory:   deps.Directory,
		policy:      deps.Policy,
		institution: deps.Institution,
		logger:      logger,
	}
}

// InInstitution reports whether email belongs to the configured domain.
func (r *RoleResolver) InInstitution(email string) bool {
	_, emailDomain, err := identity.SplitEmail(email)
	return err == nil && strings.EqualFold(emailDomain, r.institution.EmailDomain)
}

// Resolve checks the user's domain, matches the rosters, and persists roles,
// profiles and courses in one transaction. A user outside the institution is
// deleted (when configured) and rejected.
func (r *RoleResolver) Resolve(ctx context.Context, user *domain.User) (*RoleAssignment, error) {
	ctx, span := tracer.Start(ctx, "RoleResolver.Resolve")
	defer span.End()

	if !r.InInstitution(user.Email) {
		if r.institution.DeleteRejectedUsers && user.ID != "" {
			if err := r.store.Repos().Users.Delete(ctx, user.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			r.logger.Info("deleted user outside institution", zap.String("email", user.Email))
		}
		return nil, apperrors.NewIdentityRejected("only institutional email addresses may sign in",
			map[string]any{"email": user.Email, "domain": r.institution.EmailDomain})
	}

	adminMatch := r.matchAdmin(ctx, user.Email)
	courseRows := r.matchCourses(ctx, user.Email)
	decision := DecideRoles(adminMatch, courseRows)
	span.SetAttributes(attribute.String("role.primary", string(decision.Primary)))

	result := &RoleAssignment{AdminMatch: adminMatch}
	err := r.store.WithinTx(ctx, func(repos repository.Repositories) error {
		current, err := repos.Users.GetByID(ctx, user.ID)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": user.ID})
		}

		final := withCoordinator(current, decision)
		if final.Primary == domain.RoleComplaintCoordinator && decision.Secondary != nil {
			r.logger.Info("coordinator keeps one secondary role; roster role not recorded",
				zap.String("user_id", current.ID),
				zap.String("secondary", string(decision.Primary)),
				zap.String("dropped", string(*decision.Secondary)))
		}
		if err := current.SetRoles(final.Primary, final.Secondary); err != nil {
			return err
		}
		if err := repos.Users.Update(ctx, current); err != nil {
			return err
		}
		result.User = current
		result.Decision = final

		if decision.Primary == domain.RoleStudent {
			if _, _, err := repos.Profiles.EnsureStudent(ctx, current.ID); err != nil {
				return err
			}
		}
		if adminMatch != nil {
			if err := r.ensureAdminProfile(ctx, repos, current.ID, adminMatch); err != nil {
				return err
			}
		}
		if len(courseRows) > 0 {
			if _, _, err := repos.Profiles.EnsureLecturer(ctx, current.ID); err != nil {
				return err
			}
			courses, err := r.upsertCourses(ctx, repos, current.ID, courseRows)
			if err != nil {
				return err
			}
			result.Courses = courses
		}

		profiles, err := repos.Profiles.Get(ctx, current.ID)
		if err != nil {
			return err
		}
		result.Profiles = profiles
		return nil
	})
	if err != nil {
		return nil, err
	}

	*user = *result.User
	r.logger.Info("roles resolved",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.Bool("admin_match", adminMatch != nil),
		zap.Int("courses", len(result.Courses)))
	return result, nil
}

func (r *RoleResolver) matchAdmin(ctx context.Context, email string) *domain.AdminRosterRow {
	rows, err := r.roster.GetAdminRoster(ctx)
	if err != nil {
		r.logger.Warn("admin roster unavailable", zap.Error(err))
		return nil
	}
	match, err := identity.Match(email, rows)
	if err != nil {
		r.logger.Warn("admin match failed", zap.String("email", email), zap.Error(err))
		return nil
	}
	return match
}

func (r *RoleResolver) matchCourses(ctx context.Context, email string) []domain.CourseRosterRow {
	name, err := identity.DerivedName(email)
	if err != nil || name == "" {
		return nil
	}
	rows, err := r.roster.GetCourseRoster(ctx)
	if err != nil {
		r.logger.Warn("course roster unavailable", zap.Error(err))
		return nil
	}
	return identity.CoursesFor(name, rows)
}

func (r *RoleResolver) ensureAdminProfile(ctx context.Context, repos repository.Repositories, userID string, row *domain.AdminRosterRow) error {
	faculty, ok := domain.ParseFaculty(row.Faculty)
	if !ok {
		faculty = domain.FacultyBoth
	}
	profile := &domain.AdminProfile{
		UserID:   userID,
		Office:   r.policy.OfficeFor(row.Office),
		Function: row.Function,
		Faculty:  faculty,
	}
	created, err := repos.Profiles.EnsureAdmin(ctx, profile)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	return r.directory.OnAdminProfileCreated(ctx, repos, profile)
}

func (r *RoleResolver) upsertCourses(ctx context.Context, repos repository.Repositories, lecturerID string, rows []domain.CourseRosterRow) ([]domain.Course, error) {
	courses := make([]domain.Course, 0, len(rows))
	for _, row := range rows {
		faculty, ok := domain.ParseFaculty(row.Faculty)
		if !ok {
			r.logger.Warn("course has unknown faculty", zap.String("code", row.Code), zap.String("faculty", row.Faculty))
			faculty = domain.FacultyBoth
		}
		course := &domain.Course{
			Code:       row.Code,
			Title:      row.Title,
			Semester:   row.Semester,
			Year:       row.Year,
			Faculty:    faculty,
			LecturerID: lecturerID,
		}
		if err := repos.Courses.UpsertByCode(ctx, course); err != nil {
			return nil, err
		}
		courses = append(courses, *course)
	}
	return courses, nil
}

// AppointCoordinator promotes an existing user to Complaint Coordinator. The
// previous primary role becomes secondary unless it was Student.
func (r *RoleResolver) AppointCoordinator(ctx context.Context, email string) (*domain.User, error) {
	var appointed *domain.User
	err := r.store.WithinTx(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"email": email})
		}
		if user.Role == domain.RoleComplaintCoordinator {
			appointed = user
			return nil
		}
		var secondary *domain.Role
		switch {
		case user.Role != domain.RoleStudent:
			secondary = domain.RolePtr(user.Role)
		case user.SecondaryRole != nil && *user.SecondaryRole != domain.RoleComplaintCoordinator:
			secondary = user.SecondaryRole
		}
		if err := user.SetRoles(domain.RoleComplaintCoordinator, secondary); err != nil {
			return err
		}
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		appointed = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("coordinator appointed", zap.String("user_id", appointed.ID))
	return appointed, nil
}
