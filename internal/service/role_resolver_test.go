package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/complaint-desk/internal/domain"
	"github.com/spec-kit/complaint-desk/internal/repository"
	apperrors "github.com/spec-kit/complaint-desk/pkg/util"
)

func newResolver(fx *fixture, r *staticRoster) *RoleResolver {
	return NewRoleResolver(RoleResolverDependencies{
		Store:       fx.store,
		Roster:      r,
		Directory:   fx.directory,
		Policy:      fx.table,
		Institution: fx.institution,
	})
}

func TestDecideRoles(t *testing.T) {
	admin := &domain.AdminRosterRow{Name: "John Doe"}
	courses := []domain.CourseRosterRow{{Lecturer: "John Doe", Code: "ICT101"}}

	cases := []struct {
		name      string
		admin     *domain.AdminRosterRow
		courses   []domain.CourseRosterRow
		primary   domain.Role
		secondary *domain.Role
	}{
		{"admin and lecturer", admin, courses, domain.RoleAdmin, domain.RolePtr(domain.RoleLecturer)},
		{"admin only", admin, nil, domain.RoleAdmin, nil},
		{"lecturer only", nil, courses, domain.RoleLecturer, nil},
		{"neither", nil, nil, domain.RoleStudent, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DecideRoles(tc.admin, tc.courses)
			assert.Equal(t, tc.primary, d.Primary)
			assert.Equal(t, tc.secondary, d.Secondary)
		})
	}
}

func TestResolve_RejectsForeignDomainAndDeletesUser(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "john.doe@gmail.com", domain.RoleStudent, nil)

	_, err := newResolver(fx, &staticRoster{}).Resolve(fx.ctx, user)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIdentityRejected))

	_, err = fx.store.Repos().Users.GetByID(fx.ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResolve_KeepsRejectedUserWhenDeletionDisabled(t *testing.T) {
	fx := newFixture(t)
	fx.institution.DeleteRejectedUsers = false
	user := fx.user(t, "john.doe@gmail.com", domain.RoleStudent, nil)

	_, err := newResolver(fx, &staticRoster{}).Resolve(fx.ctx, user)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIdentityRejected))

	_, err = fx.store.Repos().Users.GetByID(fx.ctx, user.ID)
	assert.NoError(t, err)
}

func TestResolve_AdminWithCoursesBecomesAdminLecturer(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "john.doe@"+testDomain, domain.RoleStudent, nil)
	roster := &staticRoster{
		admins: []domain.AdminRosterRow{
			{Name: "Peter Parker", Office: "finance"},
			{Name: "Doe John", Office: "Registry", Function: "Deputy Registrar", Faculty: "ICT"},
		},
		courses: []domain.CourseRosterRow{
			{Lecturer: "John Doe", Code: "ICT101", Title: "Networks", Semester: "Spring", Year: 2024, Faculty: "ICT"},
			{Lecturer: "Someone Else", Code: "BMS201", Faculty: "BMS"},
		},
	}

	result, err := newResolver(fx, roster).Resolve(fx.ctx, user)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, user.Role)
	require.NotNil(t, user.SecondaryRole)
	assert.Equal(t, domain.RoleLecturer, *user.SecondaryRole)

	require.NotNil(t, result.Profiles.Admin)
	assert.Equal(t, domain.OfficeRegistrar, result.Profiles.Admin.Office)
	assert.Equal(t, domain.FacultyICT, result.Profiles.Admin.Faculty)
	assert.Equal(t, "Deputy Registrar", result.Profiles.Admin.Function)
	assert.NotNil(t, result.Profiles.Lecturer)
	assert.Nil(t, result.Profiles.Student)

	require.Len(t, result.Courses, 1)
	assert.Equal(t, "ICT101", result.Courses[0].Code)
	assert.Equal(t, user.ID, result.Courses[0].LecturerID)

	for _, name := range fx.table.CategoriesFor(domain.OfficeRegistrar) {
		admins, err := fx.store.Repos().Categories.ListAdmins(fx.ctx, fx.categories[name].ID)
		require.NoError(t, err)
		require.Len(t, admins, 1, name)
		assert.Equal(t, user.ID, admins[0].UserID)
	}
	admins, err := fx.store.Repos().Categories.ListAdmins(fx.ctx, fx.categories[domain.CategoryNoCAMark].ID)
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func TestResolve_StudentWithoutRosterEntry(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "jane.roe@"+testDomain, domain.RoleStudent, nil)

	result, err := newResolver(fx, &staticRoster{}).Resolve(fx.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, user.Role)
	assert.Nil(t, user.SecondaryRole)
	assert.NotNil(t, result.Profiles.Student)
	assert.Nil(t, result.Profiles.Admin)
}

func TestResolve_PreservesCoordinator(t *testing.T) {
	fx := newFixture(t)
	lecturer := fx.user(t, "ada.king@"+testDomain, domain.RoleComplaintCoordinator, nil)
	student := fx.user(t, "alan.turing@"+testDomain, domain.RoleComplaintCoordinator, nil)
	roster := &staticRoster{courses: []domain.CourseRosterRow{{Lecturer: "ada king", Code: "ICT300", Faculty: "ICT"}}}
	resolver := newResolver(fx, roster)

	_, err := resolver.Resolve(fx.ctx, lecturer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplaintCoordinator, lecturer.Role)
	require.NotNil(t, lecturer.SecondaryRole)
	assert.Equal(t, domain.RoleLecturer, *lecturer.SecondaryRole)

	result, err := resolver.Resolve(fx.ctx, student)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplaintCoordinator, student.Role)
	assert.Nil(t, student.SecondaryRole)
	assert.NotNil(t, result.Profiles.Student)
}

func TestResolve_CoordinatorMatchingBothRostersKeepsAdmin(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "ada.king@"+testDomain, domain.RoleComplaintCoordinator, nil)
	core, logs := observer.New(zapcore.InfoLevel)
	resolver := NewRoleResolver(RoleResolverDependencies{
		Store: fx.store,
		Roster: &staticRoster{
			admins:  []domain.AdminRosterRow{{Name: "Ada King", Office: string(domain.OfficeRegistrar)}},
			courses: []domain.CourseRosterRow{{Lecturer: "ada king", Code: "ICT300", Faculty: "ICT"}},
		},
		Directory:   fx.directory,
		Policy:      fx.table,
		Institution: fx.institution,
		Logger:      zap.New(core),
	})

	result, err := resolver.Resolve(fx.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplaintCoordinator, user.Role)
	require.NotNil(t, user.SecondaryRole)
	assert.Equal(t, domain.RoleAdmin, *user.SecondaryRole)
	assert.NotNil(t, result.Profiles.Admin)
	assert.NotNil(t, result.Profiles.Lecturer)
	assert.Len(t, result.Courses, 1)

	dropped := logs.FilterMessageSnippet("roster role not recorded").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, string(domain.RoleLecturer), dropped[0].ContextMap()["dropped"])
}

func TestResolve_RepeatedLoginDoesNotDuplicateMembership(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "john.doe@"+testDomain, domain.RoleStudent, nil)
	resolver := newResolver(fx, &staticRoster{admins: []domain.AdminRosterRow{{Name: "John Doe", Office: "Finance"}}})

	for i := 0; i < 3; i++ {
		_, err := resolver.Resolve(fx.ctx, user)
		require.NoError(t, err)
	}
	admins, err := fx.store.Repos().Categories.ListAdmins(fx.ctx, fx.categories[domain.CategoryMissingGrade].ID)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestResolve_UnknownFacultyDefaultsToBoth(t *testing.T) {
	fx := newFixture(t)
	user := fx.user(t, "john.doe@"+testDomain, domain.RoleStudent, nil)
	resolver := newResolver(fx, &staticRoster{
		admins:  []domain.AdminRosterRow{{Name: "John Doe", Office: "Faculty", Faculty: "Engineering"}},
		courses: []domain.CourseRosterRow{{Lecturer: "John Doe", Code: "X1", Faculty: "Arts"}},
	})

	result, err := resolver.Resolve(fx.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.FacultyBoth, result.Profiles.Admin.Faculty)
	assert.Equal(t, domain.FacultyBoth, result.Courses[0].Faculty)
}

func TestAppointCoordinator(t *testing.T) {
	fx := newFixture(t)
	fx.user(t, "grace.hopper@"+testDomain, domain.RoleLecturer, nil)
	fx.user(t, "jane.roe@"+testDomain, domain.RoleStudent, nil)
	resolver := newResolver(fx, &staticRoster{})

	u, err := resolver.AppointCoordinator(fx.ctx, "grace.hopper@"+testDomain)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplaintCoordinator, u.Role)
	require.NotNil(t, u.SecondaryRole)
	assert.Equal(t, domain.RoleLecturer, *u.SecondaryRole)

	u, err = resolver.AppointCoordinator(fx.ctx, "jane.roe@"+testDomain)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplaintCoordinator, u.Role)
	assert.Nil(t, u.SecondaryRole)

	_, err = resolver.AppointCoordinator(fx.ctx, "nobody@"+testDomain)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
