package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/models"
)

func newAccessFixture(t *testing.T) (AccessService, *fakeAccessRepo, *fakeUserRepo, *fakeClassRepo, *fakeBranchRepo) {
	t.Helper()

	accessRepo := newFakeAccessRepo()
	userRepo := newFakeUserRepo(
		&models.User{ID: "admin-1", Role: models.RoleAdmin, Lifecycle: models.LifecycleActive},
		&models.User{ID: "teacher-1", Role: models.RoleTeacher, Lifecycle: models.LifecycleActive},
		&models.User{ID: "student-1", Role: models.RoleStudent, Lifecycle: models.LifecycleActive},
	)
	classRepo := newFakeClassRepo(
		&models.Class{ID: "class-1", Name: "Starters A", EnglishLevel: "A1", AgeGroup: "7-9"},
		&models.Class{ID: "class-2", Name: "Movers B", EnglishLevel: "A2", AgeGroup: "10-12"},
	)
	branchRepo := newFakeBranchRepo(
		&models.Branch{ID: "branch-1", Name: "Downtown"},
	)

	svc := NewAccessService(accessRepo, userRepo, classRepo, branchRepo, zerolog.Nop())
	return svc, accessRepo, userRepo, classRepo, branchRepo
}

var (
	admin   = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	teacher = models.Actor{UserID: "teacher-1", Role: models.RoleTeacher}
	student = models.Actor{UserID: "student-1", Role: models.RoleStudent}
)

func TestRequireRole(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)

	err := svc.RequireRole(models.Actor{}, models.RoleAdmin)
	assert.Equal(t, apperr.KindAuthenticationRequired, apperr.KindOf(err))

	err = svc.RequireRole(student, models.RoleAdmin, models.RoleTeacher)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assert.NoError(t, svc.RequireRole(teacher, models.RoleAdmin, models.RoleTeacher))
}

func TestSetClassTeacherLeadRequiresAccess(t *testing.T) {
	svc, accessRepo, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	err := svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", false, true)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	has, _ := accessRepo.HasClassAccess(ctx, "teacher-1", "class-1")
	assert.False(t, has, "rejected request must not grant anything")
}

func TestSetClassTeacherGrantAndRevoke(t *testing.T) {
	svc, accessRepo, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", true, true))

	has, _ := accessRepo.HasClassAccess(ctx, "teacher-1", "class-1")
	lead, _ := accessRepo.IsLead(ctx, "teacher-1", "class-1")
	assert.True(t, has)
	assert.True(t, lead)

	// dropping the lead flag keeps access
	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", true, false))
	has, _ = accessRepo.HasClassAccess(ctx, "teacher-1", "class-1")
	lead, _ = accessRepo.IsLead(ctx, "teacher-1", "class-1")
	assert.True(t, has)
	assert.False(t, lead)

	// revoking access clears the lead marker too
	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", true, true))
	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", false, false))
	has, _ = accessRepo.HasClassAccess(ctx, "teacher-1", "class-1")
	lead, _ = accessRepo.IsLead(ctx, "teacher-1", "class-1")
	assert.False(t, has)
	assert.False(t, lead)
}

func TestSetClassTeacherAdminOnly(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)

	err := svc.SetClassTeacher(context.Background(), teacher, "class-1", "teacher-1", true, false)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestUpdateTeacherAuthorityReplaces(t *testing.T) {
	svc, accessRepo, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", true, true))

	// replacing with class-2 only must drop class-1 and its stale lead row
	require.NoError(t, svc.UpdateTeacherAuthority(ctx, admin, "teacher-1", []string{"branch-1"}, []string{"class-2"}))

	authority, err := svc.GetTeacherAuthority(ctx, admin, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"branch-1"}, authority.BranchIDs)
	assert.Equal(t, []string{"class-2"}, authority.ClassIDs)
	assert.Empty(t, authority.LeadOf)

	lead, _ := accessRepo.IsLead(ctx, "teacher-1", "class-1")
	assert.False(t, lead)

	// applying the same set again is a no-op
	require.NoError(t, svc.UpdateTeacherAuthority(ctx, admin, "teacher-1", []string{"branch-1"}, []string{"class-2"}))
	again, err := svc.GetTeacherAuthority(ctx, admin, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, authority.BranchIDs, again.BranchIDs)
	assert.Equal(t, authority.ClassIDs, again.ClassIDs)
}

func TestUpdateTeacherAuthorityValidation(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	err := svc.UpdateTeacherAuthority(ctx, admin, "student-1", nil, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "non-teacher target")

	err = svc.UpdateTeacherAuthority(ctx, admin, "missing", nil, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.UpdateTeacherAuthority(ctx, admin, "teacher-1", []string{"no-such-branch"}, nil)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = svc.UpdateTeacherAuthority(ctx, admin, "teacher-1", nil, []string{"no-such-class"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = svc.UpdateTeacherAuthority(ctx, teacher, "teacher-1", nil, nil)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCanManageClass(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	assert.NoError(t, svc.CanManageClass(ctx, admin, "class-1"))

	err := svc.CanManageClass(ctx, teacher, "class-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, svc.SetClassTeacher(ctx, admin, "class-1", "teacher-1", true, false))
	assert.NoError(t, svc.CanManageClass(ctx, teacher, "class-1"))
	// the grant is per class
	err = svc.CanManageClass(ctx, teacher, "class-2")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = svc.CanManageClass(ctx, student, "class-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestCanViewClassStudentEnrollment(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	err := svc.CanViewClass(ctx, student, "class-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, svc.EnrollStudent(ctx, admin, "class-1", "student-1"))
	assert.NoError(t, svc.CanViewClass(ctx, student, "class-1"))

	require.NoError(t, svc.UnenrollStudent(ctx, admin, "class-1", "student-1"))
	err = svc.CanViewClass(ctx, student, "class-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestEnrollStudentValidation(t *testing.T) {
	svc, _, _, _, _ := newAccessFixture(t)
	ctx := context.Background()

	err := svc.EnrollStudent(ctx, admin, "class-1", "teacher-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "only students can be enrolled")

	err = svc.EnrollStudent(ctx, admin, "no-such-class", "student-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
