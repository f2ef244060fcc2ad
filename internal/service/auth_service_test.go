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

func TestRegisterAndLogin(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo, zerolog.Nop())
	ctx := context.Background()

	user, err := svc.Register(ctx, &models.RegisterRequest{
		Email:    "anna@school.example",
		Password: "correct horse battery",
		Name:     "Anna",
		Role:     "TEACHER",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash, "password must be stored hashed")

	loggedIn, err := svc.Login(ctx, &models.LoginRequest{
		Email:    "anna@school.example",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email:    "anna@school.example",
		Password: "wrong password",
	})
	assert.Equal(t, apperr.KindAuthenticationRequired, apperr.KindOf(err))

	_, err = svc.Login(ctx, &models.LoginRequest{
		Email:    "nobody@school.example",
		Password: "whatever",
	})
	assert.Equal(t, apperr.KindAuthenticationRequired, apperr.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewAuthService(userRepo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Register(ctx, &models.RegisterRequest{
		Email:    "anna@school.example",
		Password: "password-one",
		Name:     "Anna",
		Role:     "TEACHER",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &models.RegisterRequest{
		Email:    "anna@school.example",
		Password: "password-two",
		Name:     "Other Anna",
		Role:     "STUDENT",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestListUsersScope(t *testing.T) {
	userRepo := newFakeUserRepo(
		&models.User{ID: "student-1", Email: "s1@school.example", Role: models.RoleStudent, Lifecycle: models.LifecycleActive},
		&models.User{ID: "student-2", Email: "s2@school.example", Role: models.RoleStudent, Lifecycle: models.LifecycleActive},
		&models.User{ID: "teacher-1", Email: "t1@school.example", Role: models.RoleTeacher, Lifecycle: models.LifecycleActive},
	)
	svc := NewAuthService(userRepo, zerolog.Nop())
	ctx := context.Background()

	users, total, err := svc.ListUsers(ctx, admin, "STUDENT", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)

	_, _, err = svc.ListUsers(ctx, teacher, "STUDENT", 1, 20)
	require.NoError(t, err)

	_, _, err = svc.ListUsers(ctx, teacher, "TEACHER", 1, 20)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, _, err = svc.ListUsers(ctx, student, "STUDENT", 1, 20)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, _, err = svc.ListUsers(ctx, admin, "SUPERUSER", 1, 20)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateUser(t *testing.T) {
	userRepo := newFakeUserRepo(
		&models.User{ID: "student-1", Email: "s1@school.example", Name: "Old Name", Role: models.RoleStudent, Lifecycle: models.LifecycleActive},
	)
	svc := NewAuthService(userRepo, zerolog.Nop())
	ctx := context.Background()

	phone := "+7 900 000 00 00"
	updated, err := svc.UpdateUser(ctx, student, "student-1", &models.UpdateUserRequest{
		Name:  "New Name",
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	_, err = svc.UpdateUser(ctx, teacher, "student-1", &models.UpdateUserRequest{Name: "Hijacked"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestHideUser(t *testing.T) {
	userRepo := newFakeUserRepo(
		&models.User{ID: "student-1", Email: "s1@school.example", Role: models.RoleStudent, Lifecycle: models.LifecycleActive},
	)
	svc := NewAuthService(userRepo, zerolog.Nop())
	ctx := context.Background()

	err := svc.HideUser(ctx, teacher, "student-1")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	require.NoError(t, svc.HideUser(ctx, admin, "student-1"))

	err = svc.HideUser(ctx, admin, "student-1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "already hidden users are gone")
}

func TestRegisterInvalidRole(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), zerolog.Nop())

	_, err := svc.Register(context.Background(), &models.RegisterRequest{
		Email:    "anna@school.example",
		Password: "password",
		Name:     "Anna",
		Role:     "SUPERUSER",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
