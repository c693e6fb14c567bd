package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/complaintdesk/complaint-desk/internal/config"
	"github.com/complaintdesk/complaint-desk/internal/domain"
)

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            bcrypt.MinCost,
	}}
}

func TestCreateUser(t *testing.T) {
	store := newMemStore(baseTime)
	svc := NewUserService(testConfig(), store.Repos().Users)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, staffActor, CreateUserInput{Username: "x", Email: "x@x", Password: "p", Role: domain.RoleStaff})
	assertCode(t, err, "FORBIDDEN")

	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{Username: "x", Email: "x@x", Password: "p", Role: domain.RoleAdmin})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{Username: " ", Role: domain.RoleQC})
	assertCode(t, err, "VALIDATION_FAILED")

	user, err := svc.CreateUser(ctx, adminActor, CreateUserInput{Username: " rina ", Email: "rina@example.com", Password: "s3cret", Role: domain.RoleQC})
	require.NoError(t, err)
	assert.Equal(t, "rina", user.Username)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{Username: "other", Email: "rina@example.com", Password: "p", Role: domain.RoleStaff})
	assertCode(t, err, "CONFLICT")
	_, err = svc.CreateUser(ctx, adminActor, CreateUserInput{Username: "rina", Email: "new@example.com", Password: "p", Role: domain.RoleStaff})
	assertCode(t, err, "CONFLICT")
}

func TestListAndDeleteUsers(t *testing.T) {
	store := newMemStore(baseTime)
	store.seedUser(domain.User{ID: adminActor.UserID, Username: "root", Role: domain.RoleAdmin})
	staff := store.seedUser(domain.User{Username: "andi", Role: domain.RoleStaff})
	qc := store.seedUser(domain.User{Username: "rina", Role: domain.RoleQC})
	svc := NewUserService(testConfig(), store.Repos().Users)
	ctx := context.Background()

	users, err := svc.ListUsers(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	reviewers, err := svc.ListQCUsers(ctx)
	require.NoError(t, err)
	require.Len(t, reviewers, 1)
	assert.Equal(t, qc.ID, reviewers[0].ID)

	assertCode(t, svc.DeleteUser(ctx, adminActor, adminActor.UserID), "CONFLICT")
	assertCode(t, svc.DeleteUser(ctx, staffActor, staff.ID), "FORBIDDEN")
	assertCode(t, svc.DeleteUser(ctx, adminActor, 9999), "NOT_FOUND")
	require.NoError(t, svc.DeleteUser(ctx, adminActor, staff.ID))
	assert.NotContains(t, store.state.users, staff.ID)
}

func TestLogin(t *testing.T) {
	store := newMemStore(baseTime)
	cfg := testConfig()
	users := NewUserService(cfg, store.Repos().Users)
	created, err := users.CreateAdmin(context.Background(), "root", "root@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, created.Role)

	svc := NewAuthService(cfg, store.Repos().Users)
	for _, login := range []string{"root", "root@example.com"} {
		user, token, exp, err := svc.Login(context.Background(), login, "hunter2")
		require.NoError(t, err, login)
		assert.Equal(t, created.ID, user.ID)
		assert.False(t, exp.IsZero())

		claims, err := svc.TokenManager().ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, claims.UserID)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	}

	_, _, _, err = svc.Login(context.Background(), "root", "wrong")
	assertCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(context.Background(), "ghost", "hunter2")
	assertCode(t, err, "UNAUTHORIZED")
	_, _, _, err = svc.Login(context.Background(), "", "")
	assertCode(t, err, "VALIDATION_FAILED")
}
