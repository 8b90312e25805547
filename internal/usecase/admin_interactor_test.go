package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsersPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		testutil.CreateTestUser(t, env.db,
			testutil.WithEmail(fmt.Sprintf("s%02d@example.com", i)),
			testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Hour)),
		)
	}

	page, err := env.admin.ListUsers(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.EqualValues(t, 15, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	for _, u := range page.Items {
		assert.NotNil(t, u.QRCode, "missing qr codes are backfilled on list")
	}

	first, err := env.admin.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, "s14@example.com", first.Items[0].Email)

	beyond, err := env.admin.ListUsers(ctx, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 2, beyond.TotalPages)
}

func TestListUsersHonoursLargeLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testutil.CreateTestUser(t, env.db)
	}

	page, err := env.admin.ListUsers(ctx, 1, 250)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, page.TotalPages)

	second, err := env.admin.ListUsers(ctx, 2, 250)
	require.NoError(t, err)
	assert.Empty(t, second.Items)
	assert.Equal(t, 1, second.TotalPages)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, env.db)

	got, err := env.admin.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.NotNil(t, got.QRCode)

	_, err = env.admin.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUserRefreshesQRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "before@example.com")

	updated, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Email: "after@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "after@example.com", updated.Email)
	assert.Equal(t, user.FirstName, updated.FirstName)

	got, err := env.admin.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.QRCode)

	snap := testutil.DecodeQRSnapshot(t, *got.QRCode)
	assert.Equal(t, "after@example.com", snap.Email)
	assert.Equal(t, got.Snapshot(), snap)
}

func TestUpdateUserDateOfBirthOnlyRefreshesQRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "dob@example.com")

	dob := domain.NewDate(time.Now().Year()-18, time.May, 5)
	_, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{DateOfBirth: dob})
	require.NoError(t, err)

	got, err := env.admin.GetUser(ctx, user.ID)
	require.NoError(t, err)
	snap := testutil.DecodeQRSnapshot(t, *got.QRCode)
	assert.Equal(t, dob.String(), snap.DateOfBirth)
}

func TestUpdateUserIgnoresInvalidRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "role@example.com")

	updated, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Role: "superadmin", FirstName: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, updated.Role)
	assert.Equal(t, "Grace", updated.FirstName)

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, stored.Role)
}

func TestUpdateUserRoleChangeReissuesRegistrationNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "promote@example.com")

	updated, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Regexp(t, registrationNumberPattern, updated.RegistrationNumber)
	assert.Equal(t, "ADM-", updated.RegistrationNumber[:4])
}

func TestUpdateUserFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "taken@example.com")
	user := env.register(t, "mine@example.com")

	_, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Email: "taken@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailInUse)

	_, err = env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Email: "broken"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{DateOfBirth: domain.NewDate(time.Now().Year()-3, time.January, 1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.admin.UpdateUser(ctx, uuid.New(), UpdateUserInput{FirstName: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine@example.com", stored.Email)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "gone@example.com")

	require.NoError(t, env.admin.DeleteUser(ctx, user.ID))
	assert.Contains(t, env.files.deleted, qrObjectKey(user.ID))

	_, err := env.admin.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = env.admin.DeleteUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAdminRegenerateQRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, env.db)

	code, err := env.admin.RegenerateQRCode(ctx, user.ID)
	require.NoError(t, err)
	snap := testutil.DecodeQRSnapshot(t, code)
	assert.Equal(t, user.ID.String(), snap.ID)

	_, err = env.admin.RegenerateQRCode(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestSeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := AdminSeed{
		FirstName:   "Admin",
		LastName:    "User",
		Email:       "admin@example.com",
		Password:    "admin123",
		DateOfBirth: domain.NewDate(1960, time.January, 1),
	}

	admin, created, err := env.admin.SeedAdmin(ctx, seed)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "ADM-", admin.RegistrationNumber[:4])
	assert.NotNil(t, admin.QRCode)

	again, created, err := env.admin.SeedAdmin(ctx, seed)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	_, err = env.auth.Login(ctx, "admin@example.com", "admin123")
	assert.NoError(t, err)
}
