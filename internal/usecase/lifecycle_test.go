package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/messaging/payloads"
	"github.com/GoArmGo/StudentRegistry/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeSaveHashesOnlyChangedPassword(t *testing.T) {
	env := newTestEnv(t)

	created := &domain.User{
		FirstName:   "Alan",
		LastName:    "Turing",
		Email:       "alan@example.com",
		Password:    "plaintext1",
		DateOfBirth: adultDOB(),
	}
	require.NoError(t, env.lifecycle.runBeforeSave(nil, created))
	assert.NotEqual(t, "plaintext1", created.Password)
	assert.Equal(t, domain.RoleStudent, created.Role)
	assert.Regexp(t, registrationNumberPattern, created.RegistrationNumber)

	unchanged := *created
	unchanged.FirstName = "Alan M."
	require.NoError(t, env.lifecycle.runBeforeSave(created, &unchanged))
	assert.Equal(t, created.Password, unchanged.Password)
	assert.Equal(t, created.RegistrationNumber, unchanged.RegistrationNumber)

	cleared := *created
	cleared.Password = ""
	require.NoError(t, env.lifecycle.runBeforeSave(created, &cleared))
	assert.Equal(t, created.Password, cleared.Password)

	changed := *created
	changed.Password = "another-secret"
	require.NoError(t, env.lifecycle.runBeforeSave(created, &changed))
	assert.NotEqual(t, created.Password, changed.Password)
	assert.NotEqual(t, "another-secret", changed.Password)
}

func TestBeforeSaveValidatesBeforeHashing(t *testing.T) {
	env := newTestEnv(t)

	u := &domain.User{
		FirstName:   "Kid",
		LastName:    "Young",
		Email:       "kid@example.com",
		Password:    "plaintext1",
		DateOfBirth: domain.NewDate(time.Now().Year()-6, time.January, 1),
	}
	err := env.lifecycle.runBeforeSave(nil, u)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "plaintext1", u.Password, "hash step must not run after a validation failure")

	u.Role = domain.RoleAdmin
	u.RegistrationNumber = ""
	require.NoError(t, env.lifecycle.runBeforeSave(nil, u))
	assert.Equal(t, "ADM-", u.RegistrationNumber[:4])
}

func TestCreateSurvivesQRFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.encoder.disabled = true

	user, err := env.lifecycle.Create(ctx, &domain.User{
		FirstName:   "No",
		LastName:    "Code",
		Email:       "nocode@example.com",
		Password:    "password123",
		DateOfBirth: adultDOB(),
	})
	require.NoError(t, err)
	assert.Nil(t, user.QRCode)

	jobs := env.jobs.published()
	require.Len(t, jobs, 1)
	assert.Equal(t, payloads.QRCodeJobPayload{UserID: user.ID.String(), Reason: payloads.ReasonCreated}, jobs[0])

	env.encoder.disabled = false
	got, err := env.admin.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.QRCode)
}

func TestCreateSurvivesArchiveFailure(t *testing.T) {
	env := newTestEnv(t)
	env.files.fail = true

	user := env.register(t, "archive@example.com")
	assert.NotNil(t, user.QRCode)
	assert.Empty(t, env.jobs.published())
}

func TestBackfillMissingQRCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testutil.CreateTestUser(t, env.db)
	}
	testutil.CreateTestUser(t, env.db, testutil.WithQRCode("data:image/png;base64,AAAA"))

	n, err := env.lifecycle.BackfillMissingQRCodes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	missing, err := env.users.ListMissingQRCode(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestBackfillStopsWhenNothingCanBeGenerated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testutil.CreateTestUser(t, env.db)
	testutil.CreateTestUser(t, env.db)
	env.encoder.disabled = true

	n, err := env.lifecycle.BackfillMissingQRCodes(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackfillSkipsUsersThatCannotBeEncoded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	env.encoder.failFor = make(map[string]bool)
	for i := 0; i < 3; i++ {
		bad := testutil.CreateTestUser(t, env.db, testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Minute)))
		env.encoder.failFor[bad.ID.String()] = true
	}
	good := testutil.CreateTestUser(t, env.db, testutil.WithCreatedAt(base.Add(time.Hour)))

	n, err := env.lifecycle.BackfillMissingQRCodes(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := env.users.FindByID(ctx, good.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasQRCode())

	missing, err := env.users.ListMissingQRCode(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 3)
}

func TestUpdateClearsStaleQRCodeWhenRegenerationFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "old@example.com")
	require.NotNil(t, user.QRCode)

	env.encoder.disabled = true
	updated, err := env.admin.UpdateUser(ctx, user.ID, UpdateUserInput{Email: "new@example.com"})
	require.NoError(t, err)
	assert.Nil(t, updated.QRCode)

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasQRCode(), "stale code must not survive a failed refresh")

	env.encoder.disabled = false
	got, err := env.admin.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.QRCode)

	snap := testutil.DecodeQRSnapshot(t, *got.QRCode)
	assert.Equal(t, "new@example.com", snap.Email)
	assert.Equal(t, got.Snapshot(), snap)
}

func TestBackfillHonoursCancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.lifecycle.BackfillMissingQRCodes(ctx, 10)
	assert.True(t, errors.Is(err, context.Canceled))
}
