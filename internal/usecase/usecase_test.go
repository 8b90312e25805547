package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/auth"
	"github.com/GoArmGo/StudentRegistry/internal/database/storage"
	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"github.com/GoArmGo/StudentRegistry/internal/logger"
	"github.com/GoArmGo/StudentRegistry/internal/messaging/payloads"
	"github.com/GoArmGo/StudentRegistry/internal/qrcode"
	"github.com/GoArmGo/StudentRegistry/internal/regnum"
	"github.com/GoArmGo/StudentRegistry/internal/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []payloads.QRCodeJobPayload
}

func (p *fakePublisher) PublishQRCodeJob(_ context.Context, payload payloads.QRCodeJobPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, payload)
	return nil
}

func (p *fakePublisher) published() []payloads.QRCodeJobPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]payloads.QRCodeJobPayload(nil), p.jobs...)
}

type fakeFiles struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
	fail     bool
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{uploaded: make(map[string][]byte)}
}

func (f *fakeFiles) UploadFile(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[key] = data
	return "http://minio.local/" + key, nil
}

func (f *fakeFiles) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}

// switchableEncoder делегирует настоящему кодировщику, пока не выключен.
// failFor отказывает только отдельным пользователям.
type switchableEncoder struct {
	inner    QREncoder
	disabled bool
	failFor  map[string]bool
}

func (e *switchableEncoder) Encode(s domain.QRSnapshot) (string, bool) {
	if e.disabled || e.failFor[s.ID] {
		return "", false
	}
	return e.inner.Encode(s)
}

type testEnv struct {
	db        *gorm.DB
	users     *storage.UserStorage
	lifecycle *Lifecycle
	auth      AuthUseCase
	admin     AdminUseCase
	encoder   *switchableEncoder
	jobs      *fakePublisher
	files     *fakeFiles
	tokens    *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	db := testutil.NewTestDB(t)
	users := storage.NewUserStorage(db, log)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	encoder := &switchableEncoder{inner: qrcode.NewEncoder(log)}
	jobs := &fakePublisher{}
	files := newFakeFiles()

	lc := NewLifecycle(users, hasher, regnum.NewGenerator(), encoder, jobs, files, log)

	return &testEnv{
		db:        db,
		users:     users,
		lifecycle: lc,
		auth:      NewAuthUseCase(users, lc, hasher, tokens, log),
		admin:     NewAdminUseCase(users, lc, log),
		encoder:   encoder,
		jobs:      jobs,
		files:     files,
		tokens:    tokens,
	}
}

func adultDOB() domain.Date {
	return domain.NewDate(time.Now().Year()-20, time.January, 15)
}

func registerInput(email string) RegisterInput {
	return RegisterInput{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		Password:    "password123",
		DateOfBirth: adultDOB(),
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), registerInput(email))
	require.NoError(t, err)
	return res.User
}
