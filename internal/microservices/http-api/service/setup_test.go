package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-0123456789abcdef012345"

// recordingDeliverer keeps the last code sent to each username.
type recordingDeliverer struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func newRecordingDeliverer() *recordingDeliverer {
	return &recordingDeliverer{codes: make(map[string]string)}
}

func (d *recordingDeliverer) Deliver(_ context.Context, user *models.User, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[user.Username] = code
	d.sent++
	return nil
}

func (d *recordingDeliverer) code(username string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[username]
}

// MockCodeDeliverer mocks the CodeDeliverer interface
type MockCodeDeliverer struct {
	mock.Mock
}

func (m *MockCodeDeliverer) Deliver(ctx context.Context, user *models.User, code string) error {
	args := m.Called(ctx, user, code)
	return args.Error(0)
}

type testEnv struct {
	db         *gorm.DB
	users      repository.UserRepository
	codes      repository.ConfirmationCodeRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	titles     repository.TitleRepository
	reviews    repository.ReviewRepository
	comments   repository.CommentRepository
	tx         repository.Transactor
	tokens     *TokenIssuer
	confirm    ConfirmationService
	delivered  *recordingDeliverer
	auth       AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:         db,
		users:      repository.NewUserRepository(db),
		codes:      repository.NewConfirmationCodeRepository(db),
		categories: repository.NewCategoryRepository(db),
		genres:     repository.NewGenreRepository(db),
		titles:     repository.NewTitleRepository(db),
		reviews:    repository.NewReviewRepository(db),
		comments:   repository.NewCommentRepository(db),
		tx:         repository.NewTransactor(db),
		tokens:     NewTokenIssuer(testSecret, time.Hour),
		delivered:  newRecordingDeliverer(),
	}
	env.confirm = NewConfirmationService(env.codes, time.Hour)
	env.auth = NewAuthService(env.users, env.confirm, env.tx, env.tokens, env.delivered)
	return env
}

// user stores a user directly and returns the actor acting as them.
func (e *testEnv) user(t *testing.T, username string, role models.Role) (*models.User, *policy.Actor) {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u, &policy.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
