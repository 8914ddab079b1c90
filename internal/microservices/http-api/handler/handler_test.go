package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/policy"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ExchangeToken(ctx context.Context, username, code string) (string, error) {
	args := m.Called(ctx, username, code)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

// MockUserService mocks the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) List(ctx context.Context, actor *policy.Actor, search string, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, actor, search, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) Create(ctx context.Context, actor *policy.Actor, in service.UserInput) (*models.User, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, actor *policy.Actor, username string) (*models.User, error) {
	args := m.Called(ctx, actor, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, actor *policy.Actor, username string, patch service.UserPatch) (*models.User, error) {
	args := m.Called(ctx, actor, username, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, actor *policy.Actor, username string) error {
	args := m.Called(ctx, actor, username)
	return args.Error(0)
}

func (m *MockUserService) Me(ctx context.Context, actor *policy.Actor) (*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, actor *policy.Actor, patch service.UserPatch) (*models.User, error) {
	args := m.Called(ctx, actor, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, username, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockReviewService mocks the ReviewService interface
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	args := m.Called(ctx, titleID, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, actor *policy.Actor, titleID int64, in service.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, actor, titleID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, patch service.ReviewPatch) (*models.Review, error) {
	args := m.Called(ctx, actor, titleID, reviewID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID int64) error {
	args := m.Called(ctx, actor, titleID, reviewID)
	return args.Error(0)
}

// MockTitleService mocks the TitleService interface
type MockTitleService struct {
	mock.Mock
}

func (m *MockTitleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]service.RatedTitle, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]service.RatedTitle), args.Get(1).(int64), args.Error(2)
}

func (m *MockTitleService) Get(ctx context.Context, id int64) (*service.RatedTitle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RatedTitle), args.Error(1)
}

func (m *MockTitleService) Create(ctx context.Context, actor *policy.Actor, in service.TitleInput) (*service.RatedTitle, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RatedTitle), args.Error(1)
}

func (m *MockTitleService) Update(ctx context.Context, actor *policy.Actor, id int64, patch service.TitlePatch) (*service.RatedTitle, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RatedTitle), args.Error(1)
}

func (m *MockTitleService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

// setupRouter returns a test engine that authenticates "Bearer <token>" through tokens.
func setupRouter(t *testing.T, tokens middleware.TokenValidator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterGinValidators())
	r := gin.New()
	if tokens != nil {
		r.Use(middleware.Authenticate(tokens))
	}
	return r
}

func doJSON(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func claimsFor(id, username string, role models.Role) *service.Claims {
	return &service.Claims{UserID: id, Username: username, Role: role}
}

func actorFor(id, username string, role models.Role) *policy.Actor {
	return claimsFor(id, username, role).Actor()
}
