package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTokenValidator mocks the TokenValidator interface
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

// MockCounter mocks the Counter interface
type MockCounter struct {
	mock.Mock
}

func (m *MockCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func whoAmI(c *gin.Context) {
	actor := ActorFrom(c)
	if actor == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, actor.Username+":"+string(actor.Role))
}

func TestAuthenticate(t *testing.T) {
	tokens := new(MockTokenValidator)
	tokens.On("ValidateToken", "good").Return(&service.Claims{UserID: "u1", Username: "alice", Role: models.RoleModerator}, nil)
	tokens.On("ValidateToken", "bad").Return(nil, service.ErrInvalidAccessToken)

	router := setupRouter()
	router.Use(Authenticate(tokens))
	router.GET("/open", whoAmI)
	router.GET("/closed", RequireAuth(), whoAmI)

	tests := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"AnonymousOpen", "/open", "", http.StatusOK, "anonymous"},
		{"AnonymousClosed", "/closed", "", http.StatusUnauthorized, ""},
		{"ValidToken", "/closed", "Bearer good", http.StatusOK, "alice:moderator"},
		{"LowercaseScheme", "/open", "bearer good", http.StatusOK, "alice:moderator"},
		{"InvalidToken", "/open", "Bearer bad", http.StatusUnauthorized, ""},
		{"MalformedHeader", "/open", "Token good", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestAuthenticate_ContextKeys(t *testing.T) {
	tokens := new(MockTokenValidator)
	tokens.On("ValidateToken", "good").Return(&service.Claims{UserID: "u1", Username: "alice", Role: models.RoleAdmin}, nil)

	router := setupRouter()
	router.Use(Authenticate(tokens))
	router.GET("/", func(c *gin.Context) {
		_, hasRole := c.Get("role")
		assert.False(t, hasRole, "role is read from the actor, not a loose context key")
		assert.Equal(t, "u1", c.GetString("userID"))
		assert.True(t, ActorFrom(c).IsAdmin())
		c.Status(http.StatusNoContent)
	})

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	router := setupRouter()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	counter := new(MockCounter)
	router := setupRouter()
	router.Use(RateLimit(counter, "auth", 2, time.Minute))
	router.POST("/auth/token", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodPost, "/auth/token", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("UnderLimit", func(t *testing.T) {
		counter.On("Incr", mock.Anything, mock.AnythingOfType("string"), time.Minute).
			Return(int64(2), 30*time.Second, nil).Once()
		w := do()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("OverLimit", func(t *testing.T) {
		counter.On("Incr", mock.Anything, mock.AnythingOfType("string"), time.Minute).
			Return(int64(3), 1500*time.Millisecond, nil).Once()
		w := do()
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "2", w.Header().Get("Retry-After"))
	})

	t.Run("CounterDownFailsOpen", func(t *testing.T) {
		counter.On("Incr", mock.Anything, mock.AnythingOfType("string"), time.Minute).
			Return(int64(0), time.Duration(0), errors.New("connection refused")).Once()
		w := do()
		assert.Equal(t, http.StatusOK, w.Code)
	})

	counter.AssertExpectations(t)
}
