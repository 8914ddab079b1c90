package handler

import (
	"net/http"
	"testing"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func titleRouter(t *testing.T, svc *MockTitleService) http.Handler {
	tokens := new(MockAuthService)
	tokens.On("ValidateToken", "admin-token").Return(claimsFor("a1", "root", models.RoleAdmin), nil)
	tokens.On("ValidateToken", "alice-token").Return(claimsFor("u1", "alice", models.RoleUser), nil)

	r := setupRouter(t, tokens)
	NewTitleHandler(svc).RegisterRoutes(r.Group("/titles"))
	return r
}

func TestTitles_GetRating(t *testing.T) {
	svc := new(MockTitleService)
	four := 4.0
	svc.On("Get", mock.Anything, int64(1)).Return(&service.RatedTitle{Title: models.Title{ID: 1, Name: "Heat", Year: 1995}}, nil)
	svc.On("Get", mock.Anything, int64(2)).Return(&service.RatedTitle{
		Title:  models.Title{ID: 2, Name: "Ronin", Year: 1998, Category: &models.Category{Name: "Films", Slug: "films"}},
		Rating: &four,
	}, nil)
	svc.On("Get", mock.Anything, int64(3)).Return(nil, apperrors.NotFound("title"))

	r := titleRouter(t, svc)

	w := doJSON(r, http.MethodGet, "/titles/1", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body, "rating")
	assert.Nil(t, body["rating"])
	assert.Nil(t, body["category"])

	w = doJSON(r, http.MethodGet, "/titles/2", nil, "")
	body = decode[map[string]any](t, w)
	assert.Equal(t, 4.0, body["rating"])
	assert.Equal(t, "films", body["category"].(map[string]any)["slug"])

	w = doJSON(r, http.MethodGet, "/titles/3", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTitles_ListFilters(t *testing.T) {
	svc := new(MockTitleService)
	year := 1995
	svc.On("List", mock.Anything, repository.TitleFilter{CategorySlug: "films", GenreSlug: "crime", Name: "he", Year: &year}, 1, 20).
		Return([]service.RatedTitle{{Title: models.Title{ID: 1, Name: "Heat", Year: 1995}}}, int64(1), nil)

	r := titleRouter(t, svc)

	w := doJSON(r, http.MethodGet, "/titles?category=films&genre=crime&name=he&year=1995", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = doJSON(r, http.MethodGet, "/titles?year=soon", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestTitles_CreateForbidden(t *testing.T) {
	svc := new(MockTitleService)
	svc.On("Create", mock.Anything, actorFor("u1", "alice", models.RoleUser), mock.AnythingOfType("service.TitleInput")).
		Return(nil, apperrors.ErrForbidden)

	w := doJSON(titleRouter(t, svc), http.MethodPost, "/titles",
		map[string]any{"name": "Heat", "year": 1995}, "alice-token")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTitles_CreateRequiresYear(t *testing.T) {
	w := doJSON(titleRouter(t, new(MockTitleService)), http.MethodPost, "/titles",
		map[string]any{"name": "Heat"}, "admin-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string][]string](t, w), "year")
}

func TestTitles_PatchAndDelete(t *testing.T) {
	svc := new(MockTitleService)
	admin := actorFor("a1", "root", models.RoleAdmin)
	svc.On("Update", mock.Anything, admin, int64(1), mock.MatchedBy(func(p service.TitlePatch) bool {
		return p.Genres != nil && len(*p.Genres) == 0 && p.Name == nil
	})).Return(&service.RatedTitle{Title: models.Title{ID: 1, Name: "Heat"}}, nil)
	svc.On("Delete", mock.Anything, admin, int64(1)).Return(nil)

	r := titleRouter(t, svc)

	w := doJSON(r, http.MethodPatch, "/titles/1", map[string]any{"genre": []string{}}, "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/titles/1", nil, "admin-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}
