package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func reviewRouter(t *testing.T, svc *MockReviewService) http.Handler {
	tokens := new(MockAuthService)
	tokens.On("ValidateToken", "alice-token").Return(claimsFor("u1", "alice", models.RoleUser), nil)
	tokens.On("ValidateToken", "mod-token").Return(claimsFor("m1", "mod", models.RoleModerator), nil)

	r := setupRouter(t, tokens)
	NewReviewHandler(svc).RegisterRoutes(r.Group("/titles/:title_id/reviews"))
	return r
}

func TestReviews_ListIsPublic(t *testing.T) {
	svc := new(MockReviewService)
	svc.On("List", mock.Anything, int64(7), 1, 20).Return([]models.Review{{
		ID:      1,
		Text:    "good",
		Score:   8,
		PubDate: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Author:  models.User{Username: "alice"},
	}}, int64(1), nil)

	w := doJSON(reviewRouter(t, svc), http.MethodGet, "/titles/7/reviews", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	results := body["results"].([]any)
	first := results[0].(map[string]any)
	assert.Equal(t, "alice", first["author"])
	assert.Equal(t, float64(8), first["score"])
}

func TestReviews_CreateSecondReview(t *testing.T) {
	svc := new(MockReviewService)
	svc.On("Create", mock.Anything, actorFor("u1", "alice", models.RoleUser), int64(7), mock.AnythingOfType("service.ReviewInput")).
		Return(nil, apperrors.NewValidationError(apperrors.NonFieldErrors, "You have already reviewed this title"))

	w := doJSON(reviewRouter(t, svc), http.MethodPost, "/titles/7/reviews",
		map[string]any{"text": "again", "score": 5}, "alice-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"non_field_errors": ["You have already reviewed this title"]}`, w.Body.String())
}

func TestReviews_CreateScoreOutOfRange(t *testing.T) {
	svc := new(MockReviewService)

	w := doJSON(reviewRouter(t, svc), http.MethodPost, "/titles/7/reviews",
		map[string]any{"text": "x", "score": 11}, "alice-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"Ensure this value is less than or equal to 10."}, decode[map[string][]string](t, w)["score"])
}

func TestReviews_Create(t *testing.T) {
	svc := new(MockReviewService)
	svc.On("Create", mock.Anything, mock.Anything, int64(7), mock.MatchedBy(func(in service.ReviewInput) bool {
		return in.Text == "fine" && in.Score != nil && *in.Score == 6
	})).Return(&models.Review{ID: 3, Text: "fine", Score: 6, Author: models.User{Username: "alice"}}, nil)

	w := doJSON(reviewRouter(t, svc), http.MethodPost, "/titles/7/reviews",
		map[string]any{"text": "fine", "score": 6}, "alice-token")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(3), decode[map[string]any](t, w)["id"])
}

func TestReviews_Delete(t *testing.T) {
	svc := new(MockReviewService)
	svc.On("Delete", mock.Anything, actorFor("m1", "mod", models.RoleModerator), int64(7), int64(3)).Return(nil)
	svc.On("Delete", mock.Anything, actorFor("u1", "alice", models.RoleUser), int64(7), int64(4)).
		Return(fmt.Errorf("delete review: %w", apperrors.ErrForbidden))
	svc.On("Delete", mock.Anything, (*policy.Actor)(nil), int64(7), int64(3)).Return(apperrors.ErrUnauthenticated)

	r := reviewRouter(t, svc)

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/titles/7/reviews/3", nil, "mod-token").Code)
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodDelete, "/titles/7/reviews/4", nil, "alice-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodDelete, "/titles/7/reviews/3", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/titles/abc/reviews/3", nil, "mod-token").Code)
}
