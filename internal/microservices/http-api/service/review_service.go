package service

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"

	"gorm.io/gorm"
)

const msgAlreadyReviewed = "You have already reviewed this title"

type ReviewInput struct {
	Text  string
	Score *int
}

type ReviewPatch struct {
	Text  *string
	Score *int
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	Create(ctx context.Context, actor *policy.Actor, titleID int64, in ReviewInput) (*models.Review, error)
	Update(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, patch ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository) ReviewService {
	return &reviewService{reviews: reviews, titles: titles}
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	if _, err := s.titles.GetByID(ctx, titleID); err != nil {
		return nil, 0, mapNotFound(err, "title")
	}
	return s.reviews.ListByTitle(ctx, titleID, page, pageSize)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, mapNotFound(err, "review")
	}
	return review, nil
}

// Create posts actor's review of a title. Each user reviews a title at most once.
func (s *reviewService) Create(ctx context.Context, actor *policy.Actor, titleID int64, in ReviewInput) (*models.Review, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindReview, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	if _, err := s.titles.GetByID(ctx, titleID); err != nil {
		return nil, mapNotFound(err, "title")
	}

	verr := &apperrors.ValidationError{}
	validateText(verr, &in.Text)
	validateScore(verr, in.Score, true)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.reviews.ExistsByTitleAndAuthor(ctx, titleID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewValidationError(apperrors.NonFieldErrors, msgAlreadyReviewed)
	}

	review := &models.Review{TitleID: titleID, AuthorID: actor.UserID, Text: in.Text, Score: *in.Score}
	if err := s.reviews.Create(ctx, review); err != nil {
		// a concurrent post by the same author hit the unique index first
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError(apperrors.NonFieldErrors, msgAlreadyReviewed)
		}
		return nil, err
	}
	return s.Get(ctx, titleID, review.ID)
}

func (s *reviewService) Update(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, patch ReviewPatch) (*models.Review, error) {
	review, err := s.authorized(ctx, actor, policy.ActionUpdate, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	if patch.Text != nil {
		validateText(verr, patch.Text)
		review.Text = *patch.Text
	}
	if patch.Score != nil {
		validateScore(verr, patch.Score, false)
		review.Score = *patch.Score
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return s.Get(ctx, titleID, reviewID)
}

// Delete removes the review and its comments.
func (s *reviewService) Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID int64) error {
	review, err := s.authorized(ctx, actor, policy.ActionDelete, titleID, reviewID)
	if err != nil {
		return err
	}
	return mapNotFound(s.reviews.Delete(ctx, review.ID), "review")
}

// authorized loads a review and checks that actor may change it. Anonymous
// callers are rejected before the lookup.
func (s *reviewService) authorized(ctx context.Context, actor *policy.Actor, action policy.Action, titleID, reviewID int64) (*models.Review, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	_, err = policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindReview, Action: action, OwnerID: review.AuthorID})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func validateText(verr *apperrors.ValidationError, text *string) {
	if *text == "" {
		verr.Add("text", msgRequired)
	}
}

func validateScore(verr *apperrors.ValidationError, score *int, required bool) {
	if score == nil {
		if required {
			verr.Add("score", msgRequired)
		}
		return
	}
	switch {
	case *score < models.MinScore:
		verr.Add("score", fmt.Sprintf("Ensure this value is greater than or equal to %d.", models.MinScore))
	case *score > models.MaxScore:
		verr.Add("score", fmt.Sprintf("Ensure this value is less than or equal to %d.", models.MaxScore))
	}
}
