package service

import (
	"context"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64, text string) (*models.Comment, error)
	Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository) CommentService {
	return &commentService{comments: comments, reviews: reviews}
}

// review checks that reviewID exists and belongs to titleID.
func (s *commentService) review(ctx context.Context, titleID, reviewID int64) error {
	if _, err := s.reviews.GetByID(ctx, titleID, reviewID); err != nil {
		return mapNotFound(err, "review")
	}
	return nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.comments.ListByReview(ctx, reviewID, page, pageSize)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, mapNotFound(err, "comment")
	}
	return comment, nil
}

func (s *commentService) Create(ctx context.Context, actor *policy.Actor, titleID, reviewID int64, text string) (*models.Comment, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindComment, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	if err := s.review(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	verr := &apperrors.ValidationError{}
	validateText(verr, &text)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	comment := &models.Comment{ReviewID: reviewID, AuthorID: actor.UserID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.Get(ctx, titleID, reviewID, comment.ID)
}

func (s *commentService) Update(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64, text string) (*models.Comment, error) {
	comment, err := s.authorized(ctx, actor, policy.ActionUpdate, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	verr := &apperrors.ValidationError{}
	validateText(verr, &text)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.Get(ctx, titleID, reviewID, commentID)
}

func (s *commentService) Delete(ctx context.Context, actor *policy.Actor, titleID, reviewID, commentID int64) error {
	comment, err := s.authorized(ctx, actor, policy.ActionDelete, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	return mapNotFound(s.comments.Delete(ctx, comment.ID), "comment")
}

func (s *commentService) authorized(ctx context.Context, actor *policy.Actor, action policy.Action, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if actor == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	_, err = policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindComment, Action: action, OwnerID: comment.AuthorID})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
