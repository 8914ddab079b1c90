package service

import (
	"context"
	"errors"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"

	"gorm.io/gorm"
)

type GenreService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error)
	Create(ctx context.Context, actor *policy.Actor, name, slug string) (*models.Genre, error)
	Delete(ctx context.Context, actor *policy.Actor, slug string) error
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	return s.repo.List(ctx, search, page, pageSize)
}

func (s *genreService) Create(ctx context.Context, actor *policy.Actor, name, slug string) (*models.Genre, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindGenre, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, apperrors.NewValidationError("slug", msgSlugTaken)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	g := &models.Genre{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError("slug", msgSlugTaken)
		}
		return nil, err
	}
	return g, nil
}

// Delete removes the genre and unlinks it from its titles.
func (s *genreService) Delete(ctx context.Context, actor *policy.Actor, slug string) error {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindGenre, Action: policy.ActionDelete}); err != nil {
		return err
	}
	return mapNotFound(s.repo.DeleteBySlug(ctx, slug), "genre")
}
