package service

import (
	"context"
	"errors"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"
	"yamdb/internal/validation"

	"gorm.io/gorm"
)

type CategoryService interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	Create(ctx context.Context, actor *policy.Actor, name, slug string) (*models.Category, error)
	Delete(ctx context.Context, actor *policy.Actor, slug string) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	return s.repo.List(ctx, search, page, pageSize)
}

func (s *categoryService) Create(ctx context.Context, actor *policy.Actor, name, slug string) (*models.Category, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindCategory, Action: policy.ActionCreate}); err != nil {
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

	category := &models.Category{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.NewValidationError("slug", msgSlugTaken)
		}
		return nil, err
	}
	return category, nil
}

// Delete removes the category. Titles referencing it keep existing with no category.
func (s *categoryService) Delete(ctx context.Context, actor *policy.Actor, slug string) error {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindCategory, Action: policy.ActionDelete}); err != nil {
		return err
	}
	return mapNotFound(s.repo.DeleteBySlug(ctx, slug), "category")
}

func validateNameSlug(name, slug string) error {
	verr := &apperrors.ValidationError{}
	switch {
	case name == "":
		verr.Add("name", msgRequired)
	case len(name) > models.NameMaxLength:
		verr.Add("name", msgNameTooLong)
	}
	if msg := validation.SlugMessage(slug); msg != "" {
		verr.Add("slug", msg)
	}
	return verr.OrNil()
}
