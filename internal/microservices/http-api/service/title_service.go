package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/policy"
	"yamdb/internal/rating"

	"gorm.io/gorm"
)

// RatedTitle is a title together with the mean score of its reviews,
// computed when it is read. Rating is nil for a title with no reviews.
type RatedTitle struct {
	models.Title
	Rating *float64 `json:"rating"`
}

// TitleInput holds a new title. Category and Genres are slugs.
type TitleInput struct {
	Name        string
	Year        *int
	Description string
	Category    string
	Genres      []string
}

// TitlePatch is a partial title update. An empty Category clears it.
type TitlePatch struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genres      *[]string
}

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]RatedTitle, int64, error)
	Get(ctx context.Context, id int64) (*RatedTitle, error)
	Create(ctx context.Context, actor *policy.Actor, in TitleInput) (*RatedTitle, error)
	Update(ctx context.Context, actor *policy.Actor, id int64, patch TitlePatch) (*RatedTitle, error)
	Delete(ctx context.Context, actor *policy.Actor, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	reviews    repository.ReviewRepository
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	reviews repository.ReviewRepository,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		reviews:    reviews,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]RatedTitle, int64, error) {
	titles, total, err := s.titles.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	rated, err := s.rate(ctx, titles)
	if err != nil {
		return nil, 0, err
	}
	return rated, total, nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*RatedTitle, error) {
	t, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "title")
	}
	rated, err := s.rate(ctx, []models.Title{*t})
	if err != nil {
		return nil, err
	}
	return &rated[0], nil
}

func (s *titleService) Create(ctx context.Context, actor *policy.Actor, in TitleInput) (*RatedTitle, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindTitle, Action: policy.ActionCreate}); err != nil {
		return nil, err
	}

	verr := &apperrors.ValidationError{}
	validateTitleName(verr, in.Name)
	s.validateYear(verr, in.Year)
	title := &models.Title{Name: in.Name, Description: in.Description}
	if in.Year != nil {
		title.Year = *in.Year
	}
	if err := s.resolveCategory(ctx, verr, title, in.Category); err != nil {
		return nil, err
	}
	if err := s.resolveGenres(ctx, verr, title, in.Genres); err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.titles.Create(ctx, title); err != nil {
		return nil, err
	}
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, actor *policy.Actor, id int64, patch TitlePatch) (*RatedTitle, error) {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindTitle, Action: policy.ActionUpdate}); err != nil {
		return nil, err
	}
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "title")
	}

	verr := &apperrors.ValidationError{}
	if patch.Name != nil {
		validateTitleName(verr, *patch.Name)
		title.Name = *patch.Name
	}
	if patch.Year != nil {
		s.validateYear(verr, patch.Year)
		title.Year = *patch.Year
	}
	if patch.Description != nil {
		title.Description = *patch.Description
	}
	if patch.Category != nil {
		title.CategoryID = nil
		title.Category = nil
		if err := s.resolveCategory(ctx, verr, title, *patch.Category); err != nil {
			return nil, err
		}
	}
	if patch.Genres != nil {
		title.Genres = nil
		if err := s.resolveGenres(ctx, verr, title, *patch.Genres); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.titles.Update(ctx, title, patch.Genres != nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the title with its reviews and their comments.
func (s *titleService) Delete(ctx context.Context, actor *policy.Actor, id int64) error {
	if _, err := policy.Authorize(policy.Request{Actor: actor, Kind: policy.KindTitle, Action: policy.ActionDelete}); err != nil {
		return err
	}
	return mapNotFound(s.titles.Delete(ctx, id), "title")
}

// rate attaches the current mean review score to each title.
func (s *titleService) rate(ctx context.Context, titles []models.Title) ([]RatedTitle, error) {
	ids := make([]int64, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	scores, err := s.reviews.ScoresByTitles(ctx, ids)
	if err != nil {
		return nil, err
	}

	rated := make([]RatedTitle, len(titles))
	for i, t := range titles {
		rated[i] = RatedTitle{Title: t, Rating: rating.Mean(scores[t.ID])}
	}
	return rated, nil
}

func validateTitleName(verr *apperrors.ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", msgRequired)
	case len(name) > models.NameMaxLength:
		verr.Add("name", msgNameTooLong)
	}
}

func (s *titleService) validateYear(verr *apperrors.ValidationError, year *int) {
	if year == nil {
		verr.Add("year", msgRequired)
		return
	}
	current := s.now().Year()
	switch {
	case *year < 0:
		verr.Add("year", "Ensure this value is greater than or equal to 0.")
	case *year > current:
		verr.Add("year", fmt.Sprintf("Ensure this value is less than or equal to %d.", current))
	}
}

func (s *titleService) resolveCategory(ctx context.Context, verr *apperrors.ValidationError, title *models.Title, slug string) error {
	if slug == "" {
		return nil
	}
	c, err := s.categories.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		verr.Add("category", fmt.Sprintf("Object with slug=%s does not exist.", slug))
		return nil
	}
	if err != nil {
		return err
	}
	title.CategoryID = &c.ID
	title.Category = c
	return nil
}

func (s *titleService) resolveGenres(ctx context.Context, verr *apperrors.ValidationError, title *models.Title, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	found, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, g := range found {
		known[g.Slug] = true
	}
	for _, slug := range slugs {
		if !known[slug] {
			verr.Add("genre", fmt.Sprintf("Object with slug=%s does not exist.", slug))
		}
	}
	title.Genres = found
	return nil
}
