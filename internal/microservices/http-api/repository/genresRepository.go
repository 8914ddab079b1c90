package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type GenreRepository interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Genre, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
	Create(ctx context.Context, g *models.Genre) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	q := conn(ctx, r.db).Model(&models.Genre{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count genres: %w", err)
	}

	var list []models.Genre
	if err := q.Order("name asc").Scopes(paginate(page, pageSize)).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get genres: %w", err)
	}
	return list, total, nil
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	var g models.Genre
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&g).Error; err != nil {
		return nil, fmt.Errorf("find genre: %w", err)
	}
	return &g, nil
}

func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var list []models.Genre
	if len(slugs) == 0 {
		return list, nil
	}
	if err := conn(ctx, r.db).Where("slug IN ?", slugs).Order("name asc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("find genres: %w", err)
	}
	return list, nil
}

func (r *genreRepository) Create(ctx context.Context, g *models.Genre) error {
	if err := conn(ctx, r.db).Create(g).Error; err != nil {
		return fmt.Errorf("create genre: %w", err)
	}
	return nil
}

// DeleteBySlug removes the genre and its title links; the titles stay.
func (r *genreRepository) DeleteBySlug(ctx context.Context, slug string) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var g models.Genre
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return fmt.Errorf("find genre: %w", err)
		}
		if err := tx.Exec("DELETE FROM genre_title WHERE genre_id = ?", g.ID).Error; err != nil {
			return fmt.Errorf("unlink genre: %w", err)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return fmt.Errorf("delete genre: %w", err)
		}
		return nil
	})
}
