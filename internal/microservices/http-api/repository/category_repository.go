package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Category, int64, error) {
	q := conn(ctx, r.db).Model(&models.Category{})
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	var list []models.Category
	if err := q.Order("name asc").Scopes(paginate(page, pageSize)).Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get categories: %w", err)
	}
	return list, total, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *models.Category) error {
	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// DeleteBySlug removes the category; titles referencing it keep existing with the reference cleared.
func (r *categoryRepository) DeleteBySlug(ctx context.Context, slug string) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.Where("slug = ?", slug).First(&c).Error; err != nil {
			return fmt.Errorf("find category: %w", err)
		}
		// cleared explicitly as well, for engines that do not enforce ON DELETE SET NULL
		if err := tx.Model(&models.Title{}).Where("category_id = ?", c.ID).Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("clear title categories: %w", err)
		}
		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}
