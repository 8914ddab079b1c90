package repository

import (
	"context"
	"fmt"
	"strings"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         *int
}

type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, title *models.Title) error
	Update(ctx context.Context, title *models.Title, replaceGenres bool) error
	Delete(ctx context.Context, id int64) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	db := conn(ctx, r.db)
	q := db.Model(&models.Title{})

	if filter.CategorySlug != "" {
		sub := db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug)
		q = q.Where("category_id IN (?)", sub)
	}
	if filter.GenreSlug != "" {
		sub := db.Table("genre_title").
			Select("genre_title.title_id").
			Joins("JOIN genres ON genres.id = genre_title.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
		q = q.Where("id IN (?)", sub)
	}
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	var list []models.Title
	if err := q.Preload("Category").Preload("Genres").
		Order("id asc").
		Scopes(paginate(page, pageSize)).
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return list, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := conn(ctx, r.db).Preload("Category").Preload("Genres").First(&t, id).Error; err != nil {
		return nil, fmt.Errorf("get title: %w", err)
	}
	return &t, nil
}

// Create inserts the title and links it to the already stored genres in title.Genres.
func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	if err := conn(ctx, r.db).Omit("Category", "Genres.*").Create(title).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *titleRepository) Update(ctx context.Context, title *models.Title, replaceGenres bool) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Title{ID: title.ID}).Updates(map[string]interface{}{
			"name":        title.Name,
			"year":        title.Year,
			"description": title.Description,
			"category_id": title.CategoryID,
		})
		if res.Error != nil {
			return fmt.Errorf("update title: %w", res.Error)
		}

		if !replaceGenres {
			return nil
		}
		assoc := tx.Model(&models.Title{ID: title.ID}).Omit("Genres.*").Association("Genres")
		if len(title.Genres) == 0 {
			if err := assoc.Clear(); err != nil {
				return fmt.Errorf("clear title genres: %w", err)
			}
			return nil
		}
		if err := assoc.Replace(title.Genres); err != nil {
			return fmt.Errorf("replace title genres: %w", err)
		}
		return nil
	})
}

// Delete removes the title; its reviews and their comments go with it.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&models.Title{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete title: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete title: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
