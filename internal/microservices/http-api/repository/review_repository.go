package repository

import (
	"context"
	"errors"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	ExistsByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (bool, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
	ScoresByTitles(ctx context.Context, titleIDs []int64) (map[int64][]int, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	q := conn(ctx, r.db).Model(&models.Review{}).Where("title_id = ?", titleID)

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	var reviews []models.Review
	if err := q.Preload("Author").
		Order("pub_date desc").Order("id desc").
		Scopes(paginate(page, pageSize)).
		Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	if err := conn(ctx, r.db).Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error; err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) ExistsByTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (bool, error) {
	var review models.Review
	err := conn(ctx, r.db).Select("id").
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existing review: %w", err)
	}
	return true, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := conn(ctx, r.db).Omit("Title", "Author").Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	err := conn(ctx, r.db).Model(&models.Review{ID: review.ID}).Updates(map[string]interface{}{
		"text":  review.Text,
		"score": review.Score,
	}).Error
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes the review and, through the foreign key, its comments.
func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&models.Review{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete review: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// ScoresByTitles returns the review scores of each title, read in one query.
func (r *reviewRepository) ScoresByTitles(ctx context.Context, titleIDs []int64) (map[int64][]int, error) {
	scores := make(map[int64][]int, len(titleIDs))
	if len(titleIDs) == 0 {
		return scores, nil
	}

	var rows []struct {
		TitleID int64
		Score   int
	}
	if err := conn(ctx, r.db).Model(&models.Review{}).
		Select("title_id, score").
		Where("title_id IN ?", titleIDs).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get review scores: %w", err)
	}

	for _, row := range rows {
		scores[row.TitleID] = append(scores[row.TitleID], row.Score)
	}
	return scores, nil
}
