package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	ListByReview(ctx context.Context, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
	GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) ListByReview(ctx context.Context, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	q := conn(ctx, r.db).Model(&models.Comment{}).Where("review_id = ?", reviewID)

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var comments []models.Comment
	if err := q.Preload("Author").
		Order("pub_date desc").Order("id desc").
		Scopes(paginate(page, pageSize)).
		Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	return comments, total, nil
}

func (r *commentRepository) GetByID(ctx context.Context, reviewID, commentID int64) (*models.Comment, error) {
	var comment models.Comment
	if err := conn(ctx, r.db).Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error; err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := conn(ctx, r.db).Omit("Review", "Author").Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := conn(ctx, r.db).Model(&models.Comment{ID: comment.ID}).Update("text", comment.Text).Error
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete comment: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
