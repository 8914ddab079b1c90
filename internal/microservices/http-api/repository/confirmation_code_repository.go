package repository

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type ConfirmationCodeRepository interface {
	Replace(ctx context.Context, code *models.ConfirmationCode) error
	FindByUserID(ctx context.Context, userID string) (*models.ConfirmationCode, error)
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type confirmationCodeRepository struct {
	db *gorm.DB
}

func NewConfirmationCodeRepository(db *gorm.DB) ConfirmationCodeRepository {
	return &confirmationCodeRepository{db: db}
}

// Replace stores code as the user's only confirmation code, dropping any previous one.
func (r *confirmationCodeRepository) Replace(ctx context.Context, code *models.ConfirmationCode) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", code.UserID).Delete(&models.ConfirmationCode{}).Error; err != nil {
			return fmt.Errorf("delete previous confirmation code: %w", err)
		}
		if err := tx.Create(code).Error; err != nil {
			return fmt.Errorf("create confirmation code: %w", err)
		}
		return nil
	})
}

func (r *confirmationCodeRepository) FindByUserID(ctx context.Context, userID string) (*models.ConfirmationCode, error) {
	var code models.ConfirmationCode
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&code).Error; err != nil {
		return nil, fmt.Errorf("find confirmation code: %w", err)
	}
	return &code, nil
}

// MarkUsed consumes the code if nobody else has. It reports false when the
// code was already used or no longer exists.
func (r *confirmationCodeRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.ConfirmationCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("mark confirmation code used: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteStale removes codes that are expired or already used.
func (r *confirmationCodeRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&models.ConfirmationCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale confirmation codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
