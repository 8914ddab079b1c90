package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yamdb/internal/apperrors"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfirmationService issues and verifies the single-use codes exchanged for access tokens.
type ConfirmationService interface {
	Issue(ctx context.Context, user *models.User) (string, error)
	Verify(ctx context.Context, user *models.User, code string) (*models.ConfirmationCode, error)
	Consume(ctx context.Context, code *models.ConfirmationCode, at time.Time) error
	Cleanup(ctx context.Context) (int64, error)
}

type confirmationService struct {
	codes repository.ConfirmationCodeRepository
	ttl   time.Duration
	now   func() time.Time
}

func NewConfirmationService(codes repository.ConfirmationCodeRepository, ttl time.Duration) ConfirmationService {
	return &confirmationService{codes: codes, ttl: ttl, now: time.Now}
}

// Issue replaces the user's current code with a fresh one and returns its plaintext.
func (s *confirmationService) Issue(ctx context.Context, user *models.User) (string, error) {
	code, err := security.GenerateCode()
	if err != nil {
		return "", fmt.Errorf("generate confirmation code: %w", err)
	}
	hash, err := security.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("hash confirmation code: %w", err)
	}

	now := s.now()
	record := &models.ConfirmationCode{
		UserID:    user.ID,
		CodeHash:  hash,
		StateHash: userStateHash(user),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.codes.Replace(ctx, record); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the user's current record. Every mismatch is
// reported as apperrors.ErrInvalidToken.
func (s *confirmationService) Verify(ctx context.Context, user *models.User, code string) (*models.ConfirmationCode, error) {
	if code == "" {
		return nil, apperrors.ErrInvalidToken
	}

	record, err := s.codes.FindByUserID(ctx, user.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if !record.Usable(s.now()) {
		return nil, apperrors.ErrInvalidToken
	}
	if record.StateHash != userStateHash(user) {
		return nil, apperrors.ErrInvalidToken
	}
	if err := security.VerifyCode(record.CodeHash, code); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return record, nil
}

// Consume marks the code used. A concurrent exchange of the same code loses with ErrInvalidToken.
func (s *confirmationService) Consume(ctx context.Context, code *models.ConfirmationCode, at time.Time) error {
	ok, err := s.codes.MarkUsed(ctx, code.ID, at)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrInvalidToken
	}
	return nil
}

func (s *confirmationService) Cleanup(ctx context.Context) (int64, error) {
	return s.codes.DeleteStale(ctx, s.now())
}

// userStateHash binds a code to the user fields whose change must invalidate it.
func userStateHash(user *models.User) string {
	lastLogin := ""
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)
	}
	return security.StateHash(user.ID, user.Username, user.Email, string(user.Role), lastLogin)
}

// StartCodeCleanup periodically deletes expired and used codes until ctx is done.
func StartCodeCleanup(ctx context.Context, svc ConfirmationService, every time.Duration) {
	ticker := time.NewTicker(every)
	zap.L().Debug("Confirmation code cleanup attached", zap.Duration("tick_every", every))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := svc.Cleanup(ctx)
				if err != nil {
					zap.L().Error("Failed to clean up confirmation codes", zap.Error(err))
					continue
				}
				if n > 0 {
					zap.L().Debug("Cleaned up confirmation codes", zap.Int64("deleted", n))
				}
			}
		}
	}()
}
