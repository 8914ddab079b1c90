package repository

import (
	"context"
	"fmt"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error)
	List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Query methods return nil and the error when nothing matches, never a zero-value user.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("username = ? AND email = ?", username, email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by username and email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	q := conn(ctx, r.db).Model(&models.User{})
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}

	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := q.Order("username asc").Scopes(paginate(page, pageSize)).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := conn(ctx, r.db).Model(&models.User{ID: user.ID}).Updates(map[string]interface{}{
		"username":     user.Username,
		"email":        user.Email,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"bio":          user.Bio,
		"role":         user.Role,
		"is_superuser": user.IsSuperuser,
	}).Error
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Update("last_login", at)
	if res.Error != nil {
		return fmt.Errorf("update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update last login: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete user: %w", gorm.ErrRecordNotFound)
	}
	return nil
}
