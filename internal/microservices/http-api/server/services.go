package server

import (
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"gorm.io/gorm"
)

// NewServices wires the gorm repositories into the service layer.
func NewServices(db *gorm.DB, tokens *service.TokenIssuer, confirm service.ConfirmationService, deliverer service.CodeDeliverer) Services {
	users := repository.NewUserRepository(db)
	categories := repository.NewCategoryRepository(db)
	genres := repository.NewGenreRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)
	comments := repository.NewCommentRepository(db)

	return Services{
		Auth:       service.NewAuthService(users, confirm, repository.NewTransactor(db), tokens, deliverer),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(categories),
		Genres:     service.NewGenreService(genres),
		Titles:     service.NewTitleService(titles, categories, genres, reviews),
		Reviews:    service.NewReviewService(reviews, titles),
		Comments:   service.NewCommentService(comments, reviews),
	}
}
