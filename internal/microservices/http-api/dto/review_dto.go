package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
)

// ReviewRequest for posting a review
type ReviewRequest struct {
	Text  string `json:"text" binding:"required"`
	Score *int   `json:"score" binding:"required,min=1,max=10"`
}

func (r ReviewRequest) Input() service.ReviewInput {
	return service.ReviewInput{Text: r.Text, Score: r.Score}
}

// UpdateReviewRequest for partially updating a review
type UpdateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" binding:"omitempty,min=1,max=10"`
}

func (r UpdateReviewRequest) Patch() service.ReviewPatch {
	return service.ReviewPatch{Text: r.Text, Score: r.Score}
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func FromReview(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}
