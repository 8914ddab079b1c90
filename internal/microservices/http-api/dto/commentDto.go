package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
)

// CommentRequest for creating or updating a comment
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func FromComment(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		PubDate: c.PubDate,
	}
}
