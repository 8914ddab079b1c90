package dto

import "yamdb/internal/microservices/http-api/models"

// CategoryRequest for creating a category
type CategoryRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type CategoryResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromCategory(c *models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}
