package dto

import "yamdb/internal/microservices/http-api/models"

// GenreRequest for creating a genre
type GenreRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

type GenreResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func FromGenre(g *models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}
