package dto

import "yamdb/internal/microservices/http-api/service"

// TitleRequest for creating a title. Category and genres are given by slug.
type TitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        *int     `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

func (r TitleRequest) Input() service.TitleInput {
	return service.TitleInput{
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Category:    r.Category,
		Genres:      r.Genre,
	}
}

// UpdateTitleRequest for partially updating a title
type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func (r UpdateTitleRequest) Patch() service.TitlePatch {
	return service.TitlePatch{
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Category:    r.Category,
		Genres:      r.Genre,
	}
}

// TitleResponse includes the rating computed from the title's reviews
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description string            `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

func FromTitle(t *service.RatedTitle) TitleResponse {
	genres := make([]GenreResponse, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, FromGenre(&t.Genres[i]))
	}
	var category *CategoryResponse
	if t.Category != nil {
		c := FromCategory(t.Category)
		category = &c
	}
	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
