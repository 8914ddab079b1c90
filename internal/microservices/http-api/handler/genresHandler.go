package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type GenreHandler struct {
	svc service.GenreService
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{svc: svc}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /genres?search=
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.svc.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(list, total, page, pageSize, dto.FromGenre))
}

func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.GenreRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	genre, err := h.svc.Create(ctx, middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromGenre(genre))
}

func (h *GenreHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.ActorFrom(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
