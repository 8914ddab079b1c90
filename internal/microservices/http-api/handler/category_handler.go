package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /categories?search=
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.svc.List(ctx, c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(list, total, page, pageSize, dto.FromCategory))
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	category, err := h.svc.Create(ctx, middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromCategory(category))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.ActorFrom(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
