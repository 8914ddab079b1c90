package handler

import (
	"net/http"
	"strconv"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	svc service.TitleService
}

func NewTitleHandler(svc service.TitleService) *TitleHandler {
	return &TitleHandler{svc: svc}
}

func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:title_id", h.Get)
	rg.PATCH("/:title_id", h.Update)
	rg.DELETE("/:title_id", h.Delete)
}

// List handles GET /titles?category=&genre=&name=&year=
func (h *TitleHandler) List(c *gin.Context) {
	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"year": []string{"Enter a whole number."}})
			return
		}
		filter.Year = &year
	}

	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.svc.List(ctx, filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(list, total, page, pageSize, dto.FromTitle))
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "title_id", "title")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	title, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitle(title))
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.TitleRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	title, err := h.svc.Create(ctx, middleware.ActorFrom(c), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromTitle(title))
}

func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "title_id", "title")
	if !ok {
		return
	}
	var req dto.UpdateTitleRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	title, err := h.svc.Update(ctx, middleware.ActorFrom(c), id, req.Patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTitle(title))
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "title_id", "title")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
