package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// RegisterRoutes expects rg to be mounted at /titles/:title_id/reviews.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:review_id", h.Get)
	rg.PATCH("/:review_id", h.Update)
	rg.DELETE("/:review_id", h.Delete)
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := idParam(c, "title_id", "title")
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	reviews, total, err := h.svc.List(ctx, titleID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(reviews, total, page, pageSize, dto.FromReview))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	review, err := h.svc.Get(ctx, titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReview(review))
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := idParam(c, "title_id", "title")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	review, err := h.svc.Create(ctx, middleware.ActorFrom(c), titleID, req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromReview(review))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	var req dto.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	review, err := h.svc.Update(ctx, middleware.ActorFrom(c), titleID, reviewID, req.Patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReview(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.ActorFrom(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewParams(c *gin.Context) (int64, int64, bool) {
	titleID, ok := idParam(c, "title_id", "title")
	if !ok {
		return 0, 0, false
	}
	reviewID, ok := idParam(c, "review_id", "review")
	if !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}
