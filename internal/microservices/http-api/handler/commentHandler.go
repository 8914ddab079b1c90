package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// RegisterRoutes expects rg to be mounted at /titles/:title_id/reviews/:review_id/comments.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:comment_id", h.Get)
	rg.PATCH("/:comment_id", h.Update)
	rg.DELETE("/:comment_id", h.Delete)
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	comments, total, err := h.commentService.List(ctx, titleID, reviewID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(comments, total, page, pageSize, dto.FromComment))
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "comment_id", "comment")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.commentService.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromComment(comment))
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.commentService.Create(ctx, middleware.ActorFrom(c), titleID, reviewID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromComment(comment))
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "comment_id", "comment")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	comment, err := h.commentService.Update(ctx, middleware.ActorFrom(c), titleID, reviewID, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromComment(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	commentID, ok := idParam(c, "comment_id", "comment")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.commentService.Delete(ctx, middleware.ActorFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
