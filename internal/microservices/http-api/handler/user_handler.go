package handler

import (
	"net/http"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RequireAuth())

	rg.GET("/me", h.Me)
	rg.PATCH("/me", h.UpdateMe)

	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:username", h.Get)
	rg.PATCH("/:username", h.Update)
	rg.DELETE("/:username", h.Delete)
}

// List handles GET /users?search=
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := h.svc.List(ctx, middleware.ActorFrom(c), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginated(users, total, page, pageSize, dto.FromUser))
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Create(ctx, middleware.ActorFrom(c), req.Input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Get(ctx, middleware.ActorFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Update(ctx, middleware.ActorFrom(c), c.Param("username"), req.Patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.ActorFrom(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.Me(ctx, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

// UpdateMe handles PATCH /users/me. A role in the body is ignored unless the
// caller is an admin.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.svc.UpdateMe(ctx, middleware.ActorFrom(c), req.Patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}
