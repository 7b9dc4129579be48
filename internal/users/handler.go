package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gezy-backend/internal/shared/server/middleware"
	"gezy-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me", h.update)
}

type updateRequest struct {
	FullName *string `json:"fullName"`
	Address  *string `json:"address"`
	Tier     *Tier   `json:"tier"`
}

func (h *Handler) me(c *gin.Context) {
	user, ok := h.ensure(c)
	if !ok {
		return
	}
	respond.JSON(c, http.StatusOK, user)
}

func (h *Handler) update(c *gin.Context) {
	if _, ok := h.ensure(c); !ok {
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), ProfileUpdate{
		FullName: req.FullName,
		Address:  req.Address,
		Tier:     req.Tier,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		return
	}
	respond.JSON(c, http.StatusOK, user)
}

// ensure rejects guests and returns the caller's stored profile, creating it on first use.
func (h *Handler) ensure(c *gin.Context) (User, bool) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return User{}, false
	}
	id := middleware.IdentityFromContext(c)
	if id.Guest {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return User{}, false
	}
	user, err := h.Svc.Ensure(c.Request.Context(), id.UserID, id.Email, id.Name)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return User{}, false
	}
	return user, true
}
