package handler

import (
	"net/http"
	"strings"
	"time"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListCategories returns active categories, optionally of one type.
func (h *Handler) ListCategories(c *gin.Context) {
	t := models.ComplaintType(c.Query("type"))
	if t != "" && !t.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}
	list, err := h.Storage.ListCategories(c.Request.Context(), t, true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// AdminListCategories includes inactive categories.
func (h *Handler) AdminListCategories(c *gin.Context) {
	if !h.allow(c, auth.PermManageCategories) {
		return
	}
	list, err := h.Storage.ListCategories(c.Request.Context(), models.ComplaintType(c.Query("type")), false)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type categoryRequest struct {
	Name         string               `json:"name" binding:"required"`
	Icon         string               `json:"icon"`
	Type         models.ComplaintType `json:"type" binding:"required"`
	Slug         string               `json:"slug" binding:"required"`
	Description  string               `json:"description"`
	IsActive     *bool                `json:"is_active"`
	DisplayOrder int                  `json:"display_order"`
}

func (r categoryRequest) toModel() models.Category {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return models.Category{
		Name:         strings.TrimSpace(r.Name),
		Icon:         r.Icon,
		Type:         r.Type,
		Slug:         strings.ToLower(strings.TrimSpace(r.Slug)),
		Description:  r.Description,
		IsActive:     active,
		DisplayOrder: r.DisplayOrder,
	}
}

func (h *Handler) bindCategory(c *gin.Context) (models.Category, bool) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, slug and a valid type are required"})
		return models.Category{}, false
	}
	return req.toModel(), true
}

func (h *Handler) CreateCategory(c *gin.Context) {
	if !h.allow(c, auth.PermManageCategories) {
		return
	}
	cat, ok := h.bindCategory(c)
	if !ok {
		return
	}
	if err := h.Storage.SaveCategory(c.Request.Context(), &cat); err != nil {
		h.respondError(c, err)
		return
	}
	h.categoryChanged(c)
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	if !h.allow(c, auth.PermManageCategories) {
		return
	}
	cat, ok := h.bindCategory(c)
	if !ok {
		return
	}
	cat.ID = c.Param("id")
	if err := h.Storage.SaveCategory(c.Request.Context(), &cat); err != nil {
		h.respondError(c, err)
		return
	}
	h.categoryChanged(c)
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	if !h.allow(c, auth.PermManageCategories) {
		return
	}
	if err := h.Storage.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	h.categoryChanged(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) categoryChanged(c *gin.Context) {
	e := models.Event{Type: models.EventCategoryChanged, At: time.Now().UTC()}
	if err := h.Publisher.Publish(c.Request.Context(), e); err != nil {
		h.Logger.Warn("Failed to publish event", zap.String("type", string(e.Type)), zap.Error(err))
	}
}

// allow writes 403 and returns false unless the caller holds perm.
func (h *Handler) allow(c *gin.Context, perm auth.Permission) bool {
	p, _ := principal(c)
	if err := auth.Require(p.Role, perm); err != nil {
		h.respondError(c, err)
		return false
	}
	return true
}
