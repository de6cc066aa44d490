package handler

import (
	"net/http"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Register(c *gin.Context) {
	var reg auth.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and a password of at least 6 characters are required"})
		return
	}
	s, err := h.Accounts.Register(c.Request.Context(), reg)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	s, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type adminRegistration struct {
	auth.Registration
	RegistrationKey string `json:"registration_key" binding:"required"`
}

// RegisterAdmin creates an admin account for holders of the registration key.
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req adminRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and registration_key are required"})
		return
	}
	s, err := h.Accounts.RegisterAdmin(c.Request.Context(), req.Registration, req.RegistrationKey)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

type createUserRequest struct {
	auth.Registration
	Role models.Role `json:"role" binding:"required"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and role are required"})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	p, _ := principal(c)
	profile, err := h.Accounts.CreateUser(c.Request.Context(), p, req.Registration, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (h *Handler) ListUsers(c *gin.Context) {
	p, _ := principal(c)
	users, err := h.Accounts.ListUsers(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

func (h *Handler) SetUserRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be citizen, authority or admin"})
		return
	}
	p, _ := principal(c)
	if err := h.Accounts.SetRole(c.Request.Context(), p, c.Param("id"), req.Role); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "role": req.Role})
}
