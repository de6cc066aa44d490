package handler

import (
	"net/http"
	"strconv"

	"civiceye/backend/internal/config"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetSiteContent(c *gin.Context) {
	content, err := h.Storage.GetSiteContent(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *Handler) ListSiteContent(c *gin.Context) {
	content, err := h.Storage.ListSiteContent(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(config.LeaderboardLength)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
		return
	}
	board, err := h.Ledger.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) MyRewards(c *gin.Context) {
	p, _ := principal(c)
	r, err := h.Ledger.Get(c.Request.Context(), p.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) PublicStats(c *gin.Context) {
	s, err := h.Stats.Public(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DashboardStats(c *gin.Context) {
	p, _ := principal(c)
	s, err := h.Stats.Dashboard(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
