package handler

import (
	"errors"
	"net/http"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/complaint"
	"civiceye/backend/internal/hub"
	"civiceye/backend/internal/report"
	"civiceye/backend/internal/rewards"
	"civiceye/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	Complaints *complaint.Service
	Stats      *report.StatsService
	Ledger     *rewards.Ledger
	Accounts   *auth.Accounts
	Storage    storage.Storage
	Publisher  complaint.Publisher
	Hub        *hub.ManagerService
	Logger     *zap.Logger
	// AllowedOrigins is passed to the WebSocket origin check.
	AllowedOrigins []string
}

// RegisterRoutes mounts every route on r.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.RequestLogger(), h.Authenticate())

	r.GET("/health", h.Health)
	r.GET("/ws", h.ServeWebSocket)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register-admin", h.RegisterAdmin)
	}

	api := r.Group("/api")
	{
		api.POST("/complaints", h.SubmitComplaint)
		api.GET("/complaints/track/:trackingId", h.TrackComplaint)
		api.GET("/categories", h.ListCategories)
		api.GET("/site-content", h.ListSiteContent)
		api.GET("/site-content/:key", h.GetSiteContent)
		api.POST("/analyze", h.AnalyzePreview)
		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/stats", h.PublicStats)
	}

	me := api.Group("/me", h.RequireAuth())
	{
		me.GET("/complaints", h.MyComplaints)
		me.GET("/rewards", h.MyRewards)
	}

	admin := api.Group("/admin", h.RequireAuth())
	{
		admin.GET("/complaints", h.AdminListComplaints)
		admin.GET("/complaints/:trackingId", h.AdminGetComplaint)
		admin.PATCH("/complaints/:trackingId/status", h.UpdateStatus)
		admin.PATCH("/complaints/:trackingId/assign", h.AssignComplaint)
		admin.DELETE("/complaints/:trackingId", h.DeleteComplaint)
		admin.GET("/stats", h.DashboardStats)
		admin.GET("/export.csv", h.ExportCSV)

		admin.GET("/categories", h.AdminListCategories)
		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PATCH("/users/:id/role", h.SetUserRole)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *complaint.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrForbidden), errors.Is(err, auth.ErrInvalidRegistrationKey):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, storage.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, analysis.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": complaint.WarningAIBusy})
	case errors.Is(err, analysis.ErrQuotaExhausted):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "AI credits exhausted"})
	case errors.Is(err, complaint.ErrPersistence):
		h.Logger.Error("Complaint persistence failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit complaint. Please try again."})
	default:
		h.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
