package storage

import (
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("storage: record not found")
	ErrDuplicate = errors.New("storage: duplicate key")
)

const (
	statsCacheKey        = "stats:complaints"
	trackingReservations = "tracking:"
)

// ComplaintFilter narrows ListComplaints. Zero values are ignored.
type ComplaintFilter struct {
	Status     models.Status
	Type       models.ComplaintType
	Category   string
	Priority   models.Priority
	From       *time.Time
	To         *time.Time
	Search     string
	ReporterID string
}

type Storage interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error)
	ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error)
	UpdateComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (*models.Complaint, error)
	ResolveComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (c *models.Complaint, transitioned bool, err error)
	DeleteComplaint(ctx context.Context, trackingID string) error
	ReserveTrackingID(ctx context.Context, trackingID string) (bool, error)

	ListCategories(ctx context.Context, t models.ComplaintType, activeOnly bool) ([]models.Category, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	SaveCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	UpdateUserRole(ctx context.Context, userID string, role models.Role) error

	GetReward(ctx context.Context, userID string) (*models.UserReward, error)
	UpdateReward(ctx context.Context, userID string, apply func(r *models.UserReward)) (*models.UserReward, error)
	ListRewards(ctx context.Context, limit int) ([]models.UserReward, error)

	GetSiteContent(ctx context.Context, sectionKey string) (*models.SiteContent, error)
	ListSiteContent(ctx context.Context) ([]models.SiteContent, error)

	GetCachedStats(ctx context.Context, dest interface{}) (bool, error)
	SetCachedStats(ctx context.Context, stats interface{}) error
	InvalidateStats(ctx context.Context) error
}

type Service struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *zap.Logger
}

// NewStorageService Constructor. rdb may be nil (admin CLI); Redis-backed
// features then fall back to the database or become no-ops.
func NewStorageService(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		DB:     db,
		Redis:  rdb,
		logger: logger,
	}
}

// Migrate creates or updates all tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Complaint{},
		&models.Category{},
		&models.Profile{},
		&models.UserReward{},
		&models.SiteContent{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// CreateComplaint inserts a single complaint row.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		s.logger.Error("Failed to save complaint", zap.String("tracking_id", c.TrackingID), zap.Error(err))
		return translate(err)
	}
	return nil
}

func (s *Service) GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.WithContext(ctx).Where("complaint_id = ?", trackingID).First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListComplaints returns complaints matching f, newest first.
func (s *Service) ListComplaints(ctx context.Context, f ComplaintFilter) ([]models.Complaint, error) {
	q := s.DB.WithContext(ctx).Model(&models.Complaint{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	if f.ReporterID != "" {
		q = q.Where("reporter_id = ?", f.ReporterID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var complaints []models.Complaint
	if err := q.Order("created_at DESC").Find(&complaints).Error; err != nil {
		s.logger.Error("Failed to list complaints", zap.Error(err))
		return nil, err
	}
	return complaints, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// UpdateComplaint applies a partial update and returns the fresh row.
// updated_at is always refreshed.
func (s *Service) UpdateComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (*models.Complaint, error) {
	fields["updated_at"] = time.Now()

	result := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("complaint_id = ?", trackingID).
		Updates(fields)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetComplaint(ctx, trackingID)
}

// ResolveComplaint sets status to resolved along with fields. transitioned is
// true only for the single call that moved the row out of another status, so
// concurrent resolutions see it once.
func (s *Service) ResolveComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (*models.Complaint, bool, error) {
	fields["status"] = models.StatusResolved
	fields["updated_at"] = time.Now()

	result := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("complaint_id = ? AND status <> ?", trackingID, models.StatusResolved).
		Updates(fields)
	if result.Error != nil {
		return nil, false, translate(result.Error)
	}
	if result.RowsAffected == 1 {
		c, err := s.GetComplaint(ctx, trackingID)
		return c, err == nil, err
	}
	// Already resolved, or missing (UpdateComplaint reports ErrNotFound).
	c, err := s.UpdateComplaint(ctx, trackingID, fields)
	return c, false, err
}

func (s *Service) DeleteComplaint(ctx context.Context, trackingID string) error {
	result := s.DB.WithContext(ctx).Where("complaint_id = ?", trackingID).Delete(&models.Complaint{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveTrackingID claims a tracking ID before it is used. It returns false
// when the ID is already taken by a stored complaint or a pending reservation.
func (s *Service) ReserveTrackingID(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Complaint{}).
		Where("complaint_id = ?", trackingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if s.Redis == nil {
		return true, nil
	}
	return s.Redis.SetNX(ctx, trackingReservations+trackingID, "1", config.TrackingIDReservationTTL).Result()
}

// GetCachedStats loads the cached dashboard stats into dest.
func (s *Service) GetCachedStats(ctx context.Context, dest interface{}) (bool, error) {
	if s.Redis == nil {
		return false, nil
	}
	raw, err := s.Redis.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) SetCachedStats(ctx context.Context, stats interface{}) error {
	if s.Redis == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, statsCacheKey, raw, config.StatsCacheTTL).Err()
}

// InvalidateStats drops the cached stats so the next read recomputes them.
func (s *Service) InvalidateStats(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, statsCacheKey).Err()
}
