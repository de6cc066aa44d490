package storage

import (
	"civiceye/backend/internal/models"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListCategories returns categories ordered for display. An empty t lists every type.
func (s *Service) ListCategories(ctx context.Context, t models.ComplaintType, activeOnly bool) ([]models.Category, error) {
	q := s.DB.WithContext(ctx).Model(&models.Category{})
	if t != "" {
		q = q.Where("type = ?", t)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var categories []models.Category
	if err := q.Order("display_order ASC").Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.DB.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// SaveCategory inserts a category without an ID, or overwrites one with an ID.
// Inserts select every column so an explicit IsActive=false survives the
// column default.
func (s *Service) SaveCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		return translate(s.DB.WithContext(ctx).Select("*").Create(c).Error)
	}
	return translate(s.DB.WithContext(ctx).Save(c).Error)
}

// DeleteCategory removes a category. Complaints referencing its slug are kept.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	result := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateProfile(ctx context.Context, p *models.Profile) error {
	return translate(s.DB.WithContext(ctx).Create(p).Error)
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Service) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// ListUsers returns every profile with the number of complaints it filed.
func (s *Service) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Select("profiles.*, COUNT(complaints.id) AS complaints_count").
		Joins("LEFT JOIN complaints ON complaints.reporter_id = profiles.id").
		Group("profiles.id").
		Order("profiles.created_at DESC").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) UpdateUserRole(ctx context.Context, userID string, role models.Role) error {
	result := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) GetReward(ctx context.Context, userID string) (*models.UserReward, error) {
	var r models.UserReward
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// UpdateReward loads (or starts) the user's ledger row under a row lock,
// applies the change and saves it in one transaction.
func (s *Service) UpdateReward(ctx context.Context, userID string, apply func(r *models.UserReward)) (*models.UserReward, error) {
	var reward models.UserReward
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&reward).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			reward = models.UserReward{UserID: userID, Level: "Newcomer"}
		} else if err != nil {
			return err
		}

		apply(&reward)
		return tx.Save(&reward).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &reward, nil
}

// ListRewards returns the ledger ordered by points, highest first.
func (s *Service) ListRewards(ctx context.Context, limit int) ([]models.UserReward, error) {
	var rewards []models.UserReward
	if err := s.DB.WithContext(ctx).Order("points DESC").Limit(limit).Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (s *Service) GetSiteContent(ctx context.Context, sectionKey string) (*models.SiteContent, error) {
	var c models.SiteContent
	err := s.DB.WithContext(ctx).
		Where("section_key = ? AND is_active = ?", sectionKey, true).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Service) ListSiteContent(ctx context.Context) ([]models.SiteContent, error) {
	var content []models.SiteContent
	if err := s.DB.WithContext(ctx).Where("is_active = ?", true).Find(&content).Error; err != nil {
		return nil, err
	}
	return content, nil
}
