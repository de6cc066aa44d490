// Package testutil holds testify mocks of the service interfaces, shared by
// the package tests.
package testutil

import (
	"context"
	"io"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComplaint(ctx context.Context, trackingID string) (*models.Complaint, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) ListComplaints(ctx context.Context, f storage.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) UpdateComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (*models.Complaint, error) {
	args := m.Called(ctx, trackingID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) ResolveComplaint(ctx context.Context, trackingID string, fields map[string]interface{}) (*models.Complaint, bool, error) {
	args := m.Called(ctx, trackingID, fields)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Complaint), args.Bool(1), args.Error(2)
}

func (m *MockStorage) DeleteComplaint(ctx context.Context, trackingID string) error {
	args := m.Called(ctx, trackingID)
	return args.Error(0)
}

func (m *MockStorage) ReserveTrackingID(ctx context.Context, trackingID string) (bool, error) {
	args := m.Called(ctx, trackingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ListCategories(ctx context.Context, t models.ComplaintType, activeOnly bool) ([]models.Category, error) {
	args := m.Called(ctx, t, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockStorage) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStorage) SaveCategory(ctx context.Context, c *models.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) DeleteCategory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) CreateProfile(ctx context.Context, p *models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStorage) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockStorage) UpdateUserRole(ctx context.Context, userID string, role models.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockStorage) GetReward(ctx context.Context, userID string) (*models.UserReward, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserReward), args.Error(1)
}

// UpdateReward applies the callback to the *models.UserReward given as the
// first Return value, mimicking the transactional read-modify-write.
func (m *MockStorage) UpdateReward(ctx context.Context, userID string, apply func(r *models.UserReward)) (*models.UserReward, error) {
	args := m.Called(ctx, userID, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	r := args.Get(0).(*models.UserReward)
	if args.Error(1) == nil {
		apply(r)
	}
	return r, args.Error(1)
}

func (m *MockStorage) ListRewards(ctx context.Context, limit int) ([]models.UserReward, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserReward), args.Error(1)
}

func (m *MockStorage) GetSiteContent(ctx context.Context, sectionKey string) (*models.SiteContent, error) {
	args := m.Called(ctx, sectionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SiteContent), args.Error(1)
}

func (m *MockStorage) ListSiteContent(ctx context.Context) ([]models.SiteContent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SiteContent), args.Error(1)
}

func (m *MockStorage) GetCachedStats(ctx context.Context, dest interface{}) (bool, error) {
	args := m.Called(ctx, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SetCachedStats(ctx context.Context, stats interface{}) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStorage) InvalidateStats(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req analysis.Request) (*analysis.Analysis, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Analysis), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, path, contentType, r)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e models.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ComplaintSubmitted(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockNotifier) StatusChanged(ctx context.Context, c *models.Complaint, from models.Status) error {
	args := m.Called(ctx, c, from)
	return args.Error(0)
}
