// Package report aggregates complaints for dashboards and exports.
package report

import (
	"context"
	"math"
	"time"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/storage"

	"go.uber.org/zap"
)

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Stats is the dashboard summary over every stored complaint.
type Stats struct {
	Total              int            `json:"total_complaints"`
	Pending            int            `json:"pending_complaints"`
	Investigating      int            `json:"investigating_complaints"`
	InProgress         int            `json:"in_progress_complaints"`
	Resolved           int            `json:"resolved_complaints"`
	Rejected           int            `json:"rejected_complaints"`
	ByCategory         map[string]int `json:"category_breakdown"`
	ByType             map[string]int `json:"type_breakdown"`
	ByPriority         map[string]int `json:"priority_breakdown"`
	MonthlyTrend       []MonthCount   `json:"monthly_trend"`
	ResolutionRate     int            `json:"resolution_rate"`
	AverageCredibility float64        `json:"average_credibility"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// PublicStats is the subset shown on the landing page.
type PublicStats struct {
	Total          int `json:"total_complaints"`
	Resolved       int `json:"resolved_complaints"`
	ResolutionRate int `json:"resolution_rate"`
}

// Summarize computes Stats. The trend covers the calendar month of now and
// the preceding months, oldest first, in now's location.
func Summarize(complaints []models.Complaint, now time.Time) *Stats {
	s := &Stats{
		Total:      len(complaints),
		ByCategory: map[string]int{},
		ByType: map[string]int{
			string(models.TypeCivic):     0,
			string(models.TypeAnonymous): 0,
			string(models.TypeSpecial):   0,
		},
		ByPriority: map[string]int{
			string(models.PriorityLow):      0,
			string(models.PriorityMedium):   0,
			string(models.PriorityHigh):     0,
			string(models.PriorityCritical): 0,
		},
		GeneratedAt: now,
	}

	start := time.Date(now.Year(), now.Month()-time.Month(config.TrendMonths-1), 1, 0, 0, 0, 0, now.Location())
	s.MonthlyTrend = make([]MonthCount, config.TrendMonths)
	for i := range s.MonthlyTrend {
		s.MonthlyTrend[i].Month = start.AddDate(0, i, 0).Format("Jan")
	}

	credibility := 0
	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusInvestigating:
			s.Investigating++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusResolved:
			s.Resolved++
		case models.StatusRejected:
			s.Rejected++
		}
		s.ByCategory[c.Category]++
		s.ByType[string(c.Type)]++
		s.ByPriority[string(c.Priority)]++
		credibility += c.CredibilityScore

		created := c.CreatedAt.In(now.Location())
		if !created.Before(start) {
			idx := (created.Year()-start.Year())*12 + int(created.Month()-start.Month())
			if idx < len(s.MonthlyTrend) {
				s.MonthlyTrend[idx].Count++
			}
		}
	}
	if s.Total > 0 {
		s.ResolutionRate = int(math.Round(float64(s.Resolved) / float64(s.Total) * 100))
		s.AverageCredibility = math.Round(float64(credibility)/float64(s.Total)*10) / 10
	}
	return s
}

// StatsService serves Stats from the cache, recomputing on a miss.
// Writers invalidate the cache after every mutation.
type StatsService struct {
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

func NewStatsService(s storage.Storage, logger *zap.Logger) *StatsService {
	return &StatsService{storage: s, logger: logger, now: time.Now}
}

func (s *StatsService) Dashboard(ctx context.Context, actor auth.Principal) (*Stats, error) {
	if err := auth.Require(actor.Role, auth.PermViewStats); err != nil {
		return nil, err
	}
	return s.load(ctx)
}

func (s *StatsService) Public(ctx context.Context) (*PublicStats, error) {
	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return &PublicStats{Total: st.Total, Resolved: st.Resolved, ResolutionRate: st.ResolutionRate}, nil
}

func (s *StatsService) load(ctx context.Context) (*Stats, error) {
	var cached Stats
	hit, err := s.storage.GetCachedStats(ctx, &cached)
	if err != nil {
		s.logger.Warn("Stats cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	complaints, err := s.storage.ListComplaints(ctx, storage.ComplaintFilter{})
	if err != nil {
		return nil, err
	}
	st := Summarize(complaints, s.now())
	if err := s.storage.SetCachedStats(ctx, st); err != nil {
		s.logger.Warn("Stats cache write failed", zap.Error(err))
	}
	return st, nil
}
