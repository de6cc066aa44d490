// Package rewards keeps the citizen points ledger: points, level and badges.
package rewards

import (
	"context"
	"errors"

	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/storage"

	"go.uber.org/zap"
)

const (
	BadgeFirstReport    = "First Report"
	BadgeReporter       = "Reporter"
	BadgeHelpfulCitizen = "Helpful Citizen"
	BadgeProblemSolver  = "Problem Solver"
	BadgeChampion       = "Champion"
)

// LevelFor returns the highest level whose threshold points reaches.
func LevelFor(points int) string {
	level := config.RewardLevels[0].Name
	for _, l := range config.RewardLevels {
		if points >= l.MinPoints {
			level = l.Name
		}
	}
	return level
}

// BadgesFor lists the badges earned by a ledger row, in a fixed order.
func BadgesFor(r *models.UserReward) []string {
	var badges []string
	if r.ComplaintsSubmitted >= 1 {
		badges = append(badges, BadgeFirstReport)
	}
	if r.ComplaintsSubmitted >= 10 {
		badges = append(badges, BadgeReporter)
	}
	if r.ComplaintsResolved >= 5 {
		badges = append(badges, BadgeHelpfulCitizen)
	}
	if r.ComplaintsResolved >= 10 {
		badges = append(badges, BadgeProblemSolver)
	}
	if r.Points >= 500 {
		badges = append(badges, BadgeChampion)
	}
	return badges
}

func refresh(r *models.UserReward) {
	r.Level = LevelFor(r.Points)
	r.Badges = BadgesFor(r)
}

type Ledger struct {
	storage storage.Storage
	logger  *zap.Logger
}

func NewLedger(s storage.Storage, logger *zap.Logger) *Ledger {
	return &Ledger{storage: s, logger: logger}
}

// CreditSubmission records a complaint filed by a signed-in reporter.
func (l *Ledger) CreditSubmission(ctx context.Context, userID string) (*models.UserReward, error) {
	return l.storage.UpdateReward(ctx, userID, func(r *models.UserReward) {
		r.Points += config.SubmissionRewardPoints
		r.ComplaintsSubmitted++
		refresh(r)
	})
}

// CreditResolution records that one of the user's complaints was resolved.
func (l *Ledger) CreditResolution(ctx context.Context, userID string) (*models.UserReward, error) {
	reward, err := l.storage.UpdateReward(ctx, userID, func(r *models.UserReward) {
		r.Points += config.ResolutionRewardPoints
		r.ComplaintsResolved++
		refresh(r)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("Resolution reward credited",
		zap.String("user_id", userID),
		zap.Int("points", reward.Points),
		zap.String("level", reward.Level))
	return reward, nil
}

// Get returns the user's ledger, or an empty Newcomer ledger if none exists yet.
func (l *Ledger) Get(ctx context.Context, userID string) (*models.UserReward, error) {
	r, err := l.storage.GetReward(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.UserReward{UserID: userID, Level: LevelFor(0), Badges: []string{}}, nil
	}
	return r, err
}

// Leaderboard returns the top ledgers by points.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]models.UserReward, error) {
	if limit <= 0 || limit > config.LeaderboardLength {
		limit = config.LeaderboardLength
	}
	return l.storage.ListRewards(ctx, limit)
}
