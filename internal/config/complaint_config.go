package config

import "time"

const (
	// Credibility
	DefaultCredibilityScore = 70

	// Evidence
	MaxEvidenceFiles    = 5
	MaxEvidenceFileSize = 10 << 20 // 10 MiB

	// Tracking identifiers
	TrackingIDLength         = 6
	AnonymousIDPrefix        = "ANON-"
	CivicIDPrefix            = "CIV-"
	TrackingIDAttempts       = 5
	TrackingIDReservationTTL = 24 * time.Hour

	// Rewards
	SubmissionRewardPoints = 10
	ResolutionRewardPoints = 50

	// Stats
	StatsCacheTTL     = 5 * time.Minute
	TrendMonths       = 6
	LeaderboardLength = 50

	// Operator notifications, including retries
	NotificationTimeout = 10 * time.Second
)

// AllowedEvidenceTypes lists the MIME types accepted as complaint evidence.
var AllowedEvidenceTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// RewardLevels maps level names to the minimum points needed, in ascending order.
var RewardLevels = []struct {
	Name      string
	MinPoints int
}{
	{"Newcomer", 0},
	{"Contributor", 100},
	{"Active Citizen", 200},
	{"Champion", 500},
}
