// Package analysis talks to the AI text-analysis service that scores a
// complaint's credibility and urgency, and turns the scores into a priority.
package analysis

import (
	"context"
	"errors"
	"math"

	"civiceye/backend/internal/models"
)

var (
	// ErrRateLimited means the service answered 429; callers should try later.
	ErrRateLimited = errors.New("analysis: rate limited")
	// ErrQuotaExhausted means the service answered 402.
	ErrQuotaExhausted = errors.New("analysis: quota exhausted")
	// ErrMalformedResponse means the service answered without a usable analysis.
	ErrMalformedResponse = errors.New("analysis: malformed response")
)

// Request is the text submitted for analysis.
type Request struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Type        models.ComplaintType `json:"type"`
}

// Analysis is the structured result returned by the service.
type Analysis struct {
	Sentiment           models.Sentiment `json:"sentiment"`
	FakeProbability     float64          `json:"fakeProbability"`
	CredibilityScore    float64          `json:"credibilityScore"`
	Keywords            []string         `json:"keywords"`
	SuggestedDepartment string           `json:"suggestedDepartment"`
	UrgencyScore        float64          `json:"urgencyScore"`
	Summary             string           `json:"summary"`
}

// Analyzer scores a complaint. Implementations make exactly one attempt.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Analysis, error)
}

const maxKeywords = 5

// Clamp forces every numeric score into its documented range and trims the
// keyword list. It is applied even when the service already clamps.
func (a *Analysis) Clamp() {
	a.FakeProbability = clamp(a.FakeProbability, 0, 100)
	a.CredibilityScore = clamp(a.CredibilityScore, 0, 100)
	a.UrgencyScore = clamp(a.UrgencyScore, 1, 10)
	if len(a.Keywords) > maxKeywords {
		a.Keywords = a.Keywords[:maxKeywords]
	}
	switch a.Sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		a.Sentiment = models.SentimentNeutral
	}
}

// Credibility returns the credibility score as a whole number.
func (a *Analysis) Credibility() int {
	return int(math.Round(a.CredibilityScore))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// DerivePriority maps an urgency score (1-10) onto a priority band.
// Each band is inclusive at its lower bound.
func DerivePriority(urgency float64) models.Priority {
	switch {
	case urgency >= 8:
		return models.PriorityCritical
	case urgency >= 6:
		return models.PriorityHigh
	case urgency >= 4:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}
