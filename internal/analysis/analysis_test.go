package analysis_test

import (
	"math"
	"testing"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDerivePriority_Partition(t *testing.T) {
	want := map[int]models.Priority{
		1: models.PriorityLow, 2: models.PriorityLow, 3: models.PriorityLow,
		4: models.PriorityMedium, 5: models.PriorityMedium,
		6: models.PriorityHigh, 7: models.PriorityHigh,
		8: models.PriorityCritical, 9: models.PriorityCritical, 10: models.PriorityCritical,
	}
	for score := 1; score <= 10; score++ {
		assert.Equal(t, want[score], analysis.DerivePriority(float64(score)), "urgency %d", score)
	}
}

func TestDerivePriority_FractionalBoundaries(t *testing.T) {
	assert.Equal(t, models.PriorityLow, analysis.DerivePriority(3.99))
	assert.Equal(t, models.PriorityMedium, analysis.DerivePriority(5.5))
	assert.Equal(t, models.PriorityHigh, analysis.DerivePriority(7.9))
	assert.Equal(t, models.PriorityCritical, analysis.DerivePriority(8))
}

func TestClamp(t *testing.T) {
	a := &analysis.Analysis{
		Sentiment:        "furious",
		FakeProbability:  140,
		CredibilityScore: -12,
		UrgencyScore:     0,
		Keywords:         []string{"a", "b", "c", "d", "e", "f", "g"},
	}

	a.Clamp()

	assert.Equal(t, 100.0, a.FakeProbability)
	assert.Equal(t, 0.0, a.CredibilityScore)
	assert.Equal(t, 1.0, a.UrgencyScore)
	assert.Len(t, a.Keywords, 5)
	assert.Equal(t, models.SentimentNeutral, a.Sentiment)
}

func TestClamp_NaN(t *testing.T) {
	a := &analysis.Analysis{Sentiment: models.SentimentNegative, UrgencyScore: math.NaN(), CredibilityScore: 55}
	a.Clamp()
	assert.Equal(t, 1.0, a.UrgencyScore)
	assert.Equal(t, 55.0, a.CredibilityScore)
	assert.Equal(t, models.SentimentNegative, a.Sentiment)
}

func TestCredibility_Rounds(t *testing.T) {
	assert.Equal(t, 83, (&analysis.Analysis{CredibilityScore: 82.5}).Credibility())
	assert.Equal(t, 82, (&analysis.Analysis{CredibilityScore: 82.4}).Credibility())
}
