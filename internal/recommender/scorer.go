// internal/recommender/scorer.go
package recommender

import (
	"context"
	"sort"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/models"
)

// RelevanceScorer rates each eligible subsidy against the farmer profile.
// Unlike the eligibility stage it does not recover: the first failed call
// aborts scoring and its error is returned unchanged.
type RelevanceScorer struct {
	judge  JudgmentService
	logger logger.Logger
}

func NewRelevanceScorer(judge JudgmentService, log logger.Logger) *RelevanceScorer {
	return &RelevanceScorer{
		judge:  judge,
		logger: log.WithFields(map[string]interface{}{"component": "relevance-scorer"}),
	}
}

// Score returns the subsidies sorted by score, highest first. Equal scores
// keep their input order.
func (s *RelevanceScorer) Score(ctx context.Context, profile models.FarmerProfile, eligible []models.Subsidy) ([]models.ScoredSubsidy, error) {
	start := time.Now()
	scored := make([]models.ScoredSubsidy, 0, len(eligible))

	for _, subsidy := range eligible {
		res, err := s.judge.ScoreRelevance(ctx, profile, subsidy)
		if err != nil {
			metrics.JudgmentCalls.WithLabelValues(OperationScoring, "error").Inc()
			s.logger.Error("relevance scoring failed", map[string]interface{}{
				"subsidyId":   subsidy.ID,
				"scoredSoFar": len(scored),
				"error":       err,
			})
			return nil, err
		}
		metrics.JudgmentCalls.WithLabelValues(OperationScoring, "ok").Inc()

		benefits := res.KeyBenefits
		if benefits == nil {
			benefits = []string{}
		}

		scored = append(scored, models.ScoredSubsidy{
			Subsidy:          subsidy,
			Score:            res.Score,
			ScoringReasoning: res.Reasoning,
			KeyBenefits:      benefits,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	s.logger.Info("relevance scoring completed", map[string]interface{}{
		"scoredCount": len(scored),
		"durationMs":  time.Since(start).Milliseconds(),
	})

	return scored, nil
}
