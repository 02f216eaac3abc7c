// internal/recommender/judgment.go
package recommender

import (
	"context"

	"subsidy-recommender/internal/models"
)

// JudgmentService answers the two natural-language questions the pipeline
// delegates: does a farmer qualify for a subsidy, and how relevant is it.
// Implementations must be safe for concurrent use.
type JudgmentService interface {
	CheckEligibility(ctx context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.EligibilityVerdict, error)
	ScoreRelevance(ctx context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.RelevanceScore, error)
}

// Judgment operations, used as metric labels.
const (
	OperationEligibility = "eligibility"
	OperationScoring     = "scoring"
)
