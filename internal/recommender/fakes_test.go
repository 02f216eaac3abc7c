// internal/recommender/fakes_test.go
package recommender

import (
	"context"
	"sync"

	"subsidy-recommender/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeJudge answers from per-subsidy functions and records every call.
type fakeJudge struct {
	mu sync.Mutex

	eligibility func(models.Subsidy) (models.EligibilityVerdict, error)
	score       func(models.Subsidy) (models.RelevanceScore, error)

	eligibilityCalls []models.ID
	scoreCalls       []models.ID
}

func (f *fakeJudge) CheckEligibility(_ context.Context, _ models.FarmerProfile, s models.Subsidy) (models.EligibilityVerdict, error) {
	f.mu.Lock()
	f.eligibilityCalls = append(f.eligibilityCalls, s.ID)
	f.mu.Unlock()

	if f.eligibility == nil {
		return models.EligibilityVerdict{SubsidyID: s.ID, Eligible: true}, nil
	}
	return f.eligibility(s)
}

func (f *fakeJudge) ScoreRelevance(_ context.Context, _ models.FarmerProfile, s models.Subsidy) (models.RelevanceScore, error) {
	f.mu.Lock()
	f.scoreCalls = append(f.scoreCalls, s.ID)
	f.mu.Unlock()

	if f.score == nil {
		return models.RelevanceScore{Score: 50}, nil
	}
	return f.score(s)
}

func alwaysIneligible(s models.Subsidy) (models.EligibilityVerdict, error) {
	return models.EligibilityVerdict{SubsidyID: s.ID, Eligible: false, Reason: "criteria not met"}, nil
}

func fixedScore(score int) func(models.Subsidy) (models.RelevanceScore, error) {
	return func(models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{Score: score, Reasoning: "fixed", KeyBenefits: []string{"benefit"}}, nil
	}
}

func scoresByID(scores map[models.ID]int) func(models.Subsidy) (models.RelevanceScore, error) {
	return func(s models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{Score: scores[s.ID], Reasoning: "by id " + string(s.ID)}, nil
	}
}

func createTestProfile() models.FarmerProfile {
	return models.FarmerProfile{
		Income:     models.NumberQuantity(50000),
		LandSize:   models.NumberQuantity(3),
		FarmerType: "smallholder",
		CropType:   "wheat",
		State:      "Punjab",
		District:   "Ludhiana",
	}
}

func subsidy(id string, criteria ...string) models.Subsidy {
	return models.Subsidy{
		ID:          models.ID(id),
		Title:       "Subsidy " + id,
		Description: "Support scheme " + id,
		Amount:      10000,
		Eligibility: criteria,
	}
}

func strPtr(s string) *string { return &s }
