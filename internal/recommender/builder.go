// internal/recommender/builder.go
package recommender

import "subsidy-recommender/internal/models"

// Build shapes the first MaxRecommendations entries of an already sorted
// list. eligibleCount becomes TotalRecommended unchanged.
func Build(scored []models.ScoredSubsidy, eligibleCount int) models.RecommendationResult {
	n := len(scored)
	if n > models.MaxRecommendations {
		n = models.MaxRecommendations
	}

	recs := make([]models.Recommendation, 0, n)
	for i, s := range scored[:n] {
		recs = append(recs, models.Recommendation{
			Rank:           i + 1,
			SubsidyID:      s.ID,
			Title:          s.Title,
			Description:    s.Description,
			Amount:         s.Amount,
			RelevanceScore: s.Score,
			WhyRecommended: s.ScoringReasoning,
			KeyBenefits:    copyOrEmpty(s.KeyBenefits),
			ApplicationDates: models.ApplicationDates{
				Start: dateOrNA(s.ApplicationStartDate),
				End:   dateOrNA(s.ApplicationEndDate),
			},
			DocumentsRequired: copyOrEmpty(s.DocumentsRequired),
		})
	}

	return models.RecommendationResult{
		RecommendedSubsidies: recs,
		TotalRecommended:     eligibleCount,
	}
}

func dateOrNA(d *string) string {
	if d == nil || *d == "" {
		return models.NotAvailable
	}
	return *d
}

func copyOrEmpty(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
