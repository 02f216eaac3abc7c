// internal/models/recommendation.go
package models

// NotAvailable is printed for application dates the catalog does not carry.
const NotAvailable = "N/A"

// MaxRecommendations caps the shortlist returned to the caller.
const MaxRecommendations = 5

type ApplicationDates struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Recommendation struct {
	Rank              int              `json:"rank"`
	SubsidyID         ID               `json:"subsidy_id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Amount            Decimal          `json:"amount"`
	RelevanceScore    int              `json:"relevance_score"`
	WhyRecommended    string           `json:"why_recommended"`
	KeyBenefits       []string         `json:"key_benefits"`
	ApplicationDates  ApplicationDates `json:"application_dates"`
	DocumentsRequired []string         `json:"documents_required"`
}

// RecommendationResult is the pipeline output. TotalRecommended counts every
// eligible subsidy, not only the ones in RecommendedSubsidies.
type RecommendationResult struct {
	RecommendedSubsidies []Recommendation `json:"recommended_subsidies"`
	TotalRecommended     int              `json:"total_recommended"`
}
