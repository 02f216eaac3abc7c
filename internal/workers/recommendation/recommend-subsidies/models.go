// internal/workers/recommendation/recommend-subsidies/models.go
package recommendsubsidies

import "subsidy-recommender/internal/models"

// Input is the job variable payload. Subsidies is optional; when absent the
// service loads the catalog itself.
type Input struct {
	FarmerProfile models.FarmerProfile `json:"farmerProfile"`
	Subsidies     []models.Subsidy     `json:"subsidies,omitempty"`
}

type Output struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	TotalFound      int                     `json:"totalFound"`
	Summary         string                  `json:"summary"`
	RequestID       string                  `json:"requestId"`
}
