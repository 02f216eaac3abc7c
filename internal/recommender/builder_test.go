// internal/recommender/builder_test.go
package recommender

import (
	"encoding/json"
	"fmt"
	"testing"

	"subsidy-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_TruncatesAndRanks(t *testing.T) {
	var scored []models.ScoredSubsidy
	for i := 0; i < 8; i++ {
		scored = append(scored, models.ScoredSubsidy{
			Subsidy: subsidy(fmt.Sprintf("s%d", i)),
			Score:   100 - i*10,
		})
	}

	res := Build(scored, 8)

	require.Len(t, res.RecommendedSubsidies, models.MaxRecommendations)
	assert.Equal(t, 8, res.TotalRecommended)
	for i, rec := range res.RecommendedSubsidies {
		assert.Equal(t, i+1, rec.Rank)
		assert.Equal(t, scored[i].ID, rec.SubsidyID)
		assert.Equal(t, scored[i].Score, rec.RelevanceScore)
	}
}

func TestBuild_DoesNotResort(t *testing.T) {
	scored := []models.ScoredSubsidy{
		{Subsidy: subsidy("low"), Score: 10},
		{Subsidy: subsidy("high"), Score: 90},
	}

	res := Build(scored, 2)

	assert.Equal(t, models.ID("low"), res.RecommendedSubsidies[0].SubsidyID)
	assert.Equal(t, models.ID("high"), res.RecommendedSubsidies[1].SubsidyID)
}

func TestBuild_FieldDefaults(t *testing.T) {
	res := Build([]models.ScoredSubsidy{{Subsidy: subsidy("A"), Score: 70}}, 1)
	rec := res.RecommendedSubsidies[0]

	assert.Equal(t, models.ApplicationDates{Start: "N/A", End: "N/A"}, rec.ApplicationDates)
	assert.NotNil(t, rec.DocumentsRequired)
	assert.Empty(t, rec.DocumentsRequired)
	assert.NotNil(t, rec.KeyBenefits)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"documents_required":[]`)
	assert.Contains(t, string(raw), `"application_dates":{"start":"N/A","end":"N/A"}`)
}

func TestBuild_MapsAllFields(t *testing.T) {
	s := subsidy("A")
	s.Amount = 25000.5
	s.DocumentsRequired = []string{"Aadhaar", "Land record"}
	s.ApplicationStartDate = strPtr("2024-04-01")
	s.ApplicationEndDate = strPtr("2024-06-30")

	res := Build([]models.ScoredSubsidy{{
		Subsidy:          s,
		Score:            88,
		ScoringReasoning: "strong crop match",
		KeyBenefits:      []string{"input cost cover"},
	}}, 3)

	assert.Equal(t, models.Recommendation{
		Rank:              1,
		SubsidyID:         "A",
		Title:             "Subsidy A",
		Description:       "Support scheme A",
		Amount:            25000.5,
		RelevanceScore:    88,
		WhyRecommended:    "strong crop match",
		KeyBenefits:       []string{"input cost cover"},
		ApplicationDates:  models.ApplicationDates{Start: "2024-04-01", End: "2024-06-30"},
		DocumentsRequired: []string{"Aadhaar", "Land record"},
	}, res.RecommendedSubsidies[0])
	assert.Equal(t, 3, res.TotalRecommended)
}

func TestBuild_Empty(t *testing.T) {
	res := Build(nil, 0)

	assert.NotNil(t, res.RecommendedSubsidies)
	assert.Empty(t, res.RecommendedSubsidies)
	assert.Equal(t, 0, res.TotalRecommended)
}
