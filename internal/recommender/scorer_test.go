// internal/recommender/scorer_test.go
package recommender

import (
	"context"
	"errors"
	"testing"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_SortsDescendingAndKeepsTieOrder(t *testing.T) {
	judge := &fakeJudge{score: scoresByID(map[models.ID]int{
		"a": 40, "b": 90, "c": 40, "d": 90, "e": 10, "f": 40,
	})}
	s := NewRelevanceScorer(judge, logger.NewTestLogger(t))

	got, err := s.Score(context.Background(), createTestProfile(), []models.Subsidy{
		subsidy("a"), subsidy("b"), subsidy("c"), subsidy("d"), subsidy("e"), subsidy("f"),
	})
	require.NoError(t, err)

	var ids []models.ID
	for i, sc := range got {
		ids = append(ids, sc.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Score, sc.Score)
		}
	}
	assert.Equal(t, []models.ID{"b", "d", "a", "c", "f", "e"}, ids)
}

func TestScore_CopiesJudgmentFields(t *testing.T) {
	judge := &fakeJudge{score: func(models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{Score: 85, Reasoning: "crop match", KeyBenefits: []string{"seed support", "water"}}, nil
	}}
	s := NewRelevanceScorer(judge, logger.NewNoOpLogger())

	got, err := s.Score(context.Background(), createTestProfile(), []models.Subsidy{subsidy("A")})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, 85, got[0].Score)
	assert.Equal(t, "crop match", got[0].ScoringReasoning)
	assert.Equal(t, []string{"seed support", "water"}, got[0].KeyBenefits)
	assert.Equal(t, "Subsidy A", got[0].Title)
}

func TestScore_MissingBenefitsDefaultToEmpty(t *testing.T) {
	judge := &fakeJudge{score: func(models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{}, nil
	}}
	s := NewRelevanceScorer(judge, logger.NewNoOpLogger())

	got, err := s.Score(context.Background(), createTestProfile(), []models.Subsidy{subsidy("A")})
	require.NoError(t, err)

	assert.Equal(t, 0, got[0].Score)
	assert.Equal(t, "", got[0].ScoringReasoning)
	assert.NotNil(t, got[0].KeyBenefits)
	assert.Empty(t, got[0].KeyBenefits)
}

// The scoring stage does not recover from a failed call, unlike eligibility.
func TestScore_FirstFailureAbortsStage(t *testing.T) {
	boom := errors.New("rate limited")
	judge := &fakeJudge{score: func(s models.Subsidy) (models.RelevanceScore, error) {
		if s.ID == "b" {
			return models.RelevanceScore{}, boom
		}
		return models.RelevanceScore{Score: 10}, nil
	}}
	s := NewRelevanceScorer(judge, logger.NewNoOpLogger())

	got, err := s.Score(context.Background(), createTestProfile(), []models.Subsidy{subsidy("a"), subsidy("b"), subsidy("c")})

	assert.Same(t, boom, err)
	assert.Nil(t, got)
	assert.Equal(t, []models.ID{"a", "b"}, judge.scoreCalls)
}
