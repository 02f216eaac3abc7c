// internal/recommender/pipeline_test.go
package recommender

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestRecommend_ExampleScenario(t *testing.T) {
	judge := &fakeJudge{eligibility: alwaysIneligible, score: fixedScore(70)}
	p := NewPipeline(judge, logger.NewTestLogger(t))

	a := subsidy("A")
	a.Amount = 10000
	b := subsidy("B", "land_size < 2")
	b.Amount = 20000

	res, err := p.Recommend(context.Background(), createTestProfile(), []models.Subsidy{a, b})
	require.NoError(t, err)

	require.Len(t, res.RecommendedSubsidies, 1)
	assert.Equal(t, 1, res.RecommendedSubsidies[0].Rank)
	assert.Equal(t, models.ID("A"), res.RecommendedSubsidies[0].SubsidyID)
	assert.Equal(t, 70, res.RecommendedSubsidies[0].RelevanceScore)
	assert.Equal(t, 1, res.TotalRecommended)
	assert.Equal(t, []models.ID{"B"}, judge.eligibilityCalls)
	assert.Equal(t, []models.ID{"A"}, judge.scoreCalls)
}

func TestRecommend_TotalCountsAllEligible(t *testing.T) {
	judge := &fakeJudge{score: func(s models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{Score: len(s.ID) * 7}, nil
	}}
	p := NewPipeline(judge, logger.NewNoOpLogger())

	var subsidies []models.Subsidy
	for i := 0; i < 9; i++ {
		subsidies = append(subsidies, subsidy(fmt.Sprintf("s%d", i), "rule"))
	}

	res, err := p.Recommend(context.Background(), createTestProfile(), subsidies)
	require.NoError(t, err)

	assert.Len(t, res.RecommendedSubsidies, 5)
	assert.Equal(t, 9, res.TotalRecommended)
}

func TestRecommend_RecommendedAreEligible(t *testing.T) {
	judge := &fakeJudge{
		eligibility: func(s models.Subsidy) (models.EligibilityVerdict, error) {
			return models.EligibilityVerdict{Eligible: s.ID != "x" && s.ID != "y"}, nil
		},
		score: scoresByID(map[models.ID]int{"x": 100, "y": 99, "a": 20, "b": 30}),
	}
	p := NewPipeline(judge, logger.NewNoOpLogger())

	res, err := p.Recommend(context.Background(), createTestProfile(), []models.Subsidy{
		subsidy("x", "r"), subsidy("a", "r"), subsidy("y", "r"), subsidy("b", "r"),
	})
	require.NoError(t, err)

	require.Len(t, res.RecommendedSubsidies, 2)
	assert.Equal(t, models.ID("b"), res.RecommendedSubsidies[0].SubsidyID)
	assert.Equal(t, models.ID("a"), res.RecommendedSubsidies[1].SubsidyID)
	assert.Equal(t, 2, res.TotalRecommended)
}

func TestRecommend_Idempotent(t *testing.T) {
	judge := &fakeJudge{
		eligibility: func(s models.Subsidy) (models.EligibilityVerdict, error) {
			return models.EligibilityVerdict{Eligible: s.ID != "c"}, nil
		},
		score: scoresByID(map[models.ID]int{"a": 50, "b": 50, "d": 80}),
	}
	p := NewPipeline(judge, logger.NewNoOpLogger())
	subsidies := []models.Subsidy{subsidy("a", "r"), subsidy("b"), subsidy("c", "r"), subsidy("d", "r")}

	first, err := p.Recommend(context.Background(), createTestProfile(), subsidies)
	require.NoError(t, err)
	second, err := p.Recommend(context.Background(), createTestProfile(), subsidies)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// ==========================
// Error Handling Tests
// ==========================

func TestRecommend_EmptySubsidyList(t *testing.T) {
	judge := &fakeJudge{}
	p := NewPipeline(judge, logger.NewNoOpLogger())

	res, err := p.Recommend(context.Background(), createTestProfile(), nil)

	assert.ErrorIs(t, err, ErrEmptySubsidyList)
	assert.Nil(t, res)
	assert.Empty(t, judge.eligibilityCalls)
	assert.Empty(t, judge.scoreCalls)
}

func TestRecommend_ScoringFailurePropagates(t *testing.T) {
	cause := errors.New("judgment backend down")
	judge := &fakeJudge{score: func(models.Subsidy) (models.RelevanceScore, error) {
		return models.RelevanceScore{}, cause
	}}
	p := NewPipeline(judge, logger.NewNoOpLogger())

	res, err := p.Recommend(context.Background(), createTestProfile(), []models.Subsidy{subsidy("a")})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, cause)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageScoreSubsidies, stageErr.Stage)
	assert.Contains(t, err.Error(), "SCORE_SUBSIDIES")
}

func TestRecommend_CancelledBeforeStart(t *testing.T) {
	p := NewPipeline(&fakeJudge{}, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Recommend(ctx, createTestProfile(), []models.Subsidy{subsidy("a", "r")})

	assert.ErrorIs(t, err, context.Canceled)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageFilterEligibility, stageErr.Stage)
}

// ==========================
// State Machine Tests
// ==========================

func TestRun_VisitsStagesInOrder(t *testing.T) {
	p := NewPipeline(&fakeJudge{score: fixedScore(60)}, logger.NewNoOpLogger())
	input := []models.Subsidy{subsidy("a", "r"), subsidy("b")}

	start := NewState(createTestProfile(), input)
	assert.Equal(t, StageStart, start.Stage())

	final, err := p.Run(context.Background(), start)
	require.NoError(t, err)

	assert.Equal(t, StageEnd, final.Stage())
	assert.Len(t, final.Eligible(), 2)
	assert.Len(t, final.Scored(), 2)
	require.NotNil(t, final.Result())
	assert.Equal(t, 2, final.Result().TotalRecommended)

	// the start value is untouched by the run
	assert.Equal(t, StageStart, start.Stage())
	assert.Nil(t, start.Eligible())
	assert.Nil(t, start.Result())
}

func TestRun_EndTransitionRecordsNoStageDuration(t *testing.T) {
	metrics.PipelineStageDuration.DeleteLabelValues(StageEnd.String())

	p := NewPipeline(&fakeJudge{score: fixedScore(60)}, logger.NewNoOpLogger())
	_, err := p.Recommend(context.Background(), createTestProfile(), []models.Subsidy{subsidy("a")})
	require.NoError(t, err)

	assert.True(t, metrics.PipelineStageDuration.DeleteLabelValues(StageGenerateRecommendations.String()))
	assert.False(t, metrics.PipelineStageDuration.DeleteLabelValues(StageEnd.String()))
}

func TestNewState_CopiesSubsidies(t *testing.T) {
	input := []models.Subsidy{subsidy("a")}
	st := NewState(createTestProfile(), input)

	input[0].Title = "changed"

	assert.Equal(t, "Subsidy a", st.Subsidies()[0].Title)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "START", StageStart.String())
	assert.Equal(t, "FILTER_ELIGIBILITY", StageFilterEligibility.String())
	assert.Equal(t, "SCORE_SUBSIDIES", StageScoreSubsidies.String())
	assert.Equal(t, "GENERATE_RECOMMENDATIONS", StageGenerateRecommendations.String())
	assert.Equal(t, "END", StageEnd.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
