// internal/recommender/eligibility_test.go
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

// ==========================
// Core Functionality Tests
// ==========================

func TestFilter_NoCriteriaAlwaysEligible(t *testing.T) {
	judge := &fakeJudge{eligibility: alwaysIneligible}
	f := NewEligibilityFilter(judge, logger.NewTestLogger(t))

	subsidies := []models.Subsidy{subsidy("A"), subsidy("B"), subsidy("C")}
	got, err := f.Filter(context.Background(), createTestProfile(), subsidies)

	require.NoError(t, err)
	assert.Equal(t, subsidies, got)
	assert.Empty(t, judge.eligibilityCalls, "vacuous subsidies must not reach the judge")
}

func TestFilter_IncludesOnlyEligible(t *testing.T) {
	judge := &fakeJudge{eligibility: func(s models.Subsidy) (models.EligibilityVerdict, error) {
		return models.EligibilityVerdict{SubsidyID: s.ID, Eligible: s.ID == "B"}, nil
	}}
	f := NewEligibilityFilter(judge, logger.NewTestLogger(t))

	got, err := f.Filter(context.Background(), createTestProfile(), []models.Subsidy{
		subsidy("A", "land < 2 acres"),
		subsidy("B", "any farmer"),
		subsidy("C", "income < 10000"),
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("B"), got[0].ID)
	assert.Equal(t, []models.ID{"A", "B", "C"}, judge.eligibilityCalls)
}

func TestFilter_FailOpenOnJudgmentError(t *testing.T) {
	judge := &fakeJudge{eligibility: func(s models.Subsidy) (models.EligibilityVerdict, error) {
		if s.ID == "broken" {
			return models.EligibilityVerdict{}, errors.New("service unavailable")
		}
		return alwaysIneligible(s)
	}}
	f := NewEligibilityFilter(judge, logger.NewTestLogger(t))

	got, err := f.Filter(context.Background(), createTestProfile(), []models.Subsidy{
		subsidy("ok", "rule"),
		subsidy("broken", "rule"),
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.ID("broken"), got[0].ID)
}

func TestFilter_EmptyStringCriterionIsJudged(t *testing.T) {
	judge := &fakeJudge{eligibility: alwaysIneligible}
	f := NewEligibilityFilter(judge, logger.NewTestLogger(t))

	got, err := f.Filter(context.Background(), createTestProfile(), []models.Subsidy{subsidy("A", "")})

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []models.ID{"A"}, judge.eligibilityCalls)
}

func TestFilter_EmptyInput(t *testing.T) {
	judge := &fakeJudge{}
	f := NewEligibilityFilter(judge, logger.NewNoOpLogger())

	got, err := f.Filter(context.Background(), createTestProfile(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, judge.eligibilityCalls)
}

// ==========================
// Cancellation Tests
// ==========================

func TestFilter_CancelledContextAborts(t *testing.T) {
	judge := &fakeJudge{}
	f := NewEligibilityFilter(judge, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := f.Filter(ctx, createTestProfile(), []models.Subsidy{subsidy("A", "rule")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Empty(t, judge.eligibilityCalls)
}

func TestFilter_CancellationDuringCallIsNotFailOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	judge := &fakeJudge{eligibility: func(s models.Subsidy) (models.EligibilityVerdict, error) {
		cancel()
		return models.EligibilityVerdict{}, context.Canceled
	}}
	f := NewEligibilityFilter(judge, logger.NewNoOpLogger())

	got, err := f.Filter(ctx, createTestProfile(), []models.Subsidy{subsidy("A", "rule"), subsidy("B", "rule")})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Equal(t, []models.ID{"A"}, judge.eligibilityCalls)
}
