// internal/recommender/eligibility.go
package recommender

import (
	"context"
	"time"

	"subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/models"
)

// EligibilityFilter keeps the subsidies a farmer qualifies for. A subsidy
// without criteria always passes. A failed judgment includes the subsidy.
type EligibilityFilter struct {
	judge  JudgmentService
	logger logger.Logger
}

func NewEligibilityFilter(judge JudgmentService, log logger.Logger) *EligibilityFilter {
	return &EligibilityFilter{
		judge:  judge,
		logger: log.WithFields(map[string]interface{}{"component": "eligibility-filter"}),
	}
}

// Filter returns the eligible subsidies in input order. The only error is the
// caller's context being done.
func (f *EligibilityFilter) Filter(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) ([]models.Subsidy, error) {
	start := time.Now()
	eligible := make([]models.Subsidy, 0, len(subsidies))
	failOpen := 0

	for _, subsidy := range subsidies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !subsidy.HasCriteria() {
			eligible = append(eligible, subsidy)
			continue
		}

		verdict, err := f.judge.CheckEligibility(ctx, profile, subsidy)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			metrics.JudgmentCalls.WithLabelValues(OperationEligibility, "error").Inc()
			metrics.EligibilityFailOpen.Inc()
			failOpen++

			stdErr := errors.NewEligibilityCheckFailedError(string(subsidy.ID), err)
			f.logger.Warn("eligibility check failed, including subsidy", map[string]interface{}{
				"subsidyId": subsidy.ID,
				"errorCode": string(stdErr.Code),
				"error":     err,
			})
			eligible = append(eligible, subsidy)
			continue
		}

		metrics.JudgmentCalls.WithLabelValues(OperationEligibility, "ok").Inc()
		if verdict.Eligible {
			eligible = append(eligible, subsidy)
		} else {
			f.logger.Debug("subsidy not eligible", map[string]interface{}{
				"subsidyId": subsidy.ID,
				"reason":    verdict.Reason,
			})
		}
	}

	f.logger.Info("eligibility filter completed", map[string]interface{}{
		"inputCount":    len(subsidies),
		"eligibleCount": len(eligible),
		"failOpenCount": failOpen,
		"durationMs":    time.Since(start).Milliseconds(),
	})

	return eligible, nil
}
