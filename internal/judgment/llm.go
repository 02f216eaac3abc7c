// internal/judgment/llm.go
package judgment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/models"
)

var (
	ErrLLMTimeout      = errors.New("JUDGMENT_TIMEOUT")
	ErrLLMCallFailed   = errors.New("JUDGMENT_CALL_FAILED")
	ErrInvalidResponse = errors.New("JUDGMENT_RESPONSE_INVALID")
)

// Caller sends one system instruction and one user prompt to a language model
// and returns the raw text of its reply.
type Caller interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMJudge answers eligibility and relevance questions through a Caller.
type LLMJudge struct {
	caller  Caller
	timeout time.Duration
	logger  logger.Logger
}

func NewLLMJudge(caller Caller, timeout time.Duration, log logger.Logger) *LLMJudge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMJudge{
		caller:  caller,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "llm-judge"}),
	}
}

func (j *LLMJudge) CheckEligibility(ctx context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.EligibilityVerdict, error) {
	raw, err := j.complete(ctx, eligibilitySystem, eligibilityPrompt(profile, subsidy))
	if err != nil {
		return models.EligibilityVerdict{}, err
	}

	verdict, err := parseVerdict(raw, subsidy.ID)
	if err != nil {
		j.logger.Warn("unparsable eligibility response", map[string]interface{}{
			"subsidyId": subsidy.ID,
			"error":     err,
		})
		return models.EligibilityVerdict{}, err
	}
	return verdict, nil
}

func (j *LLMJudge) ScoreRelevance(ctx context.Context, profile models.FarmerProfile, subsidy models.Subsidy) (models.RelevanceScore, error) {
	raw, err := j.complete(ctx, scoringSystem, scoringPrompt(profile, subsidy))
	if err != nil {
		return models.RelevanceScore{}, err
	}

	score, err := parseScore(raw)
	if err != nil {
		j.logger.Warn("unparsable scoring response", map[string]interface{}{
			"subsidyId": subsidy.ID,
			"error":     err,
		})
		return models.RelevanceScore{}, err
	}
	return score, nil
}

// complete applies the per-call timeout. Expiry of that timeout, and not of
// the caller's context, is reported as ErrLLMTimeout.
func (j *LLMJudge) complete(ctx context.Context, system, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	raw, err := j.caller.Complete(callCtx, system, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, ErrLLMTimeout) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: after %s", ErrLLMTimeout, time.Since(start).Round(time.Millisecond))
		}
		if errors.Is(err, ErrLLMCallFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrLLMCallFailed, err)
	}

	j.logger.Debug("judgment call completed", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
	})
	return raw, nil
}
