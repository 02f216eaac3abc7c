// internal/recommender/pipeline.go
package recommender

import (
	"context"
	"fmt"
	"time"

	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/common/observability"
	"subsidy-recommender/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State is the value carried from stage to stage. Transitions never modify
// the State they receive; they return a new one.
type State struct {
	stage     Stage
	profile   models.FarmerProfile
	subsidies []models.Subsidy
	eligible  []models.Subsidy
	scored    []models.ScoredSubsidy
	result    *models.RecommendationResult
}

// NewState builds the START state. The subsidy slice is copied.
func NewState(profile models.FarmerProfile, subsidies []models.Subsidy) State {
	return State{
		stage:     StageStart,
		profile:   profile,
		subsidies: append([]models.Subsidy(nil), subsidies...),
	}
}

func (s State) Stage() Stage                         { return s.stage }
func (s State) Profile() models.FarmerProfile        { return s.profile }
func (s State) Subsidies() []models.Subsidy          { return s.subsidies }
func (s State) Eligible() []models.Subsidy           { return s.eligible }
func (s State) Scored() []models.ScoredSubsidy       { return s.scored }
func (s State) Result() *models.RecommendationResult { return s.result }

type transition struct {
	to  Stage
	run func(ctx context.Context, st State) (State, error)
	// untraced transitions get no span and no stage duration sample.
	untraced bool
}

// Pipeline runs FILTER_ELIGIBILITY, SCORE_SUBSIDIES and
// GENERATE_RECOMMENDATIONS once each, in that order.
type Pipeline struct {
	filter *EligibilityFilter
	scorer *RelevanceScorer
	logger logger.Logger

	transitions map[Stage]transition
}

func NewPipeline(judge JudgmentService, log logger.Logger) *Pipeline {
	p := &Pipeline{
		filter: NewEligibilityFilter(judge, log),
		scorer: NewRelevanceScorer(judge, log),
		logger: log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	p.transitions = map[Stage]transition{
		StageStart:                   {to: StageFilterEligibility, run: p.filterEligibility},
		StageFilterEligibility:       {to: StageScoreSubsidies, run: p.scoreSubsidies},
		StageScoreSubsidies:          {to: StageGenerateRecommendations, run: p.generateRecommendations},
		StageGenerateRecommendations: {to: StageEnd, run: finish, untraced: true},
	}
	return p
}

// Recommend runs the pipeline for one profile. A stage failure is returned
// as *StageError wrapping the original cause.
func (p *Pipeline) Recommend(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) (*models.RecommendationResult, error) {
	if len(subsidies) == 0 {
		return nil, ErrEmptySubsidyList
	}

	ctx, span := observability.Tracer().Start(ctx, "recommender.Recommend")
	defer span.End()
	span.SetAttributes(attribute.Int("subsidy.count", len(subsidies)))

	start := time.Now()
	st, err := p.Run(ctx, NewState(profile, subsidies))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := st.Result()
	p.logger.Info("recommendation pipeline completed", map[string]interface{}{
		"subsidyCount":     len(st.Subsidies()),
		"eligibleCount":    len(st.Eligible()),
		"scoredCount":      len(st.Scored()),
		"recommendedCount": len(result.RecommendedSubsidies),
		"durationMs":       time.Since(start).Milliseconds(),
	})

	return result, nil
}

// Run drives st through the remaining transitions until END.
func (p *Pipeline) Run(ctx context.Context, st State) (State, error) {
	for st.stage != StageEnd {
		t, ok := p.transitions[st.stage]
		if !ok {
			return st, fmt.Errorf("no transition out of stage %s", st.stage)
		}

		next, err := p.step(ctx, st, t)
		if err != nil {
			return st, &StageError{Stage: t.to, Err: err}
		}
		st = next
	}
	return st, nil
}

func (p *Pipeline) step(ctx context.Context, st State, t transition) (State, error) {
	if t.untraced {
		next, err := t.run(ctx, st)
		if err != nil {
			return st, err
		}
		next.stage = t.to
		return next, nil
	}

	ctx, span := observability.Tracer().Start(ctx, "recommender."+t.to.String())
	defer span.End()

	start := time.Now()
	next, err := t.run(ctx, st)
	metrics.PipelineStageDuration.WithLabelValues(t.to.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return st, err
	}
	next.stage = t.to
	return next, nil
}

func (p *Pipeline) filterEligibility(ctx context.Context, st State) (State, error) {
	eligible, err := p.filter.Filter(ctx, st.profile, st.subsidies)
	if err != nil {
		return st, err
	}
	st.eligible = eligible
	return st, nil
}

func (p *Pipeline) scoreSubsidies(ctx context.Context, st State) (State, error) {
	scored, err := p.scorer.Score(ctx, st.profile, st.eligible)
	if err != nil {
		return st, err
	}
	st.scored = scored
	return st, nil
}

func (p *Pipeline) generateRecommendations(_ context.Context, st State) (State, error) {
	result := Build(st.scored, len(st.eligible))
	st.result = &result
	return st, nil
}

func finish(_ context.Context, st State) (State, error) {
	return st, nil
}
