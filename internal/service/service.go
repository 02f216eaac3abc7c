// internal/service/service.go
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"subsidy-recommender/internal/catalog"
	commonerrors "subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/judgment"
	"subsidy-recommender/internal/models"
	"subsidy-recommender/internal/recommender"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	resultKeyPrefix  = "subsidy_rec_"
	DefaultResultTTL = 5 * time.Minute
)

// Recommender is the pipeline entry point the service drives.
type Recommender interface {
	Recommend(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) (*models.RecommendationResult, error)
}

// Response is what callers of the HTTP API and the zeebe worker receive.
type Response struct {
	Success         bool                    `json:"success"`
	Recommendations []models.Recommendation `json:"recommendations"`
	TotalFound      int                     `json:"total_found"`
	Summary         string                  `json:"summary"`
	RequestID       string                  `json:"request_id"`
	Cached          bool                    `json:"-"`
}

type Config struct {
	CatalogSource string
	ResultTTL     time.Duration
}

// Service validates a profile, loads the catalog, consults the result cache
// and runs the pipeline on a miss.
type Service struct {
	config   Config
	catalog  catalog.Store
	pipeline Recommender
	results  redis.Cmdable
	logger   logger.Logger
}

// New builds a Service. results may be nil, which disables result caching.
func New(cfg Config, store catalog.Store, pipeline Recommender, results redis.Cmdable, log logger.Logger) *Service {
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = DefaultResultTTL
	}
	return &Service{
		config:   cfg,
		catalog:  store,
		pipeline: pipeline,
		results:  results,
		logger:   log.WithFields(map[string]interface{}{"component": "recommendation-service"}),
	}
}

// Recommend answers one request against the full catalog.
func (s *Service) Recommend(ctx context.Context, profile models.FarmerProfile) (*Response, error) {
	if missing := profile.MissingFields(); len(missing) > 0 {
		metrics.RecommendationRequests.WithLabelValues("invalid").Inc()
		return nil, commonerrors.NewMissingFieldsError(missing)
	}

	subsidies, err := s.catalog.ListSubsidies(ctx)
	if err != nil {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, commonerrors.NewCatalogLoadFailedError(s.config.CatalogSource, err)
	}

	return s.recommend(ctx, profile, subsidies)
}

// RecommendFor answers one request against a caller-supplied subsidy list.
func (s *Service) RecommendFor(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) (*Response, error) {
	if missing := profile.MissingFields(); len(missing) > 0 {
		metrics.RecommendationRequests.WithLabelValues("invalid").Inc()
		return nil, commonerrors.NewMissingFieldsError(missing)
	}
	return s.recommend(ctx, profile, subsidies)
}

func (s *Service) recommend(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) (*Response, error) {
	if len(subsidies) == 0 {
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, commonerrors.NewCatalogEmptyError()
	}

	requestID := RequestIDFromContext(ctx)
	log := s.logger.WithFields(map[string]interface{}{"requestId": requestID})

	key, err := ResultCacheKey(profile, len(subsidies))
	if err != nil {
		return nil, commonerrors.NewInternalError(err)
	}

	result, cacheOK := s.cachedResult(ctx, key, log)
	cached := result != nil

	if !cached {
		start := time.Now()
		result, err = s.pipeline.Recommend(ctx, profile, subsidies)
		if err != nil {
			metrics.RecommendationRequests.WithLabelValues("error").Inc()
			log.Error("recommendation pipeline failed", map[string]interface{}{"error": err})
			return nil, classifyPipelineError(err)
		}
		log.Info("generated recommendations", map[string]interface{}{
			"subsidyCount": len(subsidies),
			"totalFound":   result.TotalRecommended,
			"durationMs":   time.Since(start).Milliseconds(),
		})
		if cacheOK {
			s.storeResult(ctx, key, result, log)
		}
		metrics.RecommendationRequests.WithLabelValues("success").Inc()
	} else {
		log.Info("retrieved recommendations from cache", map[string]interface{}{"totalFound": result.TotalRecommended})
		metrics.RecommendationRequests.WithLabelValues("cached").Inc()
	}

	recs := result.RecommendedSubsidies
	if recs == nil {
		recs = []models.Recommendation{}
	}

	return &Response{
		Success:         true,
		Recommendations: recs,
		TotalFound:      result.TotalRecommended,
		Summary:         Summary(profile, result.TotalRecommended),
		RequestID:       requestID,
		Cached:          cached,
	}, nil
}

// cachedResult returns the cached result, if any, and whether the cache is
// usable for a write-back.
func (s *Service) cachedResult(ctx context.Context, key string, log logger.Logger) (*models.RecommendationResult, bool) {
	if s.results == nil {
		return nil, false
	}

	raw, err := s.results.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("result", "miss").Inc()
		return nil, true
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("result", "error").Inc()
		log.Warn("result cache read failed", map[string]interface{}{"error": err})
		return nil, false
	}

	var result models.RecommendationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		metrics.CacheLookups.WithLabelValues("result", "miss").Inc()
		log.Warn("discarding undecodable result cache entry", map[string]interface{}{"error": err})
		return nil, true
	}
	metrics.CacheLookups.WithLabelValues("result", "hit").Inc()
	return &result, true
}

func (s *Service) storeResult(ctx context.Context, key string, result *models.RecommendationResult, log logger.Logger) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("result cache encode failed", map[string]interface{}{"error": err})
		return
	}
	if err := s.results.Set(ctx, key, data, s.config.ResultTTL).Err(); err != nil {
		log.Warn("result cache write failed", map[string]interface{}{"error": err})
	}
}

func classifyPipelineError(err error) *commonerrors.StandardError {
	if stdErr, ok := commonerrors.As(err); ok {
		return stdErr
	}

	switch {
	case errors.Is(err, recommender.ErrEmptySubsidyList):
		return commonerrors.NewCatalogEmptyError()
	case errors.Is(err, judgment.ErrLLMTimeout):
		return commonerrors.NewJudgmentTimeoutError(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return commonerrors.NewPipelineFailedError(err)
	}

	var stageErr *recommender.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == recommender.StageScoreSubsidies {
		if errors.Is(err, judgment.ErrInvalidResponse) {
			return commonerrors.NewJudgmentResponseInvalidError(err.Error())
		}
		return commonerrors.NewScoringFailedError(err)
	}
	return commonerrors.NewPipelineFailedError(err)
}

// ResultCacheKey derives the result cache key from the profile and the size
// of the catalog it was answered against.
func ResultCacheKey(profile models.FarmerProfile, subsidyCount int) (string, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	var profileMap map[string]interface{}
	if err := json.Unmarshal(profileJSON, &profileMap); err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	for _, listField := range []string{"water_sources", "past_subsidies"} {
		if profileMap[listField] == nil {
			profileMap[listField] = []interface{}{}
		}
	}

	// map keys marshal in sorted order
	canonical, err := json.Marshal(map[string]interface{}{
		"farmer_profile": profileMap,
		"subsidy_count":  subsidyCount,
	})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}

	sum := md5.Sum(canonical)
	return resultKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Summary is the one-line explanation shown above the recommendations.
// Empty profile fields are replaced with placeholder words ("your area" for
// a missing district) so the sentence never prints blanks like "in , Punjab".
func Summary(p models.FarmerProfile, total int) string {
	return fmt.Sprintf(
		"Based on your profile as a %s with %s acres growing %s in %s, %s, we found %d eligible subsidies tailored to your needs.",
		orDefault(p.FarmerType, "farmer"),
		orDefault(p.LandSize.String(), "unknown"),
		orDefault(p.CropType, "crops"),
		orDefault(p.District, "your area"),
		p.State,
		total,
	)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

type requestIDKey struct{}

// WithRequestID attaches a request id for Recommend to echo.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the attached id or a new uuid.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
