// internal/workers/recommendation/recommend-subsidies/handler.go
package recommendsubsidies

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/metrics"
	"subsidy-recommender/internal/common/observability"
	"subsidy-recommender/internal/common/validation"
	"subsidy-recommender/internal/models"
	"subsidy-recommender/internal/service"
	"subsidy-recommender/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "recommend-subsidies"
)

// Recommender is the part of service.Service the worker calls.
type Recommender interface {
	Recommend(ctx context.Context, profile models.FarmerProfile) (*service.Response, error)
	RecommendFor(ctx context.Context, profile models.FarmerProfile, subsidies []models.Subsidy) (*service.Response, error)
}

type HandlerOptions struct {
	Config  *Config
	Service Recommender
	Obs     *observability.Observability
	Logger  logger.Logger
}

type Handler struct {
	config       *Config
	service      Recommender
	schema       *validation.Schema
	errorHandler *commonerrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

// NewHandler compiles the input schema registered for TaskType.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	activity, ok := reg.Find(TaskType)
	if !ok {
		return nil, fmt.Errorf("task type %s not in activity registry", TaskType)
	}
	schema, err := activity.InputValidator()
	if err != nil {
		return nil, err
	}

	log := opts.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       opts.Config,
		service:      opts.Service,
		schema:       schema,
		errorHandler: commonerrors.NewErrorHandler(log),
		obs:          opts.Obs,
		logger:       log,
	}, nil
}

// Handle processes one job. Failures are reported to the engine through the
// error handler; the returned error is for the worker's own log.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	if err != nil {
		stdErr := commonerrors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.recordRun(ctx, "error", start)
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return stdErr
	}

	if err := h.completeJob(context.Background(), client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.recordRun(ctx, "success", start)
	return nil
}

func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	input, err := h.parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

// parseInput validates the job variables against the registry schema before
// decoding them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	if res := h.schema.ValidateJSON([]byte(variables)); !res.Valid {
		return nil, commonerrors.NewInputValidationError("Invalid job variables: " + res.Error()).
			WithMetadata("validationErrors", res.Errors)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, commonerrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		resp *service.Response
		err  error
	)
	if input.Subsidies != nil {
		resp, err = h.service.RecommendFor(ctx, input.FarmerProfile, input.Subsidies)
	} else {
		resp, err = h.service.Recommend(ctx, input.FarmerProfile)
	}
	if err != nil {
		return nil, err
	}

	return &Output{
		Recommendations: resp.Recommendations,
		TotalFound:      resp.TotalFound,
		Summary:         resp.Summary,
		RequestID:       resp.RequestID,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"totalFound": output.TotalFound,
		"requestId":  output.RequestID,
	})
	return nil
}

func (h *Handler) recordRun(ctx context.Context, status string, start time.Time) {
	if h.obs != nil {
		h.obs.RecordRun(ctx, "worker", status, time.Since(start))
	}
}
