package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chartq/backend/internal/llm"
	"chartq/backend/internal/model"
	"chartq/backend/internal/prompt"

	"github.com/rs/zerolog/log"
)

type Step string

const (
	StepChartSpec   Step = "chart_spec"
	StepDescription Step = "chart_description"
)

// QueryError reports which provider call failed. No partial result is
// ever returned alongside it.
type QueryError struct {
	Step Step
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// QueryRecorder persists the outcome of each chart query.
type QueryRecorder interface {
	SaveQuery(rec model.QueryRecord) error
}

// ChartService turns a chart query into a Vega-Lite spec and a description
// with two sequential completion calls.
type ChartService struct {
	completer llm.Completer
	recorder  QueryRecorder
}

// NewChartService wires the completer shared by all requests. recorder may
// be nil.
func NewChartService(completer llm.Completer, recorder QueryRecorder) *ChartService {
	return &ChartService{
		completer: completer,
		recorder:  recorder,
	}
}

// Query runs the spec call, then the description call on its output.
// Provider calls are not cancelled when ctx is; they finish or fail on
// their own.
func (s *ChartService) Query(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
	start := time.Now()
	resp, err := s.query(context.WithoutCancel(ctx), req)
	s.record(ctx, req, resp, err, time.Since(start))
	return resp, err
}

func (s *ChartService) query(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error) {
	spec, err := s.complete(ctx, StepChartSpec, prompt.ChartSpecSystem, prompt.ChartSpec(req.Prompt, req.Columns))
	if err != nil {
		return model.ChartQueryResponse{}, err
	}

	description, err := s.complete(ctx, StepDescription, prompt.DescriptionSystem, prompt.Description(spec))
	if err != nil {
		return model.ChartQueryResponse{}, err
	}

	return model.ChartQueryResponse{
		ChartSpec:        spec,
		ChartDescription: description,
	}, nil
}

func (s *ChartService) complete(ctx context.Context, step Step, system, user string) (string, error) {
	requestID := RequestIDFrom(ctx)
	log.Debug().Str("request_id", requestID).Str("step", string(step)).Int("prompt_len", len(user)).Msg("calling completion provider")

	start := time.Now()
	out, err := s.completer.Complete(ctx, system, user)
	completionDuration.WithLabelValues(string(step)).Observe(time.Since(start).Seconds())

	if err != nil {
		completionCalls.WithLabelValues(string(step), outcome(err)).Inc()
		ev := log.Error().Err(err).Str("request_id", requestID).Str("step", string(step))
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			ev = ev.Str("kind", string(llmErr.Kind)).Int("status", llmErr.StatusCode)
		}
		ev.Msg("completion failed")
		return "", &QueryError{Step: step, Err: err}
	}

	completionCalls.WithLabelValues(string(step), "success").Inc()
	return out, nil
}

func outcome(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return string(llmErr.Kind)
	}
	return string(llm.KindProviderCall)
}

func (s *ChartService) record(ctx context.Context, req model.ChartQueryRequest, resp model.ChartQueryResponse, queryErr error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	rec := model.QueryRecord{
		RequestID:        RequestIDFrom(ctx),
		Prompt:           req.Prompt,
		Columns:          req.Columns,
		ChartSpec:        resp.ChartSpec,
		ChartDescription: resp.ChartDescription,
		DurationMS:       elapsed.Milliseconds(),
	}
	if queryErr != nil {
		rec.Error = queryErr.Error()
	}

	if err := s.recorder.SaveQuery(rec); err != nil {
		log.Warn().Err(err).Str("request_id", rec.RequestID).Msg("failed to record query")
	}
}
