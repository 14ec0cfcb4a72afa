package metrics

import (
	"context"
	"time"
)

// CompositionSample is the outcome of one Compose or Extend call
type CompositionSample struct {
	Genre           string
	Tracks          int
	Bars            int
	Score           float64
	Iterations      int
	Duration        time.Duration
	PlanDegraded    bool
	BudgetExhausted bool
	Success         bool
}

// Recorder publishes every metric to Sentry and, when enabled, CloudWatch
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder combines the Sentry and CloudWatch clients. Either may be nil.
func NewRecorder(sentryMetrics *SentryMetrics, cloudwatch *Client) *Recorder {
	return &Recorder{sentry: sentryMetrics, cloudwatch: cloudwatch}
}

// RecordAPIRequest records a finished HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
	r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
}

// RecordTokenUsage records the token usage of a planner call
func (r *Recorder) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordTokenUsage(ctx, model, totalTokens, inputTokens, outputTokens, reasoningTokens)
	}
	r.cloudwatch.RecordTokenUsage(model, totalTokens, inputTokens, outputTokens, reasoningTokens)
}

// RecordComposition records a composition outcome
func (r *Recorder) RecordComposition(ctx context.Context, sample CompositionSample) {
	if r == nil {
		return
	}
	if r.sentry != nil {
		r.sentry.RecordComposition(ctx, sample)
	}
	r.cloudwatch.RecordComposition(sample)
}
