package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Always enabled if Sentry is configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordTokenUsage tags the current transaction with planner token usage
func (m *SentryMetrics) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("planner.model", model)
		transaction.SetData("planner.total_tokens", totalTokens)
		transaction.SetData("planner.input_tokens", inputTokens)
		transaction.SetData("planner.output_tokens", outputTokens)
		transaction.SetData("planner.reasoning_tokens", reasoningTokens)
	}

	span := sentry.StartSpan(ctx, "planner.tokens")
	defer span.Finish()
	span.SetTag("model", model)
	span.SetData("total_tokens", totalTokens)
	span.SetData("input_tokens", inputTokens)
	span.SetData("output_tokens", outputTokens)
	span.SetData("reasoning_tokens", reasoningTokens)
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Token Usage: %s", model)
}

// RecordComposition records the outcome of a composition
func (m *SentryMetrics) RecordComposition(ctx context.Context, sample CompositionSample) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "composition.result")
	defer span.Finish()

	span.SetTag("genre", sample.Genre)
	span.SetTag("success", fmt.Sprintf("%t", sample.Success))
	span.SetTag("plan_degraded", fmt.Sprintf("%t", sample.PlanDegraded))
	span.SetTag("budget_exhausted", fmt.Sprintf("%t", sample.BudgetExhausted))

	span.SetData("duration_ms", sample.Duration.Milliseconds())
	span.SetData("score", sample.Score)
	span.SetData("iterations", sample.Iterations)
	span.SetData("tracks", sample.Tracks)
	span.SetData("bars", sample.Bars)

	if sample.Success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Composition: %s", sample.Genre)
}

// RecordCustomMetric sends a custom metric with arbitrary data
func (m *SentryMetrics) RecordCustomMetric(metricName string, data map[string]interface{}) {
	if !m.enabled {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("metric_type", "custom")
		scope.SetTag("metric_name", metricName)

		scope.SetContext("custom_metric", data)

		sentry.CaptureMessage("Custom Metric: " + metricName)
	})
}
