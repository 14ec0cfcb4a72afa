package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "MAGDA/Composer"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment string) (*Client, error) {
	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
	}, nil
}

// Enabled reports whether metrics are published
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{
				Name:  aws.String("Endpoint"),
				Value: aws.String(endpoint),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			log.Printf("Failed to record %s metric: %v", metricName, err)
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record APILatency metric: %v", err)
		}
	}()
}

// RecordTokenUsage records the token usage of a planner call
func (m *Client) RecordTokenUsage(model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.Enabled() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Model"),
				Value: aws.String(model),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		counts := []struct {
			name  string
			value int
		}{
			{"PlannerTokens/Total", totalTokens},
			{"PlannerTokens/Input", inputTokens},
			{"PlannerTokens/Output", outputTokens},
			{"PlannerTokens/Reasoning", reasoningTokens},
		}
		for _, c := range counts {
			if c.value == 0 && c.name == "PlannerTokens/Reasoning" {
				continue
			}
			if err := m.putMetric(ctx, c.name, float64(c.value), types.StandardUnitCount, dimensions); err != nil {
				log.Printf("Failed to record %s metric: %v", c.name, err)
			}
		}
	}()
}

// RecordComposition records the outcome of one Compose or Extend call
func (m *Client) RecordComposition(sample CompositionSample) {
	if !m.Enabled() {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{
				Name:  aws.String("Genre"),
				Value: aws.String(sample.Genre),
			},
			{
				Name:  aws.String("Success"),
				Value: aws.String(boolToString(sample.Success)),
			},
			{
				Name:  aws.String("Environment"),
				Value: aws.String(m.environment),
			},
		}

		durationMs := float64(sample.Duration.Milliseconds())
		if err := m.putMetric(ctx, "CompositionDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			log.Printf("Failed to record CompositionDuration metric: %v", err)
		}
		if !sample.Success {
			return
		}

		values := []struct {
			name  string
			value float64
			unit  types.StandardUnit
		}{
			{"CompositionScore", sample.Score, types.StandardUnitNone},
			{"RefinementIterations", float64(sample.Iterations), types.StandardUnitCount},
			{"CompositionTracks", float64(sample.Tracks), types.StandardUnitCount},
			{"CompositionBars", float64(sample.Bars), types.StandardUnitCount},
			{"PlanDegraded", boolToFloat(sample.PlanDegraded), types.StandardUnitCount},
			{"BudgetExhausted", boolToFloat(sample.BudgetExhausted), types.StandardUnitCount},
		}
		for _, v := range values {
			if err := m.putMetric(ctx, v.name, v.value, v.unit, dimensions); err != nil {
				log.Printf("Failed to record %s metric: %v", v.name, err)
			}
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	// Create context with timeout for CloudWatch call
	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
