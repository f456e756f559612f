package metrics

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "BATTITO/API"
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

// Enabled reports whether metrics are shipped
func (m *Client) Enabled() bool {
	return m != nil && m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	metricName := "APIRequests"
	if statusCode >= httpStatusServerError {
		metricName = "APIErrors"
	}
	dimensions := m.dimensions("Endpoint", endpoint)

	m.send(
		datum(metricName, 1, types.StandardUnitCount, dimensions),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
	)
}

// RecordCompile records one compile, its outcome kind ("ok", "grammar",
// "euclidean", ...) and the number of steps produced
func (m *Client) RecordCompile(outcome string, steps int, duration time.Duration) {
	if !m.Enabled() {
		return
	}

	dimensions := m.dimensions("Outcome", outcome)
	data := []types.MetricDatum{
		datum("Compiles", 1, types.StandardUnitCount, dimensions),
		datum("CompileDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
	}
	if steps > 0 {
		data = append(data, datum("CompileSteps", float64(steps), types.StandardUnitCount, dimensions))
	}
	m.send(data...)
}

// RecordDispatch records an OSC send to a target
func (m *Client) RecordDispatch(target string, success bool) {
	if !m.Enabled() {
		return
	}

	dimensions := append(m.dimensions("Target", target), types.Dimension{
		Name:  aws.String("Success"),
		Value: aws.String(strconv.FormatBool(success)),
	})
	m.send(datum("Dispatches", 1, types.StandardUnitCount, dimensions))
}

func (m *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{Name: aws.String(name), Value: aws.String(value)},
		{Name: aws.String("Environment"), Value: aws.String(m.environment)},
	}
}

func datum(name string, value float64, unit types.StandardUnit, dimensions []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	}
}

// send ships data in one PutMetricData call without blocking the caller.
func (m *Client) send(data ...types.MetricDatum) {
	if !m.Enabled() || m.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cloudwatchTimeoutSeconds*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to record %d CloudWatch metrics (%s): %v", len(data), *data[0].MetricName, err)
		}
	}()
}
