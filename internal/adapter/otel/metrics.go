package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "twinforge"

// Metrics holds all TwinForge metric instruments.
type Metrics struct {
	RequestsReceived   metric.Int64Counter
	RequestsFailed     metric.Int64Counter
	ResponsesPublished metric.Int64Counter
	ResponsesWithheld  metric.Int64Counter
	PublishFailures    metric.Int64Counter
	ExpertSkips        metric.Int64Counter
	ExpertFailures     metric.Int64Counter
	JobsSubmitted      metric.Int64Counter
	JobsCompleted      metric.Int64Counter
	RateLimited        metric.Int64Counter
	QualityScore       metric.Float64Histogram
	RequestDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.RequestsReceived, "twinforge.requests.received", "Number of requests received by the principal agent"},
		{&m.RequestsFailed, "twinforge.requests.failed", "Number of requests that could not be processed"},
		{&m.ResponsesPublished, "twinforge.responses.published", "Number of final responses appended to the sink"},
		{&m.ResponsesWithheld, "twinforge.responses.withheld", "Number of final responses withheld for quality"},
		{&m.PublishFailures, "twinforge.responses.publish_failed", "Number of approved responses the sink rejected"},
		{&m.ExpertSkips, "twinforge.experts.skipped", "Number of expert invocations skipped as out of scope"},
		{&m.ExpertFailures, "twinforge.experts.failed", "Number of expert invocations that returned an error"},
		{&m.JobsSubmitted, "twinforge.jobs.submitted", "Number of background requests accepted"},
		{&m.JobsCompleted, "twinforge.jobs.completed", "Number of background requests finished"},
		{&m.RateLimited, "twinforge.http.rate_limited", "Number of HTTP requests rejected by the rate limiter"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.QualityScore, err = meter.Float64Histogram("twinforge.quality.score",
		metric.WithDescription("Overall quality score per report"),
		metric.WithExplicitBucketBoundaries(0.5, 0.6, 0.7, 0.8, 0.9, 1.0))
	if err != nil {
		return nil, err
	}

	m.RequestDuration, err = meter.Float64Histogram("twinforge.request.duration_seconds",
		metric.WithDescription("Principal processing duration in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
