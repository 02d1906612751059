package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultPolicyName = "default"

type Backoff interface {
	Next(attempt int) time.Duration
}

// ExpoJitter doubles Base per attempt up to Max, then spreads the wait
// by up to ±Jitter of itself.
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(2, float64(max(attempt, 0)))
	if b.Max > 0 {
		d = math.Min(d, float64(b.Max))
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

var defaultBackoff = ExpoJitter{Base: 100 * time.Millisecond, Max: 5 * time.Second}

// Policy describes how Do retries. Zero fields fall back to one attempt,
// defaultBackoff and "retry every non-nil error".
type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

func (p Policy) withDefaults() Policy {
	if p.Name == "" {
		p.Name = DefaultPolicyName
	}
	p.Attempts = max(p.Attempts, 1)
	if p.Backoff == nil {
		p.Backoff = defaultBackoff
	}
	if p.Retryable == nil {
		p.Retryable = func(err error) bool { return err != nil }
	}
	return p
}

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Calls made under a retry policy, first try included.",
	}, []string{"name"})
	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations given up after a final or permanent failure.",
	}, []string{"name"})
	durationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_duration_seconds",
		Help:    "Wall time of one retry.Do call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

// Do calls fn until it succeeds, fails with a non-retryable error, runs out
// of attempts or ctx ends while waiting. It returns the last error seen.
func Do(ctx context.Context, fn func() error, p Policy) error {
	p = p.withDefaults()
	start := time.Now()
	defer func() { durationSeconds.WithLabelValues(p.Name).Observe(time.Since(start).Seconds()) }()

	span := trace.SpanFromContext(ctx)
	for attempt := 0; ; attempt++ {
		err := fn()
		attemptsTotal.WithLabelValues(p.Name).Inc()
		if err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, err)
		}
		span.AddEvent("retry.attempt", trace.WithAttributes(
			attribute.String("retry.policy", p.Name),
			attribute.Int("retry.attempt", attempt+1),
		))

		if attempt+1 >= p.Attempts || !p.Retryable(err) {
			exhaustedTotal.WithLabelValues(p.Name).Inc()
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			return err
		}
		if werr := wait(ctx, p.Backoff.Next(attempt)); werr != nil {
			return werr
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
