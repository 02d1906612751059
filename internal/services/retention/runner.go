package retention

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultTick = 10 * time.Minute

var (
	mPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "revocation_pruned_total", Help: "Revocation ledger entries removed after expiry",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "retention_errors_total", Help: "Errors in retention loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "retention_tick_duration_seconds", Help: "Retention tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log  *zap.Logger
	UC   *Usecase
	Tick time.Duration
}

func New(log *zap.Logger, uc *Usecase, tick time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Runner{Log: log, UC: uc, Tick: tick}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	n, err := r.UC.Tick(ctx)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("retention tick error", zap.Error(err))
	}
	if n > 0 {
		mPruned.Add(float64(n))
		r.Log.Debug("revocations pruned", zap.Int64("removed", n))
	}
	mLoopDur.Observe(time.Since(start).Seconds())
}

// Run prunes once immediately and then every Tick until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
