package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/BlackDragon/internal/domain/revocation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Usecase struct {
	Ledger revocation.Ledger
	// Grace keeps entries a little past expiry to absorb clock skew between replicas.
	Grace time.Duration
	Now   func() time.Time
}

func NewUC(ledger revocation.Ledger, grace time.Duration) *Usecase {
	return &Usecase{Ledger: ledger, Grace: grace, Now: func() time.Time { return time.Now().UTC() }}
}

// Tick drops ledger entries for tokens that can no longer validate anyway.
func (u *Usecase) Tick(ctx context.Context) (int64, error) {
	cutoff := u.Now().Add(-u.Grace)

	tr := otel.Tracer("retention.uc")
	ctx, span := tr.Start(ctx, "retention.tick",
		trace.WithAttributes(attribute.String("prune.before", cutoff.Format(time.RFC3339))),
	)
	defer span.End()

	n, err := u.Ledger.Prune(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("prune ledger: %w", err)
	}
	span.SetAttributes(attribute.Int64("prune.removed", n))
	return n, nil
}
