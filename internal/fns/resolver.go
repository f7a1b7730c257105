package fns

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/fns-bill/internal/metrics"
)

// DefaultTimeout bounds each remote call when no client is supplied
const DefaultTimeout = 30 * time.Second

// Resolver turns a receipt query string into a Bill. It is safe for
// concurrent use: every call gets its own session, and the http.Client
// connection pool is shared.
type Resolver struct {
	settings Settings
	client   *http.Client
}

// NewResolver creates a Resolver with a pooled client using DefaultTimeout
func NewResolver(settings Settings) *Resolver {
	return NewResolverWithClient(settings, &http.Client{Timeout: DefaultTimeout})
}

// NewResolverWithClient creates a Resolver with a custom http.Client
func NewResolverWithClient(settings Settings, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Resolver{
		settings: settings,
		client:   client,
	}
}

// Resolve authorizes, creates a ticket for query and fetches its bill.
// The returned error is always an *Error.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Bill, error) {
	logger := slog.Default().With("request_id", uuid.NewString())
	logger.Debug("Resolving bill", "query", query)

	start := time.Now()
	bill, err := newSession(r.settings, r.client, logger).fetchBillInfo(ctx, query)
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Resolutions.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	metrics.Resolutions.WithLabelValues("success").Inc()
	logger.Info("Bill resolved", "records", len(bill.records), "total", bill.Total())
	return bill, nil
}

func outcome(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "unknown"
}
