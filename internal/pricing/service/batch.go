package service

import (
	"context"

	"github.com/smallbiznis/pricewise/internal/observability/tracing"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// CalculateBatch prices each line independently on a bounded pool.
// Results keep request order and line failures stay on their line.
func (s *Service) CalculateBatch(ctx context.Context, reqs []domain.CalculateRequest) ([]domain.BatchResult, error) {
	cfg := s.pricing.Get()
	if len(reqs) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if len(reqs) > cfg.MaxBatchSize {
		return nil, domain.ErrBatchTooLarge
	}

	ctx, span := s.tracer.Start(ctx, "pricing.calculate_batch")
	defer span.End()
	span.SetAttributes(tracing.SafeAttributes(attribute.Int("pricing.batch_size", len(reqs)))...)

	results := make([]domain.BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = domain.BatchResult{Err: err}
				return err
			}
			calc, err := s.Calculate(gctx, req)
			if err != nil {
				results[i] = domain.BatchResult{Err: err}
				if domain.IsCalculationError(err) {
					return nil
				}
				return err
			}
			results[i] = domain.BatchResult{Calculation: &calc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
