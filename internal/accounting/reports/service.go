package reports

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Repository supplies the raw aggregates behind each report.
type Repository interface {
	ProfitAndLossBalances(ctx context.Context, period Period) ([]AccountBalance, error)
	BalanceSheetBalances(ctx context.Context) ([]AccountBalance, error)
	StockLevels(ctx context.Context) ([]StockLevel, error)
}

// Service builds reports, optionally through the versioned cache. Cache
// failures degrade to a direct read; they never fail a report.
type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger

	// stale is set while a post-commit version bump is outstanding. Until a
	// later bump lands, cached entries may predate committed postings.
	stale atomic.Bool
}

// buildTimeout bounds a shared build, which no longer follows any single
// caller's context.
const buildTimeout = 30 * time.Second

// NewService wires a Repository with an optional Cache.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// ProfitAndLoss reports income, expenses and net for period.
func (s *Service) ProfitAndLoss(ctx context.Context, period Period) (ProfitAndLoss, error) {
	return load(ctx, s, "pl", func(ctx context.Context) (ProfitAndLoss, error) {
		balances, err := s.repo.ProfitAndLossBalances(ctx, period)
		if err != nil {
			return ProfitAndLoss{}, err
		}
		return BuildProfitAndLoss(balances), nil
	}, period.token())
}

// BalanceSheet reports every asset, liability and equity account.
func (s *Service) BalanceSheet(ctx context.Context) (BalanceSheet, error) {
	return load(ctx, s, "bs", func(ctx context.Context) (BalanceSheet, error) {
		balances, err := s.repo.BalanceSheetBalances(ctx)
		if err != nil {
			return BalanceSheet{}, err
		}
		return BuildBalanceSheet(balances), nil
	})
}

// Stock reports on-hand quantity per product.
func (s *Service) Stock(ctx context.Context) ([]StockLevel, error) {
	return load(ctx, s, "stock", func(ctx context.Context) ([]StockLevel, error) {
		levels, err := s.repo.StockLevels(ctx)
		if err != nil {
			return nil, err
		}
		if levels == nil {
			levels = []StockLevel{}
		}
		return levels, nil
	})
}

// Invalidate retires every cached report. Called after each posting commits.
// A failed bump leaves the cache untrusted: reads bypass it until a retried
// bump succeeds.
func (s *Service) Invalidate(ctx context.Context) error {
	if err := s.cache.Bump(ctx); err != nil {
		s.stale.Store(true)
		return err
	}
	s.stale.Store(false)
	return nil
}

// recoverStale retries an outstanding bump. It reports whether the cache can
// be trusted again.
func (s *Service) recoverStale(ctx context.Context) bool {
	if !s.stale.Load() {
		return true
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "report cache still stale", slog.Any("error", err))
		return false
	}
	s.stale.Store(false)
	return true
}

func load[T any](ctx context.Context, s *Service, report string, build func(context.Context) (T, error), parts ...string) (T, error) {
	timed := func(ctx context.Context) (T, error) {
		start := time.Now()
		defer func() { observeBuildDuration(report, time.Since(start)) }()
		return build(ctx)
	}
	if !s.cache.Enabled() || !s.recoverStale(ctx) {
		return timed(ctx)
	}

	var zero T
	key, err := s.cache.BuildKey(ctx, append([]string{report}, parts...)...)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache unavailable", slog.String("report", report), slog.Any("error", err))
		return timed(ctx)
	}
	var cached T
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	if hit {
		recordCacheResult(report, true)
		return cached, nil
	}
	recordCacheResult(report, false)

	resultChan := s.group.DoChan(key, func() (any, error) {
		// Waiters share this build; one caller going away must not fail them.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		value, err := timed(buildCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(buildCtx, key, value); err != nil {
			s.logger.WarnContext(buildCtx, "report cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
