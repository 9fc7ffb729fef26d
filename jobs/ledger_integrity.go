package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	jobmetrics "github.com/shiv-accounts/shiv-accounts/internal/jobs"
)

// IntegrityChecker lists postings whose debits differ from credits.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) ([]accounting.UnbalancedPosting, error)
}

// LedgerIntegrityJob verifies that every committed posting still balances.
type LedgerIntegrityJob struct {
	Checker IntegrityChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity handler.
func NewLedgerIntegrityJob(checker IntegrityChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Checker: checker, Logger: logger, Metrics: metrics}
}

// Handle runs one scan. Findings are logged and counted; the task itself
// only fails when the scan cannot run.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Checker == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	start := time.Now()
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	defer func() { err = tracker.End(err) }()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	unbalanced, err := j.Checker.CheckIntegrity(ctx)
	if err != nil {
		logger.Error("ledger integrity scan failed", slog.Any("error", err))
		return err
	}
	for _, p := range unbalanced {
		logger.Warn("unbalanced posting",
			slog.String("posting_id", p.PostingID.String()),
			slog.String("ref", p.Ref.String()),
			slog.String("debit", p.Debit.StringFixed(2)),
			slog.String("credit", p.Credit.StringFixed(2)),
		)
	}
	j.Metrics.AddUnbalanced(len(unbalanced))
	logger.Info("ledger integrity scan completed",
		slog.Int("unbalanced", len(unbalanced)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
