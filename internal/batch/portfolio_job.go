package batch

import (
	"context"
	"fmt"
	"lending-engine/internal/domain/investor"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"log/slog"
	"time"
)

// SummaryProvider is the read side of loan.LoanService used by the snapshot job.
type SummaryProvider interface {
	Summary(ctx context.Context, period string) (*loan.PortfolioSummary, error)
}

// ExposureProvider is the read side of investor.InvestorService used by the snapshot job.
type ExposureProvider interface {
	Exposure(ctx context.Context) (*investor.Exposure, error)
}

// PortfolioSnapshotJob exports portfolio and investor totals as gauges and publishes them as an event.
// It never mutates a loan.
type PortfolioSnapshotJob struct {
	loans     SummaryProvider
	investors ExposureProvider
	publisher event.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewPortfolioSnapshotJob(loans SummaryProvider, investors ExposureProvider, publisher event.EventPublisher, logger *slog.Logger) *PortfolioSnapshotJob {
	if loans == nil || investors == nil || publisher == nil || logger == nil {
		panic("PortfolioSnapshotJob dependencies cannot be nil")
	}
	return &PortfolioSnapshotJob{
		loans:     loans,
		investors: investors,
		publisher: publisher,
		logger:    logger.With("job", "PortfolioSnapshot"),
		now:       time.Now,
	}
}

func (j *PortfolioSnapshotJob) Run(ctx context.Context) error {
	startTime := j.now()
	j.logger.InfoContext(ctx, "Starting portfolio snapshot job.")

	summary, err := j.loans.Summary(ctx, "")
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to summarize portfolio, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to summarize portfolio: %w", err)
	}

	exposure, err := j.investors.Exposure(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to compute investor exposure, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to compute investor exposure: %w", err)
	}

	countByStatus := make(map[string]int, len(summary.CountByStatus))
	for status, count := range summary.CountByStatus {
		countByStatus[string(status)] = count
	}
	monitoring.RecordPortfolio(countByStatus, summary.PrincipalLent, summary.Outstanding, summary.Collected, summary.AccruedPenalties)
	monitoring.RecordInvestorExposure(exposure.ActiveInvestors, exposure.Capital, exposure.TotalOwed)

	snapshot := event.PortfolioSnapshotEvent{
		LoanCount:        summary.LoanCount,
		CountByStatus:    countByStatus,
		PrincipalLent:    summary.PrincipalLent,
		Outstanding:      summary.Outstanding,
		Collected:        summary.Collected,
		AccruedPenalties: summary.AccruedPenalties,
		Periods:          make([]event.PeriodSnapshot, 0, len(summary.Periods)),
		Investors: event.InvestorSnapshot{
			Active:         exposure.ActiveInvestors,
			Capital:        exposure.Capital,
			AccruedReturns: exposure.AccruedReturns,
			TotalOwed:      exposure.TotalOwed,
		},
		TakenAt: startTime,
	}
	for _, p := range summary.Periods {
		snapshot.Periods = append(snapshot.Periods, event.PeriodSnapshot{
			Period:      p.Period,
			LoanCount:   p.LoanCount,
			Principal:   p.Principal,
			Outstanding: p.Outstanding,
			Collected:   p.Collected,
		})
	}

	summaryLog := j.logger.With(
		slog.Int("loans", summary.LoanCount),
		slog.Float64("outstanding", summary.Outstanding),
		slog.Float64("accrued_penalties", summary.AccruedPenalties),
		slog.Int("periods", len(summary.Periods)),
		slog.Float64("investor_total_owed", exposure.TotalOwed),
	)
	if err := j.publisher.PublishPortfolioSnapshot(ctx, snapshot); err != nil {
		summaryLog.ErrorContext(ctx, "Portfolio snapshot recorded, but failed to publish event.", slog.Any("error", err))
		return fmt.Errorf("failed to publish portfolio snapshot: %w", err)
	}

	summaryLog.InfoContext(ctx, "Portfolio snapshot job finished successfully.", slog.Duration("duration", j.now().Sub(startTime)))
	return nil
}
