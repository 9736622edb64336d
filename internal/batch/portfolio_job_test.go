package batch

import (
	"context"
	"errors"
	"io"
	"lending-engine/internal/domain/investor"
	"lending-engine/internal/domain/loan"
	"lending-engine/internal/event"
	"lending-engine/internal/infrastructure/monitoring"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockSummaryProvider struct {
	mock.Mock
}

func (m *MockSummaryProvider) Summary(ctx context.Context, period string) (*loan.PortfolioSummary, error) {
	args := m.Called(ctx, period)
	if summary, ok := args.Get(0).(*loan.PortfolioSummary); ok {
		return summary, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockExposureProvider struct {
	mock.Mock
}

func (m *MockExposureProvider) Exposure(ctx context.Context) (*investor.Exposure, error) {
	args := m.Called(ctx)
	if e, ok := args.Get(0).(*investor.Exposure); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLoanEvent(ctx context.Context, e event.LoanEvent) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockPublisher) PublishPortfolioSnapshot(ctx context.Context, e event.PortfolioSnapshotEvent) error {
	return m.Called(ctx, e).Error(0)
}

var takenAt = time.Date(2025, time.March, 10, 2, 0, 0, 0, time.UTC)

type testJob struct {
	provider  *MockSummaryProvider
	investors *MockExposureProvider
	publisher *MockPublisher
	job       *PortfolioSnapshotJob
}

func newTestJob() testJob {
	tj := testJob{
		provider:  new(MockSummaryProvider),
		investors: new(MockExposureProvider),
		publisher: new(MockPublisher),
	}
	tj.job = NewPortfolioSnapshotJob(tj.provider, tj.investors, tj.publisher, logger)
	tj.job.now = func() time.Time { return takenAt }
	return tj
}

func sampleExposure() *investor.Exposure {
	return &investor.Exposure{ActiveInvestors: 2, Capital: 12000, AccruedReturns: 800, TotalOwed: 12800}
}

func sampleSummary() *loan.PortfolioSummary {
	return &loan.PortfolioSummary{
		LoanCount: 3,
		CountByStatus: map[loan.LifecycleStatus]int{
			loan.StatusPending:    1,
			loan.StatusDelinquent: 1,
			loan.StatusPaid:       1,
		},
		PrincipalLent:    2500,
		Outstanding:      2060,
		Collected:        1200,
		AccruedPenalties: 60,
		Periods: []loan.PeriodSummary{
			{Period: "2025-02", LoanCount: 1, Principal: 1000, Collected: 1200},
			{Period: "2025-03", LoanCount: 2, Principal: 1500, Outstanding: 2060},
		},
	}
}

func TestPortfolioSnapshotJob_Run(t *testing.T) {
	ctx := context.Background()
	tj := newTestJob()

	tj.provider.On("Summary", ctx, "").Return(sampleSummary(), nil).Once()
	tj.investors.On("Exposure", ctx).Return(sampleExposure(), nil).Once()
	tj.publisher.On("PublishPortfolioSnapshot", ctx, mock.MatchedBy(func(e event.PortfolioSnapshotEvent) bool {
		return e.LoanCount == 3 &&
			e.CountByStatus["DELINQUENT"] == 1 &&
			len(e.Periods) == 2 &&
			e.Periods[1].Period == "2025-03" &&
			e.Investors.TotalOwed == 12800 &&
			e.TakenAt.Equal(takenAt)
	})).Return(nil).Once()

	err := tj.job.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2060.0, testutil.ToFloat64(monitoring.Portfolio.Outstanding))
	assert.Equal(t, 2500.0, testutil.ToFloat64(monitoring.Portfolio.PrincipalLent))
	assert.Equal(t, 60.0, testutil.ToFloat64(monitoring.Portfolio.AccruedPenalties))
	assert.Equal(t, 1.0, testutil.ToFloat64(monitoring.Portfolio.Loans.WithLabelValues("PAID")))
	assert.Equal(t, 12800.0, testutil.ToFloat64(monitoring.Investors.TotalOwed))
	tj.provider.AssertExpectations(t)
	tj.investors.AssertExpectations(t)
	tj.publisher.AssertExpectations(t)
}

func TestPortfolioSnapshotJob_SummaryFails(t *testing.T) {
	ctx := context.Background()
	tj := newTestJob()

	tj.provider.On("Summary", ctx, "").Return(nil, errors.New("db down")).Once()

	err := tj.job.Run(ctx)

	assert.ErrorContains(t, err, "failed to summarize portfolio")
	tj.investors.AssertNotCalled(t, "Exposure", mock.Anything)
	tj.publisher.AssertNotCalled(t, "PublishPortfolioSnapshot", mock.Anything, mock.Anything)
}

func TestPortfolioSnapshotJob_ExposureFails(t *testing.T) {
	ctx := context.Background()
	tj := newTestJob()

	tj.provider.On("Summary", ctx, "").Return(sampleSummary(), nil).Once()
	tj.investors.On("Exposure", ctx).Return(nil, errors.New("investors table missing")).Once()

	err := tj.job.Run(ctx)

	assert.ErrorContains(t, err, "failed to compute investor exposure")
	tj.publisher.AssertNotCalled(t, "PublishPortfolioSnapshot", mock.Anything, mock.Anything)
}

func TestPortfolioSnapshotJob_PublishFails(t *testing.T) {
	ctx := context.Background()
	tj := newTestJob()

	tj.provider.On("Summary", ctx, "").Return(sampleSummary(), nil).Once()
	tj.investors.On("Exposure", ctx).Return(sampleExposure(), nil).Once()
	tj.publisher.On("PublishPortfolioSnapshot", ctx, mock.Anything).Return(errors.New("channel closed")).Once()

	err := tj.job.Run(ctx)

	assert.ErrorContains(t, err, "failed to publish portfolio snapshot")
	// Gauges are still exported when the broker is unavailable.
	assert.Equal(t, 1200.0, testutil.ToFloat64(monitoring.Portfolio.Collected))
}

func TestNewPortfolioSnapshotJobPanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() { NewPortfolioSnapshotJob(nil, new(MockExposureProvider), new(MockPublisher), logger) })
	assert.Panics(t, func() { NewPortfolioSnapshotJob(new(MockSummaryProvider), nil, new(MockPublisher), logger) })
}
