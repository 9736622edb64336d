package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type LoanMetrics struct {
	OperationsTotal *prometheus.CounterVec
}

type InvestorMetrics struct {
	Active    prometheus.Gauge
	Capital   prometheus.Gauge
	TotalOwed prometheus.Gauge
}

type PortfolioMetrics struct {
	Loans            *prometheus.GaugeVec
	PrincipalLent    prometheus.Gauge
	Outstanding      prometheus.Gauge
	Collected        prometheus.Gauge
	AccruedPenalties prometheus.Gauge
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Loan = LoanMetrics{
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_engine_loan_operations_total",
				Help: "Total number of loan lifecycle operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
	}

	Portfolio = PortfolioMetrics{
		Loans: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lending_engine_portfolio_loans",
				Help: "Number of loans per lifecycle status at the last snapshot.",
			},
			[]string{"status"},
		),
		PrincipalLent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_portfolio_principal_lent",
			Help: "Total principal lent at the last snapshot.",
		}),
		Outstanding: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_portfolio_outstanding",
			Help: "Total amount currently due on open loans, penalties included.",
		}),
		Collected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_portfolio_collected",
			Help: "Total amount collected at the last snapshot.",
		}),
		AccruedPenalties: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_portfolio_accrued_penalties",
			Help: "Total penalties accrued on delinquent loans at the last snapshot.",
		}),
	}

	Investors = InvestorMetrics{
		Active: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_investors_active",
			Help: "Number of active investor contracts at the last snapshot.",
		}),
		Capital: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_investors_capital",
			Help: "Capital held from active investors at the last snapshot.",
		}),
		TotalOwed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lending_engine_investors_total_owed",
			Help: "Capital plus contract returns owed to active investors.",
		}),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// RecordLoanOperation counts one lifecycle operation. outcome is "success" or a failure class.
func RecordLoanOperation(operation, outcome string) {
	Loan.OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordPortfolio(countByStatus map[string]int, principal, outstanding, collected, penalties float64) {
	Portfolio.Loans.Reset()
	for status, count := range countByStatus {
		Portfolio.Loans.WithLabelValues(status).Set(float64(count))
	}
	Portfolio.PrincipalLent.Set(principal)
	Portfolio.Outstanding.Set(outstanding)
	Portfolio.Collected.Set(collected)
	Portfolio.AccruedPenalties.Set(penalties)
}

func RecordInvestorExposure(active int, capital, totalOwed float64) {
	Investors.Active.Set(float64(active))
	Investors.Capital.Set(capital)
	Investors.TotalOwed.Set(totalOwed)
}
