package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLoanOperation(t *testing.T) {
	Loan.OperationsTotal.Reset()

	RecordLoanOperation("collect", "success")
	RecordLoanOperation("collect", "success")
	RecordLoanOperation("renew", "state_conflict")

	expected := `
		# HELP lending_engine_loan_operations_total Total number of loan lifecycle operations by outcome.
		# TYPE lending_engine_loan_operations_total counter
		lending_engine_loan_operations_total{operation="collect",outcome="success"} 2
		lending_engine_loan_operations_total{operation="renew",outcome="state_conflict"} 1
	`
	if err := testutil.CollectAndCompare(Loan.OperationsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics for lending_engine_loan_operations_total: %v", err)
	}
}

func TestRecordPortfolio(t *testing.T) {
	RecordPortfolio(map[string]int{"PENDING": 3, "DELINQUENT": 1}, 4000, 5100, 1200, 300)

	assert.Equal(t, 3.0, testutil.ToFloat64(Portfolio.Loans.WithLabelValues("PENDING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Portfolio.Loans.WithLabelValues("DELINQUENT")))
	assert.Equal(t, 4000.0, testutil.ToFloat64(Portfolio.PrincipalLent))
	assert.Equal(t, 5100.0, testutil.ToFloat64(Portfolio.Outstanding))
	assert.Equal(t, 1200.0, testutil.ToFloat64(Portfolio.Collected))
	assert.Equal(t, 300.0, testutil.ToFloat64(Portfolio.AccruedPenalties))

	RecordPortfolio(map[string]int{"PAID": 2}, 0, 0, 0, 0)
	assert.Equal(t, 1, testutil.CollectAndCount(Portfolio.Loans))
}

func TestRecordInvestorExposure(t *testing.T) {
	RecordInvestorExposure(2, 12000, 12800)

	assert.Equal(t, 2.0, testutil.ToFloat64(Investors.Active))
	assert.Equal(t, 12000.0, testutil.ToFloat64(Investors.Capital))
	assert.Equal(t, 12800.0, testutil.ToFloat64(Investors.TotalOwed))
}

func TestRecordDBQuery(t *testing.T) {
	DB.QueryDuration.Reset()
	RecordDBQuery("GetLoanByID", "success", 3*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(DB.QueryDuration))
}
