package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLedgerOperation(t *testing.T) {
	c := NewCollector()

	c.RecordLedgerOperation("TRANSFER", 5*time.Millisecond, true)
	c.RecordLedgerOperation("TRANSFER", 5*time.Millisecond, true)
	c.RecordLedgerOperation("TRANSFER", 5*time.Millisecond, false)
	c.RecordLedgerOperation("DEPOSIT", 2*time.Millisecond, true)

	if got := testutil.ToFloat64(c.ledgerOperations.WithLabelValues("TRANSFER", "completed")); got != 2 {
		t.Errorf("transfer completed count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ledgerOperations.WithLabelValues("TRANSFER", "failed")); got != 1 {
		t.Errorf("transfer failed count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ledgerOperations.WithLabelValues("DEPOSIT", "completed")); got != 1 {
		t.Errorf("deposit completed count = %v, want 1", got)
	}
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	c := NewCollector()
	c.RecordLedgerOperation("TRANSFER", time.Millisecond, true)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ledger_operations_total") {
		t.Error("exposition missing ledger_operations_total")
	}
	if !strings.Contains(body, "ledger_operation_duration_seconds") {
		t.Error("exposition missing ledger_operation_duration_seconds")
	}
}
