package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordsMutationSignals(t *testing.T) {
	m := NewMetrics()
	m.ObserveMutation("contacts", "create", "applied", 3*time.Millisecond)
	m.ObserveMutation("contacts", "update", "CONFLICT_VERSION", time.Millisecond)
	m.IncConflict("contacts")
	m.IncReplay("invoices")

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("contacts", "create", "applied")); got != 1 {
		t.Fatalf("applied counter: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.conflicts.WithLabelValues("contacts")); got != 1 {
		t.Fatalf("conflict counter: want=1 got=%v", got)
	}
	if got := testutil.ToFloat64(m.replays.WithLabelValues("invoices")); got != 1 {
		t.Fatalf("replay counter: want=1 got=%v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "erpkernel_mutations_total") {
		t.Fatalf("exposition missing mutations_total:\n%s", body)
	}
}

func TestLabelBoundsCardinality(t *testing.T) {
	if got := label("  "); got != "unknown" {
		t.Fatalf("blank label: want=unknown got=%q", got)
	}
	if got := label(strings.Repeat("x", 65)); got != "other" {
		t.Fatalf("long label: want=other got=%q", got)
	}
}

func TestParseSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "0.5": 0.5, "7": 1, "-1": 0, "x": 0.1}
	for in, want := range cases {
		if got := ParseSampleRatio(in); got != want {
			t.Fatalf("ParseSampleRatio(%q): want=%v got=%v", in, want, got)
		}
	}
}
