package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTickCounters(t *testing.T) {
	before := testutil.ToFloat64(TicksProcessed.WithLabelValues("field"))
	TicksProcessed.WithLabelValues("field").Inc()
	after := testutil.ToFloat64(TicksProcessed.WithLabelValues("field"))
	if after != before+1 {
		t.Errorf("TicksProcessed: got %f, want %f", after, before+1)
	}

	LiveSubscriptions.Set(3)
	if v := testutil.ToFloat64(LiveSubscriptions); v != 3 {
		t.Errorf("LiveSubscriptions: got %f, want 3", v)
	}
}

func TestStatusCodeCounter(t *testing.T) {
	before := testutil.ToFloat64(StatusCodes.WithLabelValues("benign"))
	StatusCodes.WithLabelValues("benign").Inc()
	if v := testutil.ToFloat64(StatusCodes.WithLabelValues("benign")); v != before+1 {
		t.Errorf("StatusCodes: got %f, want %f", v, before+1)
	}
}
