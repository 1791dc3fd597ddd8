package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsObserveWrite(t *testing.T) {
	m := NewMetrics()
	m.ObserveWrite("boards.create_topic", "success", 20*time.Millisecond)
	m.ObserveWrite("boards.create_topic", "success", 2*time.Second)
	m.ObserveWrite("boards.create_topic", "conflict", time.Millisecond)
	m.IncWriteConflict("boards.create_topic")
	m.IncWriteRetry("")

	if got := m.Writes("boards.create_topic", "success"); got != 2 {
		t.Fatalf("success writes: want=2 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`analytics_writes_total{op="boards.create_topic",status="conflict"} 1`,
		`analytics_writes_total{op="boards.create_topic",status="success"} 2`,
		`analytics_write_duration_seconds_bucket{op="boards.create_topic",le="0.025"} 2`,
		`analytics_write_duration_seconds_bucket{op="boards.create_topic",le="+Inf"} 3`,
		`analytics_write_conflicts_total{op="boards.create_topic"} 1`,
		`analytics_write_retryable_total{op="unknown"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, `status="conflict"`) > strings.Index(out, `status="success"`) {
		t.Fatalf("label sets not sorted:\n%s", out)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveWrite("x", "success", time.Millisecond)
	m.IncWriteConflict("x")
	m.IncWriteRetry("x")
	if err := m.CollectPoolStats(nil); err != nil {
		t.Fatalf("CollectPoolStats: %v", err)
	}
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	if got := labelString([]string{"op"}, []string{"a\"b\n"}); got != `{op="a\"b\n"}` {
		t.Fatalf("labelString: got %s", got)
	}
	if got := withLe("", "0.5"); got != `{le="0.5"}` {
		t.Fatalf("withLe: got %s", got)
	}
}
