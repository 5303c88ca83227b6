package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// fakeClock advances by step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestCollector(step time.Duration) *TimingCollector {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
	collector := NewTimingCollector()
	collector.now = clock.now
	return collector
}

func TestNoOpCollector(t *testing.T) {
	collector := noOpCollector{}

	timer := collector.Start("ledger.load")
	timer.Child("parser.parse").End()
	timer.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Equal(t, 0, buf.Len())
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background()).(noOpCollector)
	assert.True(t, ok)

	collector := NewTimingCollector()
	ctx := WithCollector(context.Background(), collector)
	assert.True(t, FromContext(ctx) == Collector(collector))
}

func TestSpansFlattenTree(t *testing.T) {
	collector := newTestCollector(time.Millisecond)

	load := collector.Start("loader.load main.beancount")
	parse := load.Child("parser.parse main.beancount")
	parse.End()
	build := collector.Start("ledger.build")
	build.End()
	load.End()

	spans := collector.Spans()
	assert.Equal(t, 3, len(spans))
	assert.Equal(t, Span{Name: "loader.load main.beancount", Depth: 0, Duration: 5 * time.Millisecond}, spans[0])
	assert.Equal(t, Span{Name: "parser.parse main.beancount", Depth: 1, Duration: time.Millisecond}, spans[1])
	assert.Equal(t, Span{Name: "ledger.build", Depth: 1, Duration: time.Millisecond}, spans[2])
}

func TestSpansReportRunningTimers(t *testing.T) {
	collector := newTestCollector(time.Millisecond)
	assert.Zero(t, collector.Spans())

	collector.Start("web.start")
	spans := collector.Spans()
	assert.Equal(t, 1, len(spans))
	assert.Equal(t, time.Millisecond, spans[0].Duration)
}

func TestReportTree(t *testing.T) {
	collector := newTestCollector(2 * time.Millisecond)

	root := collector.Start("ledger.load")
	first := root.Child("parser.parse main.beancount")
	first.End()
	second := root.Child("parser.parse accounts.beancount")
	deep := second.Child("ledger.build")
	deep.End()
	second.End()
	root.End()

	var buf bytes.Buffer
	collector.Report(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, 4, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "ledger.load"))
	assert.Contains(t, lines[1], "├─ parser.parse main.beancount")
	assert.Contains(t, lines[2], "└─ parser.parse accounts.beancount")
	assert.Contains(t, lines[3], "   └─ ledger.build")
	assert.Contains(t, lines[0], "ms")
}

func TestReportEmptyCollector(t *testing.T) {
	var buf bytes.Buffer
	NewTimingCollector().Report(&buf)
	assert.Equal(t, 0, buf.Len())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{time.Millisecond, "1ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.00s"},
		{1500 * time.Millisecond, "1.50s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.duration))
	}
}

func TestStartTimerNestsUnderRoot(t *testing.T) {
	collector := newTestCollector(time.Millisecond)
	ctx := WithCollector(context.Background(), collector)

	root := collector.Start("ledger.load")
	ctx = WithRootTimer(ctx, root)
	StartTimer(ctx, "parser.parse").End()
	root.End()

	spans := collector.Spans()
	assert.Equal(t, 2, len(spans))
	assert.Equal(t, "parser.parse", spans[1].Name)
	assert.Equal(t, 1, spans[1].Depth)
}

func TestStartTimerWithoutCollector(t *testing.T) {
	timer := StartTimer(context.Background(), "noop")
	_, ok := timer.(noOpTimer)
	assert.True(t, ok)
	timer.End()
}

func TestSequentialRoots(t *testing.T) {
	collector := newTestCollector(time.Millisecond)

	collector.Start("loader.load main.beancount").End()
	collector.Start("ledger.build").End()

	spans := collector.Spans()
	assert.Equal(t, 2, len(spans))
	assert.Equal(t, "ledger.build", spans[1].Name)
	assert.Equal(t, 0, spans[1].Depth)

	var buf bytes.Buffer
	collector.Report(&buf)
	assert.Contains(t, buf.String(), "ledger.build: 1ms")
}
