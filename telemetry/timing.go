package telemetry

import (
	"io"
	"sync"
	"time"
)

// TimingCollector records trees of timed operations. A timer started on the
// collector nests under whichever timer is currently open, or becomes a new
// root when none is.
type TimingCollector struct {
	mu      sync.Mutex
	roots   []*timerNode
	current *timerNode
	now     func() time.Time
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	parent   *timerNode
	children []*timerNode
}

// Span is one finished or running operation, flattened in depth-first order.
type Span struct {
	Name     string
	Depth    int
	Duration time.Duration
}

// NewTimingCollector creates an empty collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

func (c *TimingCollector) attach(name string, parent *timerNode) *timingTimer {
	node := &timerNode{name: name, start: c.now(), parent: parent}
	if parent != nil {
		parent.children = append(parent.children, node)
	}
	return &timingTimer{collector: c, node: node}
}

// Start begins timing an operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.attach(name, c.current)
	if c.current == nil {
		c.roots = append(c.roots, t.node)
	}
	c.current = t.node
	return t
}

// Report writes the timing trees to w. Styling is applied only when w is a
// terminal.
func (c *TimingCollector) Report(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, root := range c.roots {
		formatTimingTree(w, root, now)
	}
}

// Spans returns every recorded operation. Running timers report the time
// elapsed so far.
func (c *TimingCollector) Spans() []Span {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.roots) == 0 {
		return nil
	}
	now := c.now()
	var spans []Span
	var walk func(n *timerNode, depth int)
	walk = func(n *timerNode, depth int) {
		spans = append(spans, Span{Name: n.name, Depth: depth, Duration: n.elapsed(now)})
		for _, child := range n.children {
			walk(child, depth+1)
		}
	}
	for _, root := range c.roots {
		walk(root, 0)
	}
	return spans
}

func (n *timerNode) elapsed(now time.Time) time.Duration {
	if n.end.IsZero() {
		return now.Sub(n.start)
	}
	return n.end.Sub(n.start)
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	c := t.collector
	c.mu.Lock()
	defer c.mu.Unlock()

	t.node.end = c.now()
	if c.current == t.node {
		c.current = t.node.parent
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	return t.collector.attach(name, t.node)
}
