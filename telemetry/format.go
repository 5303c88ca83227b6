package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/robinvdvleuten/ourfinance/output"
)

// slowThreshold marks operations that are highlighted in reports.
const slowThreshold = 100 * time.Millisecond

// formatTimingTree writes the tree rooted at root:
//
//	ledger.load main.beancount: 125ms
//	├─ parser.parse main.beancount: 85ms
//	│  └─ parser.lex: 12ms
//	└─ ledger.build: 40ms
func formatTimingTree(w io.Writer, root *timerNode, now time.Time) {
	styles := output.NewStyles(w)

	_, _ = fmt.Fprintf(w, "%s: %s\n", styles.Keyword(root.name), formatDuration(root.elapsed(now)))

	for i, child := range root.children {
		formatNode(w, styles, child, now, "", i == len(root.children)-1)
	}
}

func formatNode(w io.Writer, styles *output.Styles, node *timerNode, now time.Time, prefix string, isLast bool) {
	duration := node.elapsed(now)

	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}

	timing := styles.Dim(formatDuration(duration))
	if duration >= slowThreshold {
		timing = styles.Warning(formatDuration(duration))
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), node.name, timing)

	for i, child := range node.children {
		formatNode(w, styles, child, now, prefix+extension, i == len(node.children)-1)
	}
}

// formatDuration shows milliseconds below one second, seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
}
