package report

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Granularity is the calendar period used to bucket transactions.
type Granularity int

const (
	Monthly Granularity = iota + 1
	Quarterly
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	return g >= Monthly && g <= Yearly
}

// ParseGranularity accepts "month", "monthly", "m", "quarter", "quarterly",
// "q", "year", "yearly", "annual" and "y", in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "month", "monthly":
		return Monthly, nil
	case "q", "quarter", "quarterly":
		return Quarterly, nil
	case "y", "year", "yearly", "annual":
		return Yearly, nil
	}
	return 0, &ledger.InvalidParameterError{
		Parameter: "granularity",
		Value:     s,
		Reason:    "expected monthly, quarterly or yearly",
	}
}

// UnmarshalText lets a Granularity be read from flags, env and YAML.
func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Start returns the first day of the period containing d.
func (g Granularity) Start(d ledger.Date) ledger.Date {
	switch g {
	case Quarterly:
		month := time.Month((int(d.Month())-1)/3*3 + 1)
		return ledger.NewDate(d.Year(), month, 1)
	case Yearly:
		return ledger.NewDate(d.Year(), time.January, 1)
	default:
		return ledger.NewDate(d.Year(), d.Month(), 1)
	}
}

// Months is the length of one period in calendar months.
func (g Granularity) Months() int {
	switch g {
	case Quarterly:
		return 3
	case Yearly:
		return 12
	default:
		return 1
	}
}

// Add moves a date by n periods.
func (g Granularity) Add(start ledger.Date, n int) ledger.Date {
	return start.AddMonths(g.Months() * n)
}

// Label names the period starting at start: "2024-01", "2024-Q1" or "2024".
func (g Granularity) Label(start ledger.Date) string {
	switch g {
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case Yearly:
		return fmt.Sprintf("%d", start.Year())
	default:
		return start.Format("2006-01")
	}
}

// Bucket is a calendar interval [Start, End). Buckets produced for a range
// are clipped to it, so the first and last may be partial periods; the
// label always names the full period.
type Bucket struct {
	Label string      `json:"label"`
	Start ledger.Date `json:"start"`
	End   ledger.Date `json:"end"`
}

// Contains reports whether d lies in [Start, End).
func (b Bucket) Contains(d ledger.Date) bool {
	return !d.Before(b.Start) && d.Before(b.End)
}

// Last returns the final day inside the bucket.
func (b Bucket) Last() ledger.Date {
	return b.End.AddDays(-1)
}

// Range returns the bucket as an inclusive date range.
func (b Bucket) Range() ledger.DateRange {
	return ledger.DateRange{From: b.Start, To: b.Last()}
}

// BucketOf returns the full period of granularity g containing d.
func BucketOf(d ledger.Date, g Granularity) Bucket {
	start := g.Start(d)
	return Bucket{Label: g.Label(start), Start: start, End: g.Add(start, 1)}
}

// Periods iterates the full periods of granularity g that intersect r.
func Periods(r ledger.DateRange, g Granularity) iter.Seq[Bucket] {
	return func(yield func(Bucket) bool) {
		for current := g.Start(r.From); !current.After(r.To); current = g.Add(current, 1) {
			b := Bucket{Label: g.Label(current), Start: current, End: g.Add(current, 1)}
			if !yield(b) {
				return
			}
		}
	}
}

// Buckets partitions r into consecutive, non-overlapping buckets of
// granularity g that together cover r exactly. A range without any
// transactions still yields all of its buckets.
func Buckets(r ledger.DateRange, g Granularity) ([]Bucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !g.Valid() {
		return nil, ledger.NewInvalidParameterError("granularity", g, "expected monthly, quarterly or yearly")
	}

	end := r.To.AddDays(1)
	var buckets []Bucket
	for b := range Periods(r, g) {
		if b.Start.Before(r.From) {
			b.Start = r.From
		}
		if b.End.After(end) {
			b.End = end
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

// locate returns the index of the bucket containing d, or -1. Buckets must
// be sorted and contiguous.
func locate(buckets []Bucket, d ledger.Date) int {
	lo, hi := 0, len(buckets)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case d.Before(buckets[mid].Start):
			hi = mid
		case !d.Before(buckets[mid].End):
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}
