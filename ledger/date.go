package ledger

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used throughout the ledger.
const DateLayout = "2006-01-02"

// Date is a calendar day, stored at UTC midnight. The comparison methods
// take a Date, shadowing those of the embedded time.Time.
type Date struct {
	time.Time
}

// NewDate returns the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// MustParseDate is ParseDate for literals in tests and tables.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool  { return d.Time.Equal(o.Time) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.Time.Compare(o.Time) }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date { return Date{d.Time.AddDate(0, 0, n)} }

// AddMonths returns the date n months later. The day is clamped to the
// target month's length, and the last day of a month maps to the last day
// of the target month: 2024-03-31 minus one month is 2024-02-29.
func (d Date) AddMonths(n int) Date {
	first := NewDate(d.Year(), d.Month(), 1).Time.AddDate(0, n, 0)
	last := daysIn(first.Year(), first.Month())
	day := d.Day()
	if day > last || d.IsMonthEnd() {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// IsMonthEnd reports whether d is the last day of its month.
func (d Date) IsMonthEnd() bool {
	return d.Day() == daysIn(d.Year(), d.Month())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected a YYYY-MM-DD string", s)
	}
	return d.UnmarshalText([]byte(s[1 : len(s)-1]))
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From Date
	To   Date
}

// NewDateRange validates from <= to.
func NewDateRange(from, to Date) (DateRange, error) {
	if from.After(to) {
		return DateRange{}, &InvalidParameterError{
			Parameter: "range",
			Value:     from.String() + ".." + to.String(),
			Reason:    "start date is after end date",
		}
	}
	return DateRange{From: from, To: to}, nil
}

// Contains reports whether d lies within the range, bounds included.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// Validate checks from <= to.
func (r DateRange) Validate() error {
	_, err := NewDateRange(r.From, r.To)
	return err
}

func (r DateRange) String() string {
	return r.From.String() + ".." + r.To.String()
}
