package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Amount is a number with its commodity. The value keeps the decimal string
// produced by the parser so that no precision is lost before aggregation.
type Amount struct {
	Value    string
	Currency string
}

// Cost is a cost basis specification attached to a posting.
//
//	10 HOOL {518.73 USD}              ; per-unit cost
//	10 HOOL {{5187.30 USD}}           ; total cost
//	10 HOOL {518.73 USD, 2014-05-01}  ; with acquisition date
//	10 HOOL {}                        ; any lot
type Cost struct {
	IsMerge bool
	IsTotal bool
	Amount  *Amount
	Date    *Date
	Label   string
}

// IsEmpty reports whether this is the empty cost {}.
func (c *Cost) IsEmpty() bool {
	return c != nil && !c.IsMerge && c.Amount == nil && c.Date == nil && c.Label == ""
}

// Account is a colon separated account path such as Assets:US:BofA:Checking.
// The first segment names one of the five account categories.
type Account string

// accountSegmentRegex validates every segment after the first.
var accountSegmentRegex = regexp.MustCompile(`^[\p{Lu}\p{N}][\p{L}\p{N}-]*$`)

func (a *Account) Capture(values []string) error {
	parts := strings.Split(values[0], ":")
	if len(parts) < 2 {
		return fmt.Errorf("account must have at least two segments: %s", values[0])
	}

	switch parts[0] {
	case "Assets", "Liabilities", "Equity", "Income", "Expenses":
	default:
		return fmt.Errorf(`unexpected account type "%s"`, parts[0])
	}

	for i := 1; i < len(parts); i++ {
		if !accountSegmentRegex.MatchString(parts[i]) {
			return fmt.Errorf("invalid account segment at position %d: %s", i, parts[i])
		}
	}

	*a = Account(values[0])
	return nil
}

// NewAccount validates name and returns it as an Account.
func NewAccount(name string) (Account, error) {
	var a Account
	if err := a.Capture([]string{name}); err != nil {
		return "", err
	}
	return a, nil
}

// Date is a calendar date (YYYY-MM-DD) stored at UTC midnight.
type Date struct {
	time.Time
}

func (d *Date) Capture(values []string) error {
	t, err := time.Parse("2006-01-02", values[0])
	if err != nil {
		return fmt.Errorf("invalid date: %s", values[0])
	}
	d.Time = t
	return nil
}

// NewDate parses a YYYY-MM-DD string.
func NewDate(s string) (*Date, error) {
	d := &Date{}
	if err := d.Capture([]string{s}); err != nil {
		return nil, err
	}
	return d, nil
}

// IsZero is nil safe.
func (d *Date) IsZero() bool {
	if d == nil {
		return true
	}
	return d.Time.IsZero()
}

// String returns the date as YYYY-MM-DD, or the empty string for a nil or zero date.
func (d *Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Tag is a #tag without its prefix.
type Tag string

func (t *Tag) Capture(values []string) error {
	// Lexer guarantees the # prefix.
	*t = Tag(values[0][1:])
	return nil
}

// Link is a ^link without its prefix.
type Link string

func (l *Link) Capture(values []string) error {
	*l = Link(values[0][1:])
	return nil
}

// Metadata is a key: value line attached to a directive or posting. Values
// are kept as their unquoted source text.
type Metadata struct {
	Key   string
	Value string
}
