package ast

// Open declares an account at a date, optionally constrained to currencies.
//
//	2014-05-01 open Assets:US:BofA:Checking USD
type Open struct {
	Pos                  Position
	Date                 *Date
	Account              Account
	ConstraintCurrencies []string
	BookingMethod        string
	Metadata             []*Metadata
}

var _ Directive = &Open{}

func (o *Open) Position() Position { return o.Pos }
func (o *Open) Kind() string       { return "open" }
func (o *Open) date() *Date        { return o.Date }

// Close marks the end of an account's lifetime.
//
//	2015-09-23 close Assets:US:BofA:Checking
type Close struct {
	Pos      Position
	Date     *Date
	Account  Account
	Metadata []*Metadata
}

var _ Directive = &Close{}

func (c *Close) Position() Position { return c.Pos }
func (c *Close) Kind() string       { return "close" }
func (c *Close) date() *Date        { return c.Date }

// Option is a top level option "name" "value" line.
type Option struct {
	Pos   Position
	Name  string
	Value string
}

// Include references another ledger file, relative to the including file.
type Include struct {
	Pos      Position
	Filename string
}
