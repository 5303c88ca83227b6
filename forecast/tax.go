package forecast

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

// Bracket taxes income up to UpTo at Rate. A zero UpTo has no upper limit.
type Bracket struct {
	Rate decimal.Decimal `json:"rate" yaml:"rate"`
	UpTo decimal.Decimal `json:"up_to" yaml:"up_to"`
}

// TaxSchedule describes annual income tax. Brackets are progressive and
// apply to income after Deduction. FlatRate applies to the same taxable
// income and PayrollRate to gross income.
type TaxSchedule struct {
	Name        string          `json:"name,omitempty" yaml:"name"`
	Brackets    []Bracket       `json:"brackets" yaml:"brackets"`
	FlatRate    decimal.Decimal `json:"flat_rate" yaml:"flat_rate"`
	PayrollRate decimal.Decimal `json:"payroll_rate" yaml:"payroll_rate"`

	// Deduction is the yearly amount contributed before tax.
	Deduction decimal.Decimal `json:"deduction" yaml:"deduction"`
}

// MarriedJoint2025 is the federal schedule for joint filers with a
// California state rate and FICA payroll tax.
func MarriedJoint2025() TaxSchedule {
	bracket := func(rate, upTo string) Bracket {
		return Bracket{Rate: decimal.RequireFromString(rate), UpTo: decimal.RequireFromString(upTo)}
	}
	return TaxSchedule{
		Name: "married-joint-2025",
		Brackets: []Bracket{
			bracket("0.10", "23200"),
			bracket("0.12", "94300"),
			bracket("0.22", "201050"),
			bracket("0.24", "383900"),
			bracket("0.32", "487450"),
			bracket("0.35", "731200"),
			bracket("0.37", "0"),
		},
		FlatRate:    decimal.RequireFromString("0.093"),
		PayrollRate: decimal.RequireFromString("0.0765"),
	}
}

var taxSchedules = map[string]func() TaxSchedule{
	"married-joint-2025": MarriedJoint2025,
}

// TaxScheduleNames lists the built-in schedules.
func TaxScheduleNames() []string {
	names := make([]string, 0, len(taxSchedules))
	for name := range taxSchedules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupTaxSchedule returns a built-in schedule by name.
func LookupTaxSchedule(name string) (TaxSchedule, error) {
	fn, ok := taxSchedules[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return TaxSchedule{}, ledger.NewInvalidParameterError("tax", name,
			fmt.Sprintf("expected one of %s", strings.Join(TaxScheduleNames(), ", ")))
	}
	return fn(), nil
}

// Validate checks that rates lie between zero and one and that bracket
// limits increase, with only the last bracket unbounded.
func (t TaxSchedule) Validate() error {
	if len(t.Brackets) == 0 {
		return &ledger.InvalidParameterError{Parameter: "tax", Value: t.Name, Reason: "at least one bracket is required"}
	}
	for _, r := range []decimal.Decimal{t.FlatRate, t.PayrollRate} {
		if !validRate(r) {
			return ledger.NewInvalidParameterError("tax rate", r, "must be between 0 and 1")
		}
	}
	if t.Deduction.IsNegative() {
		return ledger.NewInvalidParameterError("tax deduction", t.Deduction, "must not be negative")
	}
	prev := decimal.Zero
	for i, b := range t.Brackets {
		if !validRate(b.Rate) {
			return ledger.NewInvalidParameterError("tax rate", b.Rate, "must be between 0 and 1")
		}
		if b.UpTo.IsZero() {
			if i != len(t.Brackets)-1 {
				return &ledger.InvalidParameterError{Parameter: "tax bracket", Value: b.Rate.String(), Reason: "only the last bracket may be unbounded"}
			}
			continue
		}
		if !b.UpTo.GreaterThan(prev) {
			return ledger.NewInvalidParameterError("tax bracket", b.UpTo, "limits must increase")
		}
		prev = b.UpTo
	}
	return nil
}

func validRate(r decimal.Decimal) bool {
	return !r.IsNegative() && !r.GreaterThan(decimal.NewFromInt(1))
}

// TaxAssessment is the yearly tax on one gross income.
type TaxAssessment struct {
	Gross       decimal.Decimal `json:"gross"`
	Taxable     decimal.Decimal `json:"taxable"`
	Progressive decimal.Decimal `json:"progressive"`
	Flat        decimal.Decimal `json:"flat"`
	Payroll     decimal.Decimal `json:"payroll"`
	Total       decimal.Decimal `json:"total"`

	// EffectiveRate is Total over Gross, with gross incomes below one
	// counted as one.
	EffectiveRate decimal.Decimal `json:"effective_rate"`

	// MarginalRate is the rate on the next unit of taxable income.
	MarginalRate decimal.Decimal `json:"marginal_rate"`
}

// Assess computes the tax on a yearly gross income. Income above the last
// bounded bracket is taxed at that bracket's rate.
func (t TaxSchedule) Assess(gross decimal.Decimal) TaxAssessment {
	taxable := decimal.Max(decimal.Zero, gross.Sub(t.Deduction))

	a := TaxAssessment{
		Gross:       gross,
		Taxable:     taxable,
		Progressive: t.progressive(taxable),
		Flat:        taxable.Mul(t.FlatRate),
		Payroll:     decimal.Max(decimal.Zero, gross).Mul(t.PayrollRate),
	}
	a.Total = a.Progressive.Add(a.Flat).Add(a.Payroll)
	a.EffectiveRate = a.Total.Div(decimal.Max(gross, decimal.NewFromInt(1)))
	a.MarginalRate = t.marginal(taxable).Add(t.FlatRate)
	return a
}

func (t TaxSchedule) progressive(income decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	if !income.IsPositive() || len(t.Brackets) == 0 {
		return tax
	}
	prev := decimal.Zero
	for _, b := range t.Brackets {
		if b.UpTo.IsZero() || !income.GreaterThan(b.UpTo) {
			return tax.Add(income.Sub(prev).Mul(b.Rate))
		}
		tax = tax.Add(b.UpTo.Sub(prev).Mul(b.Rate))
		prev = b.UpTo
	}
	last := t.Brackets[len(t.Brackets)-1]
	return tax.Add(income.Sub(prev).Mul(last.Rate))
}

func (t TaxSchedule) marginal(income decimal.Decimal) decimal.Decimal {
	if len(t.Brackets) == 0 {
		return decimal.Zero
	}
	for _, b := range t.Brackets {
		if b.UpTo.IsZero() || !income.GreaterThan(b.UpTo) {
			return b.Rate
		}
	}
	return t.Brackets[len(t.Brackets)-1].Rate
}

// TaxYear totals the projected income and tax of one calendar year.
type TaxYear struct {
	Year  int             `json:"year"`
	Gross decimal.Decimal `json:"gross"`
	Tax   decimal.Decimal `json:"tax"`

	// EffectiveRate is Tax over Gross in percent.
	EffectiveRate decimal.Decimal `json:"effective_rate"`
}

// taxSummary groups rows by the calendar year their period starts in.
func taxSummary(rows []Row) []TaxYear {
	var years []TaxYear
	for _, row := range rows {
		year := row.Bucket.Start.Year()
		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, TaxYear{Year: year})
		}
		y := &years[len(years)-1]
		y.Gross = y.Gross.Add(row.Income)
		y.Tax = y.Tax.Add(row.Tax)
	}
	hundred := decimal.NewFromInt(100)
	for i := range years {
		if years[i].Gross.IsPositive() {
			years[i].EffectiveRate = years[i].Tax.Div(years[i].Gross).Mul(hundred).Round(2)
		}
	}
	return years
}
