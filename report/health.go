package report

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

var (
	liquidAccount     = regexp.MustCompile(`(?i)Checking|Savings|Cash`)
	investmentAccount = regexp.MustCompile(`(?i)401k|IRA|Brokerage|Investment`)
)

// ratioPlaces is the precision of every ratio in a HealthReport.
const ratioPlaces = 4

// HealthReport summarises financial health in one currency as of a date.
// Liabilities are reported as a positive amount owed. Monthly figures
// average the trailing window; ratios are zero when their denominator is.
type HealthReport struct {
	AsOf     ledger.Date `json:"as_of"`
	Currency string      `json:"currency"`
	Months   int         `json:"months"`

	LiquidAssets     decimal.Decimal `json:"liquid_assets"`
	InvestmentAssets decimal.Decimal `json:"investment_assets"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	NetWorth         decimal.Decimal `json:"net_worth"`
	MonthlyIncome    decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses  decimal.Decimal `json:"monthly_expenses"`

	EmergencyFundMonths decimal.Decimal `json:"emergency_fund_months"`
	SavingsRate         decimal.Decimal `json:"savings_rate"`
	DebtToIncome        decimal.Decimal `json:"debt_to_income"`
	DebtToAssets        decimal.Decimal `json:"debt_to_assets"`
	InvestmentRatio     decimal.Decimal `json:"investment_ratio"`

	Score    int             `json:"score"`
	Grade    string          `json:"grade"`
	Findings []HealthFinding `json:"findings"`
}

// Rating qualifies a single finding.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// HealthFinding explains the points awarded for one ratio.
type HealthFinding struct {
	Metric  string `json:"metric"`
	Rating  Rating `json:"rating"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// Health computes balances, ratios and a 0-100 score as of asOf. Income and
// expenses are averaged over the months ending on asOf. An empty currency
// selects the snapshot's primary currency.
func Health(s *ledger.Snapshot, asOf ledger.Date, months int, currency string) (*HealthReport, error) {
	if months <= 0 {
		return nil, ledger.NewInvalidParameterError("months", months, "must be positive")
	}
	if currency == "" {
		currency = s.PrimaryCurrency()
	}
	if currency == "" {
		return nil, &ledger.InsufficientDataError{Operation: "health", Reason: "ledger has no transactions"}
	}

	h := &HealthReport{AsOf: asOf, Currency: currency, Months: months}

	for _, ab := range Balances(s, asOf) {
		amount := ab.Balance.Get(currency)
		switch ab.Category {
		case ledger.CategoryAssets:
			h.TotalAssets = h.TotalAssets.Add(amount)
			if liquidAccount.MatchString(ab.Account) {
				h.LiquidAssets = h.LiquidAssets.Add(amount)
			}
			if investmentAccount.MatchString(ab.Account) {
				h.InvestmentAssets = h.InvestmentAssets.Add(amount)
			}
		case ledger.CategoryLiabilities:
			h.TotalLiabilities = h.TotalLiabilities.Add(amount)
		}
	}
	h.TotalLiabilities = h.TotalLiabilities.Abs()
	h.NetWorth = h.TotalAssets.Sub(h.TotalLiabilities)

	window := ledger.DateRange{From: asOf.AddMonths(-months).AddDays(1), To: asOf}
	income, expenses := decimal.Zero, decimal.Zero
	for txn := range s.Between(window) {
		for p := range txn.AllPostings() {
			if p.Currency != currency {
				continue
			}
			switch p.Category() {
			case ledger.CategoryIncome:
				income = income.Add(p.Amount)
			case ledger.CategoryExpenses:
				expenses = expenses.Add(p.Amount)
			}
		}
	}
	n := decimal.NewFromInt(int64(months))
	h.MonthlyIncome = income.Abs().DivRound(n, 2)
	h.MonthlyExpenses = expenses.Abs().DivRound(n, 2)

	h.EmergencyFundMonths = ratio(h.LiquidAssets, h.MonthlyExpenses)
	h.SavingsRate = ratio(h.MonthlyIncome.Sub(h.MonthlyExpenses), h.MonthlyIncome)
	h.DebtToIncome = ratio(h.TotalLiabilities, h.MonthlyIncome)
	h.DebtToAssets = ratio(h.TotalLiabilities, h.TotalAssets)
	h.InvestmentRatio = ratio(h.InvestmentAssets, h.TotalAssets)

	h.score()
	return h, nil
}

// ratio divides when the denominator is positive and returns zero otherwise.
func ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.DivRound(den, ratioPlaces)
}

type tier struct {
	threshold string
	rating    Rating
	points    int
	message   string
}

var (
	emergencyTiers = []tier{
		{"6", RatingExcellent, 25, "Excellent emergency fund (6+ months)"},
		{"3", RatingGood, 20, "Good emergency fund (3-6 months)"},
		{"1", RatingFair, 10, "Minimal emergency fund (1-3 months)"},
	}
	savingsTiers = []tier{
		{"0.20", RatingExcellent, 25, "Excellent savings rate (20%+)"},
		{"0.10", RatingGood, 20, "Good savings rate (10-20%)"},
		{"0.05", RatingFair, 10, "Moderate savings rate (5-10%)"},
	}
	debtTiers = []tier{
		{"0.1", RatingExcellent, 25, "Excellent debt management (<10% DTI)"},
		{"0.2", RatingGood, 20, "Good debt management (10-20% DTI)"},
		{"0.4", RatingFair, 10, "Moderate debt levels (20-40% DTI)"},
	}
	investmentTiers = []tier{
		{"0.3", RatingExcellent, 25, "Well diversified investments (30%+ of assets)"},
		{"0.15", RatingGood, 20, "Good investment allocation (15-30%)"},
		{"0.05", RatingFair, 10, "Some investments (5-15%)"},
	}
)

// rate picks the first tier the value reaches. With atMost the value must
// stay at or below the threshold instead.
func rate(metric string, value decimal.Decimal, tiers []tier, atMost bool, poor string) HealthFinding {
	for _, t := range tiers {
		threshold := decimal.RequireFromString(t.threshold)
		if (!atMost && value.GreaterThanOrEqual(threshold)) || (atMost && value.LessThanOrEqual(threshold)) {
			return HealthFinding{Metric: metric, Rating: t.rating, Points: t.points, Message: t.message}
		}
	}
	return HealthFinding{Metric: metric, Rating: RatingPoor, Message: poor}
}

func (h *HealthReport) score() {
	h.Findings = []HealthFinding{
		rate("emergency_fund", h.EmergencyFundMonths, emergencyTiers, false, "No emergency fund"),
		rate("savings_rate", h.SavingsRate, savingsTiers, false, "Low or negative savings rate"),
		rate("debt_to_income", h.DebtToIncome, debtTiers, true, "High debt levels (40%+ DTI)"),
		rate("investment_ratio", h.InvestmentRatio, investmentTiers, false, "Limited investment diversification"),
	}

	h.Score = 0
	for _, f := range h.Findings {
		h.Score += f.Points
	}
	h.Grade = Grade(h.Score)
}

// Grade converts a health score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
