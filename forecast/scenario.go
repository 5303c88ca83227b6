package forecast

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// Adjustment is a change to the projected net worth. A one-off adjustment
// applies once, to the bucket containing Date. A recurring adjustment
// applies once to every bucket overlapping [Date, End]; a zero End means
// it never stops.
type Adjustment struct {
	Description string          `yaml:"description" json:"description"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Date        ledger.Date     `yaml:"date" json:"date"`
	End         ledger.Date     `yaml:"end,omitempty" json:"end,omitempty"`
	Recurring   bool            `yaml:"recurring,omitempty" json:"recurring,omitempty"`
}

// Validate checks the dates of the adjustment.
func (a Adjustment) Validate() error {
	if a.Date.IsZero() {
		return &ledger.InvalidParameterError{Parameter: "adjustment date", Value: a.Description, Reason: "date is required"}
	}
	if !a.End.IsZero() {
		if !a.Recurring {
			return &ledger.InvalidParameterError{Parameter: "adjustment end", Value: a.End.String(), Reason: "only recurring adjustments have an end date"}
		}
		if a.End.Before(a.Date) {
			return &ledger.InvalidParameterError{Parameter: "adjustment end", Value: a.End.String(), Reason: "end is before start date " + a.Date.String()}
		}
	}
	return nil
}

// Overlaps reports whether the adjustment applies to bucket b.
func (a Adjustment) Overlaps(b report.Bucket) bool {
	if !a.Recurring {
		return b.Contains(a.Date)
	}
	if !a.Date.Before(b.End) {
		return false
	}
	return a.End.IsZero() || !a.End.Before(b.Start)
}

// EventKind tells whether an event adds to or takes from net worth.
type EventKind string

const (
	Windfall EventKind = "windfall"
	Purchase EventKind = "purchase"
)

// Event is a one-off windfall or major purchase. Amount is positive for
// both kinds.
type Event struct {
	Kind        EventKind       `yaml:"kind" json:"kind"`
	Description string          `yaml:"description" json:"description"`
	Amount      decimal.Decimal `yaml:"amount" json:"amount"`
	Date        ledger.Date     `yaml:"date" json:"date"`
}

// Validate checks the kind, amount and date of the event.
func (e Event) Validate() error {
	if e.Kind != Windfall && e.Kind != Purchase {
		return &ledger.InvalidParameterError{Parameter: "event kind", Value: string(e.Kind), Reason: "expected windfall or purchase"}
	}
	if !e.Amount.IsPositive() {
		return &ledger.InvalidParameterError{Parameter: "event amount", Value: e.Amount.String(), Reason: "must be positive"}
	}
	if e.Date.IsZero() {
		return &ledger.InvalidParameterError{Parameter: "event date", Value: e.Description, Reason: "date is required"}
	}
	return nil
}

// Signed returns the change in net worth caused by the event.
func (e Event) Signed() decimal.Decimal {
	if e.Kind == Purchase {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Scenario is a named set of adjustments and events applied on top of the
// baseline.
type Scenario struct {
	Name        string       `yaml:"name" json:"name"`
	Adjustments []Adjustment `yaml:"adjustments" json:"adjustments"`
	Events      []Event      `yaml:"events,omitempty" json:"events,omitempty"`
}

// Validate checks the name, every adjustment and every event.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return &ledger.InvalidParameterError{Parameter: "scenario", Reason: "name is required"}
	}
	for i, a := range s.Adjustments {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("scenario %q adjustment %d: %w", s.Name, i+1, err)
		}
	}
	for i, e := range s.Events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("scenario %q event %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads scenarios from a YAML file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenarios, err := ParseScenarios(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenarios, nil
}

// ParseScenarios decodes a YAML document of the form
//
//	scenarios:
//	  - name: new car
//	    adjustments:
//	      - description: loan
//	        amount: -200
//	        date: 2024-05-01
//	        recurring: true
//	    events:
//	      - kind: windfall
//	        description: inheritance
//	        amount: 10000
//	        date: 2024-09-01
//
// Unknown fields are rejected.
func ParseScenarios(data []byte) ([]Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file scenarioFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ledger.InvalidParameterError{Parameter: "scenarios", Reason: err.Error()}
	}
	for _, s := range file.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Scenarios, nil
}
