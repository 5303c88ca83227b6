package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	errfmt "github.com/robinvdvleuten/ourfinance/errors"
	"github.com/robinvdvleuten/ourfinance/ledger"
	"github.com/robinvdvleuten/ourfinance/report"
)

// ErrorPayload is the JSON body of every error response.
type ErrorPayload = errfmt.ErrorJSON

var jsonFormatter = errfmt.NewJSONFormatter()

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusCode maps an error to an HTTP status: caller mistakes are 400,
// requests the ledger has too little history for are 422 and everything
// else, including a ledger that fails to load, is 500.
func statusCode(err error) int {
	var (
		invalid      *ledger.InvalidParameterError
		insufficient *ledger.InsufficientDataError
	)
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(jsonFormatter.ToJSON(err))
}

func errorPayloads(errs []error) []ErrorPayload {
	return jsonFormatter.FormatAllToSlice(errs)
}

// queryDate parses a YYYY-MM-DD parameter, returning fallback when absent.
func queryDate(q url.Values, name string, fallback ledger.Date) (ledger.Date, error) {
	value := q.Get(name)
	if value == "" {
		return fallback, nil
	}
	d, err := ledger.ParseDate(value)
	if err != nil {
		return ledger.Date{}, ledger.NewInvalidParameterError(name, value, "expected YYYY-MM-DD")
	}
	return d, nil
}

// queryRange parses from and to. Both must be given together; when both
// are absent fallback is returned.
func queryRange(q url.Values, fallback ledger.DateRange) (ledger.DateRange, error) {
	if q.Get("from") == "" && q.Get("to") == "" {
		return fallback, nil
	}
	if q.Get("from") == "" || q.Get("to") == "" {
		return ledger.DateRange{}, &ledger.InvalidParameterError{
			Parameter: "range",
			Reason:    "from and to must be provided together",
		}
	}
	from, err := queryDate(q, "from", ledger.Date{})
	if err != nil {
		return ledger.DateRange{}, err
	}
	to, err := queryDate(q, "to", ledger.Date{})
	if err != nil {
		return ledger.DateRange{}, err
	}
	return ledger.NewDateRange(from, to)
}

func queryGranularity(q url.Values, name string, fallback report.Granularity) (report.Granularity, error) {
	value := q.Get(name)
	if value == "" {
		return fallback, nil
	}
	return report.ParseGranularity(value)
}

func queryInt(q url.Values, name string, fallback int) (int, error) {
	value := q.Get(name)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, ledger.NewInvalidParameterError(name, value, "expected an integer")
	}
	return n, nil
}

func queryBool(q url.Values, name string) (bool, error) {
	value := q.Get(name)
	if value == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, ledger.NewInvalidParameterError(name, value, "expected true or false")
	}
	return b, nil
}

func queryDecimal(q url.Values, name string) (*decimal.Decimal, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, ledger.NewInvalidParameterError(name, value, "expected a number")
	}
	return &d, nil
}

// queryCategories parses a comma-separated list of category names.
func queryCategories(q url.Values, name string) ([]ledger.Category, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}
	var categories []ledger.Category
	for _, part := range strings.Split(value, ",") {
		c, ok := ledger.ParseCategory(part)
		if !ok {
			return nil, ledger.NewInvalidParameterError(name, part, "unknown account category")
		}
		categories = append(categories, c)
	}
	return categories, nil
}
