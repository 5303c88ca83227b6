package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/ourfinance/ledger"
)

const testLedger = `option "operating_currency" "USD"

2024-01-01 open Assets:Checking USD
2024-01-01 open Assets:Savings USD
2024-01-01 open Liabilities:CreditCard USD
2024-01-01 open Equity:Opening USD
2024-01-01 open Income:Salary USD
2024-01-01 open Expenses:Food USD
2024-01-01 open Expenses:Rent USD

2024-01-15 * "Opening balance"
  Assets:Checking  1000.00 USD
  Equity:Opening

2024-01-20 * "Transfer to savings"
  Assets:Checking  -200.00 USD
  Assets:Savings    200.00 USD

2024-02-01 * "ACME" "Salary" #work
  Assets:Checking  3000.00 USD
  Income:Salary

2024-02-15 * "Groceries"
  Expenses:Food     150.00 USD
  Liabilities:CreditCard

2024-03-01 * "Landlord" "Rent"
  Expenses:Rent    1200.00 USD
  Assets:Checking
`

// newTestServer writes content to a temporary ledger and returns a server
// whose clock is fixed at 2024-03-31.
func newTestServer(t *testing.T, content string, opts ...Option) (*Server, http.Handler) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "main.beancount")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	clock := func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	server := New(path, append([]Option{WithClock(clock)}, opts...)...)
	return server, server.Handler()
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAPIStatus(t *testing.T) {
	server, handler := newTestServer(t, testLedger)
	server.Version = "1.2.3"

	rec := get(t, handler, "/api/status")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	response := decode[StatusResponse](t, rec)
	assert.Equal(t, "1.2.3", response.Version)
	assert.Equal(t, 5, response.Transactions)
	assert.Equal(t, "USD", response.Currency)
	assert.Equal(t, 1, len(response.Files))
	assert.True(t, strings.HasSuffix(response.File, "main.beancount"))
	assert.Equal(t, 0, len(response.Warnings))
	assert.NotZero(t, response.Span)
	assert.Equal(t, ledger.MustParseDate("2024-01-15"), response.Span.From)
	assert.Equal(t, ledger.MustParseDate("2024-03-01"), response.Span.To)
}

func TestAPIStatusWithWarnings(t *testing.T) {
	_, handler := newTestServer(t, `
2024-01-01 * "Unbalanced"
  Assets:Checking  100 USD
  Expenses:Food    -90 USD
`)

	rec := get(t, handler, "/api/status")
	assert.Equal(t, http.StatusOK, rec.Code)

	response := decode[StatusResponse](t, rec)
	assert.Equal(t, 1, len(response.Warnings))
	assert.Equal(t, "unbalanced_transaction", response.Warnings[0].Type)
}

func TestAPILoadError(t *testing.T) {
	server := New(filepath.Join(t.TempDir(), "missing.beancount"))
	rec := get(t, server.Handler(), "/api/status")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	payload := decode[ErrorPayload](t, rec)
	assert.Equal(t, "load_error", payload.Type)
}

func TestAPIAccounts(t *testing.T) {
	_, handler := newTestServer(t, testLedger)

	t.Run("All", func(t *testing.T) {
		rec := get(t, handler, "/api/accounts")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response struct {
			AsOf     string `json:"as_of"`
			Accounts []struct {
				Account  string            `json:"account"`
				Name     string            `json:"name"`
				Category string            `json:"category"`
				Declared bool              `json:"declared"`
				Open     string            `json:"open"`
				Balance  map[string]string `json:"balance"`
			} `json:"accounts"`
		}
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "2024-03-31", response.AsOf)
		assert.Equal(t, 7, len(response.Accounts))

		checking := response.Accounts[0]
		assert.Equal(t, "Assets:Checking", checking.Account)
		assert.Equal(t, "Checking", checking.Name)
		assert.Equal(t, "Assets", checking.Category)
		assert.True(t, checking.Declared)
		assert.Equal(t, "2024-01-01", checking.Open)
		assert.Equal(t, map[string]string{"USD": "2600"}, checking.Balance)
	})

	t.Run("Category", func(t *testing.T) {
		rec := get(t, handler, "/api/accounts?category=Expenses")
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[map[string]any](t, rec)
		assert.Equal(t, 2, len(response["accounts"].([]any)))
	})

	t.Run("AsOf", func(t *testing.T) {
		rec := get(t, handler, "/api/accounts?category=Assets&as_of=2024-01-31")
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[map[string]any](t, rec)
		accounts := response["accounts"].([]any)
		balance := accounts[0].(map[string]any)["balance"].(map[string]any)
		assert.Equal(t, "800", balance["USD"])
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		rec := get(t, handler, "/api/accounts?category=Bogus")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		payload := decode[ErrorPayload](t, rec)
		assert.Equal(t, "invalid_parameter", payload.Type)
		assert.Equal(t, "category", payload.Details["parameter"])
	})
}

func TestAPIJournal(t *testing.T) {
	_, handler := newTestServer(t, testLedger)

	tests := []struct {
		name       string
		target     string
		total      int
		rows       int
		firstDate  string
		firstValue string
	}{
		{name: "All", target: "/api/journal", total: 10, rows: 10, firstDate: "2024-03-01"},
		{name: "Account", target: "/api/journal?account=checking", total: 4, rows: 4, firstDate: "2024-03-01", firstValue: "-1200"},
		{name: "Text", target: "/api/journal?q=salary", total: 2, rows: 2, firstDate: "2024-02-01"},
		{name: "Tag", target: "/api/journal?q=WORK", total: 2, rows: 2, firstDate: "2024-02-01"},
		{name: "Range", target: "/api/journal?from=2024-01-01&to=2024-01-31", total: 4, rows: 4, firstDate: "2024-01-20"},
		{name: "Limit", target: "/api/journal?account=checking&limit=2", total: 4, rows: 2, firstDate: "2024-03-01"},
		{name: "NoMatch", target: "/api/journal?q=nothing", total: 0, rows: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := get(t, handler, test.target)
			assert.Equal(t, http.StatusOK, rec.Code)

			var response struct {
				Total int `json:"total"`
				Rows  []struct {
					Date    string `json:"date"`
					Account string `json:"account"`
					Amount  string `json:"amount"`
				} `json:"rows"`
				Flows []map[string]any `json:"flows"`
			}
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

			assert.Equal(t, test.total, response.Total)
			assert.Equal(t, test.rows, len(response.Rows))
			if test.rows > 0 {
				assert.Equal(t, test.firstDate, response.Rows[0].Date)
				assert.NotZero(t, len(response.Flows))
			}
			if test.firstValue != "" {
				assert.Equal(t, test.firstValue, response.Rows[0].Amount)
			}
		})
	}

	for _, target := range []string{
		"/api/journal?limit=-1",
		"/api/journal?min=abc",
		"/api/journal?from=2024-01-01",
		"/api/journal?from=2024-02-01&to=2024-01-01",
	} {
		t.Run("Invalid "+target, func(t *testing.T) {
			rec := get(t, handler, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_parameter", decode[ErrorPayload](t, rec).Type)
		})
	}
}

func TestAPIMetrics(t *testing.T) {
	_, handler := newTestServer(t, testLedger)

	assert.Equal(t, http.StatusOK, get(t, handler, "/api/status").Code)

	rec := get(t, handler, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ourfinance_ledger_cache_misses_total 1")
	assert.Contains(t, body, `ourfinance_http_requests_total{method="GET",route="/api/status",status="200"} 1`)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "InvalidParameter", err: ledger.NewInvalidParameterError("months", 0, "must be positive"), expected: http.StatusBadRequest},
		{name: "InsufficientData", err: fmt.Errorf("run: %w", &ledger.InsufficientDataError{Operation: "forecast"}), expected: http.StatusUnprocessableEntity},
		{name: "LoadError", err: &ledger.LoadError{Path: "main.beancount", Err: os.ErrNotExist}, expected: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, statusCode(test.err))
		})
	}
}

func TestAPIEvents(t *testing.T) {
	server, handler := newTestServer(t, testLedger)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	assert.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		line, err := reader.ReadString('\n')
		assert.NoError(t, err)
		_, err = reader.ReadString('\n')
		assert.NoError(t, err)
		return strings.TrimSpace(line)
	}

	// The client is registered before the greeting is written.
	assert.Equal(t, "data: connected", readEvent())

	server.broadcast("reload")
	assert.Equal(t, "data: reload", readEvent())

	_ = resp.Body.Close()
	server.closeOnce.Do(func() { close(server.done) })
}
