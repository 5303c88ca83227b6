package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robinvdvleuten/ourfinance/report"
)

type forecastBody struct {
	Currency    string `json:"currency"`
	Granularity string `json:"granularity"`
	AsOf        string `json:"as_of"`
	Seed        string `json:"seed"`
	Baseline    struct {
		Periods  int    `json:"periods"`
		Income   string `json:"income"`
		Expenses string `json:"expenses"`
	} `json:"baseline"`
	Rows []struct {
		Bucket struct {
			Label string `json:"label"`
		} `json:"bucket"`
		Tax         string   `json:"tax"`
		Returns     string   `json:"returns"`
		Adjustments string   `json:"adjustments"`
		End         string   `json:"end"`
		Applied     []string `json:"applied"`
	} `json:"rows"`
	Summary struct {
		FinalNetWorth  string  `json:"final_net_worth"`
		TotalGrowth    string  `json:"total_growth"`
		TotalTax       string  `json:"total_tax"`
		BreakEvenYears *string `json:"break_even_years"`
	} `json:"summary"`
	Taxes []struct {
		Year int    `json:"year"`
		Tax  string `json:"tax"`
	} `json:"taxes"`
}

func post(t *testing.T, handler http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAPIForecast(t *testing.T) {
	_, handler := newTestServer(t, testLedger,
		WithRegistry(prometheus.NewRegistry()),
		WithForecastDefaults(ForecastDefaults{Window: 3, Horizon: 2, Granularity: report.Monthly}),
	)

	t.Run("Defaults", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[forecastBody](t, rec)
		assert.Equal(t, "USD", response.Currency)
		assert.Equal(t, "monthly", response.Granularity)
		assert.Equal(t, "2024-03-01", response.AsOf)
		assert.Equal(t, "2650", response.Seed)
		assert.Equal(t, 3, response.Baseline.Periods)
		assert.Equal(t, "1000", response.Baseline.Income)
		assert.Equal(t, "450", response.Baseline.Expenses)

		assert.Equal(t, 2, len(response.Rows))
		assert.Equal(t, "2024-04", response.Rows[0].Bucket.Label)
		assert.Equal(t, "3200", response.Rows[0].End)
		assert.Equal(t, "3750", response.Rows[1].End)

		assert.Equal(t, "3750", response.Summary.FinalNetWorth)
		assert.Equal(t, "1100", response.Summary.TotalGrowth)
		assert.Zero(t, response.Summary.BreakEvenYears)
		assert.Equal(t, 0, len(response.Taxes))
	})

	t.Run("Scenario", func(t *testing.T) {
		body := `{"horizon": 2, "scenarios": [{"name": "bonus", "adjustments": [{"description": "Q2", "amount": "500", "date": "2024-05-10"}]}]}`
		rec := post(t, handler, "/api/forecast", body)
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[forecastBody](t, rec)
		assert.Equal(t, "0", response.Rows[0].Adjustments)
		assert.Equal(t, "500", response.Rows[1].Adjustments)
		assert.Equal(t, []string{"bonus: Q2"}, response.Rows[1].Applied)
		assert.Equal(t, "4250", response.Rows[1].End)
	})

	t.Run("Quarterly", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"granularity": "quarterly", "window": 1, "horizon": 1}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[forecastBody](t, rec)
		assert.Equal(t, "quarterly", response.Granularity)
		assert.Equal(t, "2024-Q2", response.Rows[0].Bucket.Label)
	})

	t.Run("InvalidGranularity", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"granularity": "weekly"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		payload := decode[ErrorPayload](t, rec)
		assert.Equal(t, "invalid_parameter", payload.Type)
	})

	t.Run("UnknownField", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"months": 3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		payload := decode[ErrorPayload](t, rec)
		assert.Equal(t, "body", payload.Details["parameter"])
	})

	t.Run("InvalidHorizon", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"horizon": 0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownCurrency", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"currency": "EUR"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		payload := decode[ErrorPayload](t, rec)
		assert.Equal(t, "insufficient_data", payload.Type)
	})

	t.Run("GrowthAndTax", func(t *testing.T) {
		body := `{"growth": {"return": 0.12}, "tax": {"brackets": [{"rate": "0.1"}]}}`
		rec := post(t, handler, "/api/forecast", body)
		assert.Equal(t, http.StatusOK, rec.Code)

		response := decode[forecastBody](t, rec)
		assert.Equal(t, "100", response.Rows[0].Tax)
		assert.NotEqual(t, "0", response.Rows[0].Returns)
		assert.Equal(t, "200", response.Summary.TotalTax)
		assert.Equal(t, 1, len(response.Taxes))
		assert.Equal(t, 2024, response.Taxes[0].Year)
	})

	t.Run("InvalidTax", func(t *testing.T) {
		rec := post(t, handler, "/api/forecast", `{"tax": {"brackets": []}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		payload := decode[ErrorPayload](t, rec)
		assert.Equal(t, "tax", payload.Details["parameter"])
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := get(t, handler, "/metrics")
		assert.Contains(t, rec.Body.String(), `ourfinance_forecasts_total{result="ok"} 4`)
		assert.Contains(t, rec.Body.String(), `ourfinance_forecasts_total{result="error"} 3`)
	})

	t.Run("EmptyLedger", func(t *testing.T) {
		_, empty := newTestServer(t, "")
		rec := post(t, empty, "/api/forecast", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAPIHealth(t *testing.T) {
	_, handler := newTestServer(t, testLedger)

	t.Run("Report", func(t *testing.T) {
		rec := get(t, handler, "/api/health?months=3")
		assert.Equal(t, http.StatusOK, rec.Code)

		var response map[string]any
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

		assert.Equal(t, "USD", response["currency"])
		assert.Equal(t, "2024-03-31", response["as_of"])
		assert.Equal(t, "2800", response["total_assets"])
		assert.Equal(t, "150", response["total_liabilities"])
		assert.Equal(t, "2650", response["net_worth"])
		assert.NotZero(t, response["grade"])

		patterns := response["expense_patterns"].([]any)
		assert.Equal(t, 2, len(patterns))
	})

	t.Run("InvalidMonths", func(t *testing.T) {
		rec := get(t, handler, "/api/health?months=0")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("EmptyLedger", func(t *testing.T) {
		_, empty := newTestServer(t, "")
		rec := get(t, empty, "/api/health")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
