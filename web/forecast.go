package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/robinvdvleuten/ourfinance/forecast"
	"github.com/robinvdvleuten/ourfinance/ledger"
)

// maxForecastBody limits the size of a forecast request.
const maxForecastBody = 1 << 20

// handlePostForecast handles POST requests to /api/forecast.
//
// The body is a JSON object with the fields of forecast.Params:
//
//	{"window": 6, "horizon": 12, "granularity": "monthly", "currency": "USD",
//	 "scenarios": [{"name": "raise", "adjustments": [{"amount": "500", "date": "2024-07-01", "recurring": true}]}],
//	 "growth": {"income": 0.03, "expenses": 0.025, "return": 0.07},
//	 "tax": {"brackets": [{"rate": "0.1", "up_to": "20000"}, {"rate": "0.2"}]}}
//
// Omitted fields take the server's defaults, including its configured
// scenarios. An empty body runs the default forecast.
func (s *Server) handlePostForecast(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	params := forecast.Params{
		Window:      s.Forecast.Window,
		Horizon:     s.Forecast.Horizon,
		Granularity: s.Forecast.Granularity,
		Currency:    s.Forecast.Currency,
		Scenarios:   s.Forecast.Scenarios,
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxForecastBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		var invalid *ledger.InvalidParameterError
		if !errors.As(err, &invalid) {
			err = &ledger.InvalidParameterError{Parameter: "body", Reason: err.Error()}
		}
		s.writeError(w, r, err)
		return
	}

	result, err := forecast.Run(snapshot, params)
	s.metrics.ObserveForecast(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONResponse(w, result)
}
