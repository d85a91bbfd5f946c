package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/unitech3d/stlquote/internal/quote"
)

const (
	msgBadForm         = "Bad form data"
	msgMissingFile     = "Missing STL file"
	msgInternal        = "internal server error"
	msgTooManyRequests = "too many requests"
)

type errorResponse struct {
	Error string `json:"error"`
}

// quoteResponse is the /calculate success body. Field order is part of the
// contract. Money is written as an exact integer literal of any size.
type quoteResponse struct {
	VolumeMM3     float64     `json:"volume_mm3"`
	MassG         float64     `json:"mass_g"`
	TimeHours     float64     `json:"time_hours"`
	MaterialCost  json.Number `json:"material_cost"`
	TimeCost      json.Number `json:"time_cost"`
	SetupFee      int64       `json:"setup_fee"`
	MinJobApplied bool        `json:"min_job_applied"`
	Price         json.Number `json:"price"`
	Currency      string      `json:"currency"`
	PreviewURL    *string     `json:"preview_url"`
}

// newQuoteResponse rounds the breakdown for display: two decimals for
// volume, mass and hours, whole units for money. It reports false when a
// value is not finite and cannot be represented.
func newQuoteResponse(res *quote.Result) (quoteResponse, bool) {
	b := res.Breakdown
	for _, v := range []float64{b.Volume, b.Mass, b.TimeHours, b.MaterialCost, b.TimeCost, b.Total} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return quoteResponse{}, false
		}
	}

	resp := quoteResponse{
		VolumeMM3:     roundHalfEven(b.Volume, 2).InexactFloat64(),
		MassG:         roundHalfEven(b.Mass, 2).InexactFloat64(),
		TimeHours:     roundHalfEven(b.TimeHours, 2).InexactFloat64(),
		MaterialCost:  wholeUnits(b.MaterialCost),
		TimeCost:      wholeUnits(b.TimeCost),
		SetupFee:      b.SetupFee,
		MinJobApplied: b.MinJobApplied,
		Price:         wholeUnits(b.Total),
		Currency:      b.Currency,
	}
	if res.HasPreview {
		url := res.PreviewURL
		resp.PreviewURL = &url
	}
	return resp, true
}

// roundHalfEven rounds the exact binary value of v, so 2.675 (stored as
// 2.67499...) rounds down while 0.125 ties to 0.12.
func roundHalfEven(v float64, places int32) decimal.Decimal {
	exact, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', 1100, 64))
	if err != nil {
		exact = decimal.NewFromFloat(v)
	}
	return exact.RoundBank(places)
}

// wholeUnits rounds v to an integer without narrowing it to int64.
func wholeUnits(v float64) json.Number {
	return json.Number(roundHalfEven(v, 0).String())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("Not found"))
}
