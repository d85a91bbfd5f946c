package pricing

import "math"

// minFlowRate keeps the print time finite when a quality has no flow rate.
const minFlowRate = 0.001

// Params are the customer's choices for one quote.
type Params struct {
	Material      string
	Quality       string
	InfillPercent float64
}

// Breakdown is every intermediate quantity of a quote.
type Breakdown struct {
	Volume            float64 `json:"volume_mm3"`         // solid model volume, mm³
	EffectiveFraction float64 `json:"effective_fraction"` // shell + infill share of the solid volume
	ExtrudedVolume    float64 `json:"extruded_mm3"`       // deposited material, mm³
	Mass              float64 `json:"mass_g"`
	MaterialCost      float64 `json:"material_cost"`
	TimeHours         float64 `json:"time_hours"`
	TimeCost          float64 `json:"time_cost"`
	SetupFee          int64   `json:"setup_fee"`
	Subtotal          float64 `json:"subtotal"`
	MinJobApplied     bool    `json:"min_job_applied"`
	Total             float64 `json:"total"`
	Currency          string  `json:"currency"`
}

// Estimate prices a print of the given solid volume in mm³.
//
// The extruded volume is the solid volume scaled by the shell share of the
// chosen quality plus the infill share, and by the support allowance. Mass
// and material cost follow from the material density and price per kg; print
// time follows from the quality's flow rate. The total never drops below the
// table's minimum job price.
func Estimate(volume float64, params Params, rates *RateTable) Breakdown {
	material := rates.Material(params.Material)
	quality := rates.Quality(params.Quality)

	effective := quality.ShellFactor + ClampInfill(params.InfillPercent)/100.0*rates.InfillEfficiency
	supportMultiplier := 1.0 + math.Max(0, rates.SupportFactor)
	extruded := volume * effective * supportMultiplier

	mass := extruded / 1000.0 * material.Density
	materialCost := mass / 1000.0 * material.CostPerKg

	flow := math.Max(quality.FlowRate, minFlowRate)
	timeHours := extruded / (flow * 3600.0)
	timeCost := timeHours * rates.MachineRatePerHour

	subtotal := materialCost + timeCost + float64(rates.SetupFee)
	total := math.Max(subtotal, rates.MinJobPrice)

	return Breakdown{
		Volume:            volume,
		EffectiveFraction: effective,
		ExtrudedVolume:    extruded,
		Mass:              mass,
		MaterialCost:      materialCost,
		TimeHours:         timeHours,
		TimeCost:          timeCost,
		SetupFee:          rates.SetupFee,
		Subtotal:          subtotal,
		MinJobApplied:     total > subtotal,
		Total:             total,
		Currency:          rates.Currency,
	}
}

// ClampInfill limits an infill percentage to [0, 100]. NaN counts as 0.
func ClampInfill(percent float64) float64 {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
