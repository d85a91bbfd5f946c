// Package quote runs the quote pipeline: parse the upload, estimate its
// volume, draw a preview and price the result.
package quote

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/pkg/analysis"
	"github.com/unitech3d/stlquote/pkg/geometry"
	"github.com/unitech3d/stlquote/pkg/pricing"
	"github.com/unitech3d/stlquote/pkg/stl"
)

// Form defaults for omitted fields.
const (
	DefaultMaterial = "PLA"
	DefaultQuality  = "normal"
	DefaultInfill   = 20.0
)

// RateSource supplies the rate table for the next quote.
type RateSource interface {
	Rates() *pricing.RateTable
}

// PreviewSaver stores a preview image and returns its public URL.
type PreviewSaver interface {
	Save(ctx context.Context, filename string, triangles []geometry.Triangle) (url string, ok bool)
}

// Recorder receives per-quote measurements.
type Recorder interface {
	RecordQuote(material, quality string, minJobApplied bool, volume float64)
	RecordEmptyMesh()
	RecordPreview(ok bool)
}

// Request is one uploaded model with its pricing options.
type Request struct {
	Filename string
	Data     []byte
	Material string
	Quality  string
	Infill   float64
}

// Result is the outcome of a quote.
type Result struct {
	Filename   string
	Report     *analysis.Report
	Breakdown  pricing.Breakdown
	PreviewURL string
	HasPreview bool
}

// Service computes quotes. It is safe for concurrent use.
type Service struct {
	rates    RateSource
	previews PreviewSaver
	recorder Recorder
	logger   *zap.Logger
}

// NewService wires a quote service. previews and recorder may be nil.
func NewService(rates RateSource, previews PreviewSaver, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		rates:    rates,
		previews: previews,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "quote")),
	}
}

// Quote prices one upload. Unreadable models are not an error: they quote
// as volume 0 and therefore at the minimum job price. The only error is a
// cancelled context.
func (s *Service) Quote(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	mesh := stl.Parse(req.Data)
	report := analysis.Analyze(mesh)

	result := &Result{Filename: req.Filename, Report: report}

	if s.previews != nil && !mesh.IsEmpty() {
		result.PreviewURL, result.HasPreview = s.previews.Save(ctx, req.Filename, mesh.Triangles)
		if s.recorder != nil {
			s.recorder.RecordPreview(result.HasPreview)
		}
	}

	rates := s.rates.Rates()
	params := pricing.Params{
		Material:      NormalizeMaterial(req.Material),
		Quality:       NormalizeQuality(req.Quality),
		InfillPercent: req.Infill,
	}
	result.Breakdown = pricing.Estimate(report.Volume.Volume, params, rates)

	material := resolveKey(params.Material, rates.Materials, rates.DefaultMaterial)
	quality := resolveKey(params.Quality, rates.Qualities, rates.DefaultQuality)

	if s.recorder != nil {
		if !report.Volume.OK {
			s.recorder.RecordEmptyMesh()
		}
		s.recorder.RecordQuote(material, quality, result.Breakdown.MinJobApplied, report.Volume.Volume)
	}

	s.logger.Info("Quote computed",
		zap.String("filename", req.Filename),
		zap.Int("bytes", len(req.Data)),
		zap.Int("triangles", report.TriangleCount),
		zap.Bool("parsed", report.Volume.OK),
		zap.Float64("volume_mm3", report.Volume.Volume),
		zap.String("material", material),
		zap.String("quality", quality),
		zap.Float64("infill", pricing.ClampInfill(req.Infill)),
		zap.Float64("total", result.Breakdown.Total),
		zap.Bool("min_job_applied", result.Breakdown.MinJobApplied),
		zap.Bool("preview", result.HasPreview),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// NormalizeMaterial trims the form value; blank means PLA.
func NormalizeMaterial(material string) string {
	return orDefault(material, DefaultMaterial)
}

// NormalizeQuality trims the form value; blank means normal.
func NormalizeQuality(quality string) string {
	return orDefault(quality, DefaultQuality)
}

// ParseInfill reads the infill form value. Blank, unparseable and NaN
// values give the default of 20. Out of range values, infinities included,
// are kept and clamped at pricing time.
func ParseInfill(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultInfill
	}
	infill, err := strconv.ParseFloat(value, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return DefaultInfill
	}
	if math.IsNaN(infill) {
		return DefaultInfill
	}
	return infill
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// resolveKey names the table entry a lookup actually used.
func resolveKey[V any](name string, table map[string]V, fallback string) string {
	if _, ok := table[name]; ok {
		return name
	}
	return fallback
}
