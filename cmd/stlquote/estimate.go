package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/internal/config"
	"github.com/unitech3d/stlquote/internal/quote"
	"github.com/unitech3d/stlquote/pkg/analysis"
	"github.com/unitech3d/stlquote/pkg/pricing"
)

type estimateOptions struct {
	material   string
	quality    string
	infill     string
	ratesFile  string
	previewDir string
	backend    string
	format     string
	asJSON     bool
}

func newEstimateCmd() *cobra.Command {
	opts := estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Quote a single STL file",
		Long:  "Run the same pipeline as POST /calculate on a local file and print the full cost breakdown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.material, "material", "m", quote.DefaultMaterial, "material key")
	f.StringVarP(&opts.quality, "quality", "q", quote.DefaultQuality, "quality key")
	f.StringVarP(&opts.infill, "infill", "i", "20", "infill percent, clamped to 0-100")
	f.StringVar(&opts.ratesFile, "rates", "", "YAML rate table (default: built-in rates)")
	f.StringVar(&opts.previewDir, "preview", "", "write a preview image into this directory")
	f.StringVar(&opts.backend, "backend", "raster", "preview backend: raster, fyne or none")
	f.StringVar(&opts.format, "format", "png", "preview format: png or webp")
	f.BoolVar(&opts.asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

type estimateOutput struct {
	File      string            `json:"file"`
	Triangles int               `json:"triangles"`
	Parsed    bool              `json:"parsed"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Preview   string            `json:"preview,omitempty"`
}

func runEstimate(cmd *cobra.Command, filename string, opts estimateOptions) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	pricingCfg := config.PricingConfig{RatesFile: opts.ratesFile, Rates: pricing.DefaultRateTable()}
	rates, err := config.OpenRateStore(pricingCfg, zap.NewNop())
	if err != nil {
		return err
	}

	var previews quote.PreviewSaver
	if opts.previewDir != "" {
		pc := config.DefaultPreviewConfig()
		pc.Backend = opts.backend
		pc.Format = opts.format
		store, err := newPreviewStore(pc, opts.previewDir, zap.NewNop())
		if err != nil {
			return err
		}
		previews = store
	}

	svc := quote.NewService(rates, previews, nil, zap.NewNop())
	res, err := svc.Quote(cmd.Context(), quote.Request{
		Filename: filepath.Base(filename),
		Data:     data,
		Material: opts.material,
		Quality:  opts.quality,
		Infill:   quote.ParseInfill(opts.infill),
	})
	if err != nil {
		return err
	}

	out := estimateOutput{
		File:      filename,
		Triangles: res.Report.TriangleCount,
		Parsed:    res.Report.Volume.OK,
		Breakdown: res.Breakdown,
	}
	if res.HasPreview {
		out.Preview = filepath.Join(opts.previewDir, filepath.Base(res.PreviewURL))
	}

	w := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printEstimate(w, out, res.Report)
	return nil
}

func printEstimate(w io.Writer, out estimateOutput, report *analysis.Report) {
	b := out.Breakdown

	fmt.Fprintln(w, "STL Quote")
	fmt.Fprintln(w, "=========")
	fmt.Fprintf(w, "File: %s\n", out.File)
	if !out.Parsed {
		fmt.Fprintln(w, "Warning: no triangles could be read, quoting the minimum job price")
	}
	fmt.Fprintf(w, "Triangles: %d\n", out.Triangles)
	fmt.Fprintf(w, "Dimensions: %s\n\n", analysis.FormatVector(report.Dimensions))

	fmt.Fprintln(w, "Material:")
	fmt.Fprintf(w, "  Volume: %.2f mm³\n", b.Volume)
	fmt.Fprintf(w, "  Extruded: %.2f mm³ (%.0f%% of solid)\n", b.ExtrudedVolume, b.EffectiveFraction*100)
	fmt.Fprintf(w, "  Mass: %.2f g\n", b.Mass)
	fmt.Fprintf(w, "  Print time: %.2f h\n\n", b.TimeHours)

	fmt.Fprintln(w, "Cost:")
	fmt.Fprintf(w, "  Material: %.0f %s\n", b.MaterialCost, b.Currency)
	fmt.Fprintf(w, "  Machine time: %.0f %s\n", b.TimeCost, b.Currency)
	fmt.Fprintf(w, "  Setup fee: %d %s\n", b.SetupFee, b.Currency)
	fmt.Fprintf(w, "  Subtotal: %.0f %s\n", b.Subtotal, b.Currency)
	if b.MinJobApplied {
		fmt.Fprintln(w, "  Minimum job price applied")
	}
	fmt.Fprintf(w, "  Total: %.0f %s\n", b.Total, b.Currency)

	if out.Preview != "" {
		fmt.Fprintf(w, "\nPreview: %s\n", out.Preview)
	}
}
