package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/unitech3d/stlquote/pkg/analysis"
	"github.com/unitech3d/stlquote/pkg/stl"
)

type trianglesOptions struct {
	count    int
	largest  bool
	smallest bool
	byVolume bool
}

type triangleInfo struct {
	Index     int
	Area      float64
	Perimeter float64
	Volume    float64 // signed contribution to the enclosed volume
	Vertices  string
}

func newTrianglesCmd() *cobra.Command {
	opts := trianglesOptions{}

	cmd := &cobra.Command{
		Use:   "triangles [file]",
		Short: "Analyze triangles in an STL file",
		Long: `Display triangles with their area, perimeter and signed contribution to the
enclosed volume. Sorting by volume helps find facets with flipped winding.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTriangles(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", 10, "Number of triangles to display")
	cmd.Flags().BoolVarP(&opts.largest, "largest", "l", false, "Show largest triangles first")
	cmd.Flags().BoolVarP(&opts.smallest, "smallest", "s", false, "Show smallest triangles first")
	cmd.Flags().BoolVar(&opts.byVolume, "by-volume", false, "Rank by absolute volume contribution instead of area")
	return cmd
}

func runTriangles(cmd *cobra.Command, filename string, opts trianglesOptions) error {
	mesh, err := stl.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing STL file: %w", err)
	}

	w := cmd.OutOrStdout()
	if mesh.IsEmpty() {
		fmt.Fprintln(w, "No complete triangles found.")
		return nil
	}

	triangles := make([]triangleInfo, 0, len(mesh.Triangles))
	totalArea := 0.0
	negative := 0
	for i, tri := range mesh.Triangles {
		info := triangleInfo{
			Index:     i,
			Area:      tri.Area(),
			Perimeter: tri.Perimeter(),
			Volume:    tri.SignedVolume(),
			Vertices: fmt.Sprintf("%s, %s, %s",
				analysis.FormatVector(tri.V1),
				analysis.FormatVector(tri.V2),
				analysis.FormatVector(tri.V3)),
		}
		triangles = append(triangles, info)
		totalArea += info.Area
		if info.Volume < 0 {
			negative++
		}
	}

	key := func(t triangleInfo) float64 { return t.Area }
	metric := "Area"
	if opts.byVolume {
		key = func(t triangleInfo) float64 { return math.Abs(t.Volume) }
		metric = "Volume"
	}

	switch {
	case opts.largest:
		sort.SliceStable(triangles, func(i, j int) bool { return key(triangles[i]) > key(triangles[j]) })
	case opts.smallest:
		sort.SliceStable(triangles, func(i, j int) bool { return key(triangles[i]) < key(triangles[j]) })
	}

	count := opts.count
	if count > len(triangles) || count < 0 {
		count = len(triangles)
	}

	var title string
	switch {
	case opts.largest:
		title = fmt.Sprintf("Top %d Largest Triangles by %s", count, metric)
	case opts.smallest:
		title = fmt.Sprintf("Top %d Smallest Triangles by %s", count, metric)
	default:
		title = fmt.Sprintf("First %d Triangles", count)
	}

	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "Total triangles: %d\n", len(triangles))
	fmt.Fprintf(w, "Total surface area: %.6f mm²\n", totalArea)
	fmt.Fprintf(w, "Negative contributions: %d\n", negative)
	fmt.Fprintf(w, "Enclosed volume: %.6f mm³\n\n", analysis.EstimateVolume(mesh).Volume)

	for _, tri := range triangles[:count] {
		fmt.Fprintf(w, "Triangle #%d:\n", tri.Index)
		fmt.Fprintf(w, "  Area: %.6f mm²\n", tri.Area)
		fmt.Fprintf(w, "  Perimeter: %.6f mm\n", tri.Perimeter)
		fmt.Fprintf(w, "  Signed volume: %.6f mm³\n", tri.Volume)
		fmt.Fprintf(w, "  Vertices: %s\n\n", tri.Vertices)
	}
	return nil
}
