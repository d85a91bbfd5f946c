package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unitech3d/stlquote/pkg/analysis"
	"github.com/unitech3d/stlquote/pkg/stl"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Display general information about an STL file",
		Long:  "Show triangle count, bounding box, dimensions, surface area and the enclosed volume estimate.",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	mesh, err := stl.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing STL file: %w", err)
	}

	result := analysis.Analyze(mesh)
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "STL File Information")
	fmt.Fprintln(w, "====================")
	if result.Name != "" {
		fmt.Fprintf(w, "Name: %s\n", result.Name)
	}
	fmt.Fprintf(w, "File: %s\n\n", filename)

	if mesh.IsEmpty() {
		fmt.Fprintln(w, "No complete triangles found.")
		return nil
	}

	fmt.Fprintln(w, "Model Statistics:")
	fmt.Fprintf(w, "  Triangles: %d\n", result.TriangleCount)
	fmt.Fprintf(w, "  Surface Area: %.6f mm²\n\n", result.SurfaceArea)

	fmt.Fprintln(w, "Bounding Box:")
	fmt.Fprintf(w, "  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
	fmt.Fprintf(w, "  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
	fmt.Fprintf(w, "  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

	fmt.Fprintln(w, "Dimensions:")
	fmt.Fprintf(w, "  Width (X): %.6f mm\n", result.Dimensions.X)
	fmt.Fprintf(w, "  Depth (Y): %.6f mm\n", result.Dimensions.Y)
	fmt.Fprintf(w, "  Height (Z): %.6f mm\n", result.Dimensions.Z)
	fmt.Fprintf(w, "  Diagonal: %.6f mm\n", result.BoundingBox.Diagonal())
	fmt.Fprintf(w, "  Volume: %.6f mm³\n", result.Volume.Volume)
	return nil
}
