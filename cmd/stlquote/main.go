package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitech3d/stlquote/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stlquote",
		Short: "Instant 3D print quotes for ASCII STL models",
		Long: `stlquote estimates the enclosed volume of an ASCII STL model and prices a
3D print from it. It runs as an HTTP service for the web front end and can
quote or inspect single files from the command line.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newEstimateCmd(), newInfoCmd(), newTrianglesCmd(), newVersionCmd())
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
