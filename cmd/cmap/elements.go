package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

var (
	elementsStyles bool
	elementsOutput string
)

var elementsCmd = &cobra.Command{
	Use:   "elements [dataset]",
	Short: "Print the laid-out element list as JSON",
	Long: `Elements lays out the dataset and prints the node and edge elements a
graph renderer consumes: ids, labels, detail ranks, sizes, shapes and
positions.

With --styles the style rules for the configured node and edge styles are
printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runElements,
}

func init() {
	elementsCmd.Flags().BoolVar(&elementsStyles, "styles", false, "print renderer style rules instead of elements")
	elementsCmd.Flags().StringVarP(&elementsOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(elementsCmd)
}

func runElements(cmd *cobra.Command, args []string) (err error) {
	var out io.Writer = cmd.OutOrStdout()
	if elementsOutput != "" {
		f, err := os.Create(elementsOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", elementsOutput, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil && cerr != nil {
				err = cerr
			}
		}()
		out = f
	}

	if elementsStyles {
		opts, err := sessionOptions()
		if err != nil {
			return err
		}
		return export.WriteJSON(out, export.BuildStyles(opts.Styles, opts.Table))
	}

	ld, err := openDataset(cmd.Context(), datasetArg(args))
	if err != nil {
		return err
	}
	// Element positions do not depend on the overlay; an SVG surface is the
	// cheapest one to hand over.
	s, _, err := buildSession(ld, overlay.NewSVGSurface(1, 1, ""), 0, 0)
	if err != nil {
		return err
	}
	defer s.Destroy()
	return export.WriteJSON(out, s.Elements())
}
