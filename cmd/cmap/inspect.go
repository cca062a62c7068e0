package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/conceptmap/pkg/analysis"
	"github.com/vanderheijden86/conceptmap/pkg/export"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/overlay"
)

var (
	inspectNode    string
	inspectMetrics bool
	inspectJSON    bool
	inspectStrict  bool
	inspectView    viewFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dataset]",
	Short: "Report dataset problems and what a view shows",
	Long: `Inspect checks the dataset for dangling edges, unknown types,
hierarchy cycles and unassigned nodes, then reports how many nodes and
edges are visible at the requested zoom and filters.

With --node the info panel for that node is appended. Output is rendered
as styled markdown when stdout is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectNode, "node", "", "show the info panel for this node id")
	inspectCmd.Flags().BoolVar(&inspectMetrics, "metrics", false, "append timing metrics")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the diagnostics report as JSON")
	inspectCmd.Flags().BoolVar(&inspectStrict, "strict", false, "exit with status 3 when problems are found")
	inspectView.register(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ld, err := openDataset(cmd.Context(), datasetArg(args))
	if err != nil {
		return err
	}
	report := analysis.Analyze(ld.dataset)
	if inspectJSON {
		if err := export.WriteJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		return strictResult(report)
	}

	s, sched, err := buildSession(ld, overlay.NewSVGSurface(1, 1, ""), 0, 0)
	if err != nil {
		return err
	}
	defer s.Destroy()
	if inspectNode != "" {
		inspectView.selected = inspectNode
	}
	if err := inspectView.apply(s); err != nil {
		return err
	}
	sched.Flush()

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n", ld.title())
	doc.WriteString(report.Markdown())
	doc.WriteString("\n## View\n\n")
	for _, line := range summary(s) {
		fmt.Fprintf(&doc, "- %s\n", line)
	}
	fmt.Fprintf(&doc, "- %d area polygons drawn\n", len(s.Overlay.Polygons()))
	if inspectNode != "" {
		doc.WriteString("\n")
		doc.WriteString(s.Info())
		doc.WriteString("\n")
	}
	if inspectMetrics {
		writeMetrics(&doc)
	}

	if err := printMarkdown(cmd.OutOrStdout(), doc.String()); err != nil {
		return err
	}
	return strictResult(report)
}

func strictResult(report analysis.Report) error {
	if inspectStrict && report.Problems() > 0 {
		return dataError(fmt.Errorf("%d problems found", report.Problems()))
	}
	return nil
}

func writeMetrics(w io.Writer) {
	fmt.Fprintln(w, "\n## Metrics")
	fmt.Fprintln(w, "\n| Timer | Count | Avg ms | Max ms |")
	fmt.Fprintln(w, "|---|---:|---:|---:|")
	for _, st := range metrics.AllTimingStats() {
		if st.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "| %s | %d | %.2f | %.2f |\n", st.Name, st.Count, st.AvgMs, st.MaxMs)
	}
	counters := metrics.AllCounterStats()
	if len(counters) == 0 {
		return
	}
	fmt.Fprintln(w, "\n| Counter | Value |")
	fmt.Fprintln(w, "|---|---:|")
	for _, c := range counters {
		fmt.Fprintf(w, "| %s | %d |\n", c.Name, c.Value)
	}
}

// printMarkdown styles md with glamour when w is the terminal and writes it
// verbatim otherwise.
func printMarkdown(w io.Writer, md string) error {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil || width <= 0 {
			width = 100
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(min(width, 120)))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				_, err = io.WriteString(w, out)
				return err
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}
