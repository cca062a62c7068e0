package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/conceptmap/internal/datasource"
	"github.com/vanderheijden86/conceptmap/pkg/convert"
	"github.com/vanderheijden86/conceptmap/pkg/dataset"
)

var (
	convertSource string
	convertOutput string
	convertRules  string
	convertForce  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Compile a schema document into a concept-map dataset",
	Long: `Convert walks a nested curriculum document (area clusters, clusters,
areas, topics, goals) and writes the flat node/edge dataset cmap loads.

Rules naming the payload keys come from --rules (YAML); without it the
built-in rules are used. An output ending in .db or .sqlite is written as
a SQLite dataset.`,
	Example: `  cmap convert --source schema.json --output dataset.json
  cmap convert --source schema.json --output dataset.db --rules rules.yaml`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertSource, "source", "", "schema document to convert (required)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "dataset file to write (required)")
	convertCmd.Flags().StringVar(&convertRules, "rules", "", "YAML conversion rules")
	convertCmd.Flags().BoolVarP(&convertForce, "force", "f", false, "overwrite an existing output file")
	_ = convertCmd.MarkFlagRequired("source")
	_ = convertCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	rules := convert.DefaultRules()
	if convertRules != "" {
		var err error
		if rules, err = convert.LoadRules(convertRules); err != nil {
			return &exitError{code: ExitConfigError, err: err}
		}
	}
	c, err := convert.New(rules)
	if err != nil {
		return &exitError{code: ExitConfigError, err: err}
	}

	in, err := os.Open(convertSource)
	if err != nil {
		return dataError(err)
	}
	defer in.Close()
	res, err := c.Decode(in)
	if err != nil {
		return dataError(fmt.Errorf("%s: %w", convertSource, err))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	if convertForce {
		if err := os.Remove(convertOutput); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if datasource.Classify(convertOutput) == datasource.KindSQLite {
		if err := datasource.WriteSQLite(cmd.Context(), convertOutput, res.Dataset); err != nil {
			return err
		}
	} else if err := writeDataset(convertOutput, res); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d nodes, %d edges, %d clusters\n",
		convertOutput, len(res.Dataset.Nodes), len(res.Dataset.Edges), len(res.Dataset.Clusters))
	return nil
}

func writeDataset(path string, res *convert.Result) error {
	if !convertForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Write then rename so a failed encode leaves no half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cmap-convert-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := dataset.Encode(tmp, res.Dataset); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
