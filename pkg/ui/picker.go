package ui

import (
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/conceptmap/pkg/config"
)

const pickerWidth = 56

// NewDatasetPicker builds the dataset switcher: a single select over the
// catalog whose choice is written to value.
func NewDatasetPicker(catalog []config.Dataset, value *string) *huh.Form {
	opts := make([]huh.Option[string], 0, len(catalog))
	for _, d := range catalog {
		label := d.Label
		if label == "" {
			label = d.Value
		}
		opts = append(opts, huh.NewOption(label, d.Value))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Dataset").
				Description("Switch the map to another dataset").
				Options(opts...).
				Value(value),
		),
	).WithTheme(huh.ThemeDracula()).WithWidth(pickerWidth).WithShowHelp(true)
}
