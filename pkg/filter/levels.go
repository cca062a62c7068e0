// Package filter decides which nodes and edges of a loaded concept map are
// visible. Visibility combines the active type chips, the active expertise
// bands, an optional query predicate and the detail level of the current
// zoom. The same pass publishes the node set cluster overlays may draw.
package filter

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultExpertiseOrder is the CEFR-style band order used to expand ranges.
var DefaultExpertiseOrder = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// FallbackLevel is the single expertise chip offered when no node carries
// a band.
const FallbackLevel = "A1"

var bandPattern = regexp.MustCompile(`[A-C][1-2]`)

var dashReplacer = strings.NewReplacer("–", "-")

// ExtractLevels parses an expertise field. "B1-B2" (spaces ignored, en dash
// accepted) expands to every band between the two ends in order; anything
// else yields the bands mentioned verbatim, e.g. "A2, C1" gives [A2 C1].
func ExtractLevels(value string, order []string) []string {
	normalized := strings.Join(strings.Fields(value), "")
	normalized = dashReplacer.Replace(normalized)

	if parts := strings.Split(normalized, "-"); len(parts) == 2 {
		start := slices.Index(order, parts[0])
		end := slices.Index(order, parts[1])
		if start >= 0 && end >= start {
			return slices.Clone(order[start : end+1])
		}
	}
	return bandPattern.FindAllString(normalized, -1)
}
