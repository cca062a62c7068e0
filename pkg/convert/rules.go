package convert

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultLabelField       = "nazev"
	defaultDescriptionField = "charakteristika"
	// noField disables an optional field mapping in a rules file.
	noField = "-"
)

// ChildLink names a list field holding child objects and the rule used
// for each of them.
type ChildLink struct {
	Field    string `yaml:"field"`
	Entity   string `yaml:"entity"`
	Relation string `yaml:"relation,omitempty"`
}

// NodeRule maps one kind of source object to a node.
type NodeRule struct {
	Type             string      `yaml:"type"`
	LabelField       string      `yaml:"label_field,omitempty"`
	DescriptionField string      `yaml:"description_field,omitempty"` // "-" disables
	OrderField       string      `yaml:"order_field,omitempty"`
	Children         []ChildLink `yaml:"children,omitempty"`
}

// Rules is a complete mapping. Roots lists the top-level payload keys to
// walk, in output order.
type Rules struct {
	Roots    []string            `yaml:"roots"`
	Entities map[string]NodeRule `yaml:"entities"`
}

var (
	ErrNoRoots     = errors.New("convert: no root entities defined")
	ErrUnknownRoot = errors.New("convert: root entity has no rule")
)

// DefaultRules reproduces the curriculum schema mapping: education areas
// become area clusters, fields become clusters, thematic circuits become
// areas, nodal points become topics and expected outcomes become
// educational goals.
func DefaultRules() Rules {
	return Rules{
		Roots: []string{"vzdelavaciOblasti"},
		Entities: map[string]NodeRule{
			"vzdelavaciOblasti": {
				Type:     "areaCluster",
				Children: []ChildLink{{Field: "vzdelavaciObory", Entity: "vzdelavaciObory"}},
			},
			"vzdelavaciObory": {
				Type:     "cluster",
				Children: []ChildLink{{Field: "tematickeOkruhy", Entity: "tematickeOkruhy"}},
			},
			"tematickeOkruhy": {
				Type:     "area",
				Children: []ChildLink{{Field: "uzloveBody", Entity: "uzloveBody"}},
			},
			"uzloveBody": {
				Type:     "topic",
				Children: []ChildLink{{Field: "ocekavaneVysledkyUceni", Entity: "ocekavaneVysledkyUceni"}},
			},
			"ocekavaneVysledkyUceni": {Type: "educationalGoal"},
		},
	}.withDefaults()
}

// withDefaults fills field names a rules file may leave out.
func (r Rules) withDefaults() Rules {
	out := Rules{Roots: r.Roots, Entities: make(map[string]NodeRule, len(r.Entities))}
	for name, rule := range r.Entities {
		if rule.LabelField == "" {
			rule.LabelField = defaultLabelField
		}
		if rule.DescriptionField == "" {
			rule.DescriptionField = defaultDescriptionField
		}
		children := make([]ChildLink, len(rule.Children))
		for i, c := range rule.Children {
			if c.Relation == "" {
				c.Relation = "contains"
			}
			children[i] = c
		}
		rule.Children = children
		out.Entities[name] = rule
	}
	return out
}

// Validate checks that there is something to walk.
func (r Rules) Validate() error {
	if len(r.Roots) == 0 {
		return ErrNoRoots
	}
	for _, root := range r.Roots {
		if _, ok := r.Entities[root]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRoot, root)
		}
	}
	return nil
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parsing rules: %w", err)
	}
	r = r.withDefaults()
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules: %w", err)
	}
	return ParseRules(data)
}
