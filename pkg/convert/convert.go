// Package convert compiles nested, schema-shaped curriculum documents into
// the flat node/edge dataset the map loads. A Rules value says which
// payload keys hold which kind of object and how objects nest.
package convert

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// idNamespace seeds ids for objects without a code or id of their own.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("conceptmap:convert"))

// Result is a converted dataset plus the problems skipped along the way.
type Result struct {
	Dataset  *model.Dataset
	Warnings []string
}

// Converter walks payloads with a fixed rule set. It is not safe for
// concurrent use.
type Converter struct {
	rules    Rules
	nodes    []*model.Node
	edges    []*model.Edge
	warnings []string
}

// New returns a Converter for rules. Missing field names are filled with
// the defaults.
func New(rules Rules) (*Converter, error) {
	rules = rules.withDefaults()
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Converter{rules: rules}, nil
}

// Decode reads a JSON payload and converts it.
func (c *Converter) Decode(r io.Reader) (*Result, error) {
	var payload map[string]any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding source: %w", err)
	}
	return c.Convert(payload), nil
}

// Convert walks every root list of payload. Ids come from an object's
// "kod" or "id" field; objects without either get a UUID derived from
// their position in the payload, so repeated runs produce the same file.
func (c *Converter) Convert(payload map[string]any) *Result {
	c.nodes, c.edges, c.warnings = nil, nil, nil
	for _, root := range c.rules.Roots {
		for i, item := range objects(payload[root]) {
			c.walk(root, item, "", "contains", fmt.Sprintf("%s/%d", root, i))
		}
	}
	ds := &model.Dataset{
		Metadata: map[string]any{
			"version":     "1.0",
			"description": "Compiled from schema dataset",
		},
		Nodes:    c.nodes,
		Edges:    c.edges,
		Clusters: c.areaClusters(),
	}
	debug.Log("convert: %d nodes, %d edges, %d warnings", len(ds.Nodes), len(ds.Edges), len(c.warnings))
	return &Result{Dataset: ds, Warnings: c.warnings}
}

func (c *Converter) walk(entity string, obj map[string]any, parent string, relation string, path string) {
	rule, ok := c.rules.Entities[entity]
	if !ok {
		c.warnings = append(c.warnings, fmt.Sprintf("entity %q has no rule; skipped %s", entity, path))
		return
	}

	id := stableID(obj)
	if id == "" {
		id = uuid.NewSHA1(idNamespace, []byte(path)).String()
	}
	label := str(obj[rule.LabelField])
	if label == "" {
		label = "Unnamed " + rule.Type
	}
	n := &model.Node{
		ID:     id,
		Type:   model.NodeType(rule.Type),
		Label:  label,
		AreaID: parent,
	}
	if rule.Type == string(model.TypeArea) {
		n.AreaID = id
	}
	if rule.DescriptionField != noField {
		n.Description = str(obj[rule.DescriptionField])
	}
	if rule.OrderField != "" {
		n.Order = number(obj[rule.OrderField])
	}
	c.nodes = append(c.nodes, n)

	if parent != "" {
		c.edges = append(c.edges, &model.Edge{
			ID:       parent + "__" + id,
			Source:   parent,
			Target:   id,
			Relation: model.Relation(relation),
		})
	}

	for _, link := range rule.Children {
		// contains attaches to this node; other relations hang off the parent.
		next := id
		if link.Relation != "contains" && parent != "" {
			next = parent
		}
		for i, child := range objects(obj[link.Field]) {
			c.walk(link.Entity, child, next, link.Relation, fmt.Sprintf("%s/%s/%d", path, link.Field, i))
		}
	}
}

// areaClusters emits one cluster definition per area listing the area and
// every node that names it directly.
func (c *Converter) areaClusters() []model.ClusterDefinition {
	var order []string
	byArea := make(map[string]*model.ClusterDefinition)
	for _, n := range c.nodes {
		if n.Type != model.TypeArea {
			continue
		}
		if _, ok := byArea[n.ID]; !ok {
			order = append(order, n.ID)
		}
		byArea[n.ID] = &model.ClusterDefinition{
			ID:     "cluster_" + n.ID,
			AreaID: n.ID,
			Label:  n.Label,
			Nodes:  []string{n.ID},
		}
	}
	for _, n := range c.nodes {
		def, ok := byArea[n.AreaID]
		if !ok || n.ID == n.AreaID {
			continue
		}
		def.Nodes = append(def.Nodes, n.ID)
	}
	out := make([]model.ClusterDefinition, 0, len(order))
	for _, id := range order {
		out = append(out, *byArea[id])
	}
	return out
}

func stableID(obj map[string]any) string {
	for _, key := range []string{"kod", "id"} {
		if s := str(obj[key]); s != "" {
			return s
		}
	}
	return ""
}

func objects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func number(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return model.Float(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return model.Float(f)
		}
	}
	return nil
}
