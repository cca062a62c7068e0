// Package dataset decodes concept-map JSON into the model and derives the
// per-node fields the rest of the engine relies on: normalised types,
// detail levels and ranks, expertise bands and stable edge ids.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vanderheijden86/conceptmap/pkg/debug"
	"github.com/vanderheijden86/conceptmap/pkg/detail"
	"github.com/vanderheijden86/conceptmap/pkg/filter"
	"github.com/vanderheijden86/conceptmap/pkg/metrics"
	"github.com/vanderheijden86/conceptmap/pkg/model"
)

// ErrEmptyDataset is returned for input without a single usable node.
var ErrEmptyDataset = errors.New("dataset has no nodes")

// edgeNamespace seeds the name-based UUIDs given to edges without an id.
var edgeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("conceptmap:edge"))

// Options controls the derived fields.
type Options struct {
	Table          *detail.Table
	TypeLevels     detail.TypeLevels
	ExpertiseOrder []string
}

// DefaultOptions uses the stock thresholds, type levels and band order.
func DefaultOptions() Options {
	return Options{
		Table:          detail.NewTable(detail.DefaultThresholds()),
		TypeLevels:     detail.DefaultTypeLevels(),
		ExpertiseOrder: filter.DefaultExpertiseOrder,
	}
}

type rawEdge struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Relation    string `json:"relation"`
	Directional *bool  `json:"directional"`
}

type rawDataset struct {
	Metadata     map[string]any            `json:"metadata"`
	Nodes        []*model.Node             `json:"nodes"`
	Edges        []rawEdge                 `json:"edges"`
	Clusters     []model.ClusterDefinition `json:"clusters"`
	AreaClusters []model.AreaClusterGroup  `json:"areaClusters"`
}

// Decode reads one dataset document from r.
func Decode(r io.Reader, opts Options) (*model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data, opts)
}

// Parse decodes data and normalises the result. Nodes without an id are
// dropped; edges are kept even when an endpoint is missing so diagnostics
// can report them.
func Parse(data []byte, opts Options) (*model.Dataset, error) {
	defer metrics.Timer(metrics.DatasetParse)()

	var raw rawDataset
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing dataset JSON: %w", err)
	}

	ds := &model.Dataset{
		Metadata:     raw.Metadata,
		Clusters:     raw.Clusters,
		AreaClusters: raw.AreaClusters,
	}
	dropped := 0
	for _, n := range raw.Nodes {
		if n == nil || n.ID == "" {
			dropped++
			continue
		}
		ds.Nodes = append(ds.Nodes, n)
	}
	if len(ds.Nodes) == 0 {
		return nil, ErrEmptyDataset
	}
	for i, e := range raw.Edges {
		ds.Edges = append(ds.Edges, convertEdge(e, i))
	}

	Normalize(ds, opts)
	debug.Log("dataset: %d nodes (%d dropped), %d edges, %d clusters, %d area clusters",
		len(ds.Nodes), dropped, len(ds.Edges), len(ds.Clusters), len(ds.AreaClusters))
	return ds, nil
}

func convertEdge(e rawEdge, index int) *model.Edge {
	rel := e.Type
	if rel == "" {
		rel = e.Relation
	}
	if rel == "" {
		rel = string(model.RelRelated)
	}
	id := e.ID
	if id == "" {
		id = EdgeID(e.Source, e.Target, model.Relation(rel), index)
	}
	return &model.Edge{
		ID:          id,
		Source:      e.Source,
		Target:      e.Target,
		Relation:    model.Relation(rel),
		Directional: e.Directional,
	}
}

// EdgeID derives a stable id for an edge that has none. The position in
// the edge list keeps parallel edges apart.
func EdgeID(source, target string, rel model.Relation, index int) string {
	name := source + "\x00" + target + "\x00" + string(rel) + "\x00" + strconv.Itoa(index)
	return uuid.NewSHA1(edgeNamespace, []byte(name)).String()
}

// Normalize fills derived node fields in place. It is safe to call again
// after the options change.
func Normalize(ds *model.Dataset, opts Options) {
	if opts.Table == nil {
		opts.Table = detail.NewTable(detail.DefaultThresholds())
	}
	if opts.TypeLevels == nil {
		opts.TypeLevels = detail.DefaultTypeLevels()
	}
	if opts.ExpertiseOrder == nil {
		opts.ExpertiseOrder = filter.DefaultExpertiseOrder
	}
	for _, n := range ds.Nodes {
		NormalizeNode(n)
		n.DetailLevel = opts.TypeLevels.For(n.Type)
		n.DetailRank = opts.Table.Rank(n.DetailLevel)
		n.Levels = filter.ExtractLevels(n.Expertise, opts.ExpertiseOrder)
	}
}

// NormalizeNode promotes topics flagged as top-level areas to areas.
func NormalizeNode(n *model.Node) {
	if n.Type == model.TypeTopic && n.Metadata != nil && n.Metadata.IsTopLevelArea {
		n.Type = model.TypeArea
	}
}

// Renderable splits off what a graph renderer draws: every non-area node
// and every edge whose endpoints are both non-area nodes or unknown ids.
func Renderable(ds *model.Dataset) ([]*model.Node, []*model.Edge) {
	byID := ds.Index()
	nodes := make([]*model.Node, 0, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if n.Type != model.TypeArea {
			nodes = append(nodes, n)
		}
	}
	isArea := func(id string) bool {
		n, ok := byID[id]
		return ok && n.Type == model.TypeArea
	}
	edges := make([]*model.Edge, 0, len(ds.Edges))
	for _, e := range ds.Edges {
		if !isArea(e.Source) && !isArea(e.Target) {
			edges = append(edges, e)
		}
	}
	return nodes, edges
}

// Encode writes ds as indented JSON, the format Parse reads.
func Encode(w io.Writer, ds *model.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return nil
}
