package reader

import (
	"errors"
	"fmt"
	"maps"

	"github.com/paulmach/orb"

	"linegraph/model"
	"linegraph/utils"
)

var (
	// ErrMissingGeometry 要素没有几何
	ErrMissingGeometry = errors.New("要素缺少几何")
	// ErrUnsupportedGeometry 只支持 LineString / MultiLineString
	ErrUnsupportedGeometry = errors.New("不支持的几何类型")
)

// LayerAttr 边属性中记录来源图层的键
const LayerAttr = "layer"

// Decomposer 把线要素拆成待合并的边
type Decomposer struct {
	Simplify bool // true: 每条线只取首尾两点; false: 每两个相邻点一条边
	Resolver utils.Resolver
}

// Edges 拆分一个要素
func (d Decomposer) Edges(f Feature) ([]model.CandidateEdge, error) {
	if f.Geometry == nil {
		return nil, &FeatureError{Layer: f.Layer, Index: f.Index, Err: ErrMissingGeometry}
	}

	attrs := make(map[string]any, len(f.Properties)+1)
	maps.Copy(attrs, f.Properties)
	attrs[LayerAttr] = f.Layer

	var edges []model.CandidateEdge
	switch g := f.Geometry.(type) {
	case orb.LineString:
		edges = d.fromLine(g, attrs, edges)
	case orb.MultiLineString:
		for _, part := range g {
			edges = d.fromLine(part, attrs, edges)
		}
	default:
		err := fmt.Errorf("%w: %s", ErrUnsupportedGeometry, f.Geometry.GeoJSONType())
		return nil, &FeatureError{Layer: f.Layer, Index: f.Index, Err: err}
	}
	return edges, nil
}

func (d Decomposer) fromLine(line orb.LineString, attrs map[string]any, out []model.CandidateEdge) []model.CandidateEdge {
	if len(line) < 2 {
		return out
	}
	if d.Simplify {
		return append(out, d.edge(line[0], line[len(line)-1], attrs))
	}
	for i := 0; i < len(line)-1; i++ {
		out = append(out, d.edge(line[i], line[i+1], attrs))
	}
	return out
}

func (d Decomposer) edge(p1, p2 orb.Point, attrs map[string]any) model.CandidateEdge {
	from := d.Resolver.Coord(model.Coord{Lon: p1.X(), Lat: p1.Y()})
	to := d.Resolver.Coord(model.Coord{Lon: p2.X(), Lat: p2.Y()})
	weight := utils.EdgeWeight(from, to)

	// 每条边一份独立的属性
	edgeAttrs := maps.Clone(attrs)
	edgeAttrs["weight"] = weight
	edgeAttrs["node_1_lon"] = from.Lon
	edgeAttrs["node_1_lat"] = from.Lat
	edgeAttrs["node_2_lon"] = to.Lon
	edgeAttrs["node_2_lat"] = to.Lat

	return model.CandidateEdge{From: from, To: to, Weight: weight, Attrs: edgeAttrs}
}
