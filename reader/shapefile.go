package reader

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// decodeShapefile 逐条读取 .shp 记录，属性来自同名 .dbf
func decodeShapefile(path, layer string) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		r, err := shp.Open(path)
		if err != nil {
			yield(Feature{Layer: layer}, fmt.Errorf("无法打开 %s: %w", path, err))
			return
		}
		defer r.Close()

		fields := r.Fields()
		for r.Next() {
			n, shape := r.Shape()
			feat := Feature{
				Layer:      layer,
				Index:      n,
				Geometry:   shapeGeometry(shape),
				Properties: attributes(r, fields, n),
			}
			if !yield(feat, nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(Feature{Layer: layer}, fmt.Errorf("解析 %s 失败: %w", layer, err))
		}
	}
}

// shapeGeometry 把 shp 记录转换成 orb 几何
// 单部分的折线为 LineString，多部分为 MultiLineString；空记录返回 nil
func shapeGeometry(s shp.Shape) orb.Geometry {
	switch g := s.(type) {
	case nil, *shp.Null:
		return nil
	case *shp.PolyLine:
		return lineGeometry(g.Parts, g.Points)
	case *shp.PolyLineZ:
		return lineGeometry(g.Parts, g.Points)
	case *shp.PolyLineM:
		return lineGeometry(g.Parts, g.Points)
	case *shp.Polygon:
		var poly orb.Polygon
		for _, ring := range splitParts(g.Parts, g.Points) {
			poly = append(poly, orb.Ring(ring))
		}
		return poly
	case *shp.Point:
		return orb.Point{g.X, g.Y}
	case *shp.PointZ:
		return orb.Point{g.X, g.Y}
	case *shp.PointM:
		return orb.Point{g.X, g.Y}
	case *shp.MultiPoint:
		mp := make(orb.MultiPoint, 0, len(g.Points))
		for _, p := range g.Points {
			mp = append(mp, orb.Point{p.X, p.Y})
		}
		return mp
	default:
		// 其它类型 (PolygonZ, MultiPatch ...) 一律当作不支持的集合
		return orb.Collection{}
	}
}

func lineGeometry(parts []int32, points []shp.Point) orb.Geometry {
	lines := splitParts(parts, points)
	if len(lines) == 1 {
		return lines[0]
	}
	return orb.MultiLineString(lines)
}

// splitParts 按 Parts 中的起始下标切分点序列，越界的部分丢弃
func splitParts(parts []int32, points []shp.Point) []orb.LineString {
	lines := make([]orb.LineString, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		line := make(orb.LineString, 0, end-start)
		for _, p := range points[start:end] {
			line = append(line, orb.Point{p.X, p.Y})
		}
		lines = append(lines, line)
	}
	return lines
}

// attributes 读取第 n 条记录的 DBF 字段；数值字段解析为 float64，解析失败则保留字符串
func attributes(r *shp.Reader, fields []shp.Field, n int) map[string]any {
	props := make(map[string]any, len(fields))
	for i, f := range fields {
		raw := strings.TrimSpace(strings.Trim(r.ReadAttribute(n, i), "\x00"))
		name := strings.TrimRight(string(f.Name[:]), "\x00")
		switch f.Fieldtype {
		case 'N', 'F':
			if raw == "" {
				props[name] = nil
				continue
			}
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				props[name] = v
				continue
			}
		}
		props[name] = raw
	}
	return props
}
