package utils

import (
	"math"
	"strconv"
	"strings"

	"linegraph/model"
)

// Resolver 由坐标推导节点 ID
// Precision 为取整的小数位数；<= 0 (零值) 表示不取整，浮点数相等才视为同一节点
type Resolver struct {
	Precision int
}

// ExactResolver 默认解析器 (不取整)
var ExactResolver = Resolver{}

// NodeID 返回 "<lat>,<lon>"
func (r Resolver) NodeID(c model.Coord) string {
	lat, lon := c.Lat, c.Lon
	if r.Precision > 0 {
		lat = roundTo(lat, r.Precision)
		lon = roundTo(lon, r.Precision)
	}
	return formatDegree(lat) + "," + formatDegree(lon)
}

// Coord 按精度规整后的坐标，保证与 NodeID 一致
func (r Resolver) Coord(c model.Coord) model.Coord {
	if r.Precision <= 0 {
		return c
	}
	return model.Coord{Lon: roundTo(c.Lon, r.Precision), Lat: roundTo(c.Lat, r.Precision)}
}

// NodeID 使用默认解析器
func NodeID(c model.Coord) string {
	return ExactResolver.NodeID(c)
}

// formatDegree 与 Python str(float) 相同的最短可回读表示:
// 十进制指数在 [-4, 16) 之间用定点形式且整数保留 ".0"，其余用科学计数法 (如 1e-05)
func formatDegree(v float64) string {
	if v == 0 {
		// -0 和 0 必须得到同一个 ID
		v = 0
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(places)
	r := math.Round(v*p) / p
	if r == 0 {
		// -0 和 0 必须得到同一个 ID
		return 0
	}
	return r
}
