package model

// Edge 两个节点之间的有向连线
// 同一对节点 (不论方向) 之间最多只有一条边
type Edge struct {
	ID     string  `json:"id" gorm:"primaryKey"`
	From   string  `json:"from" gorm:"column:from_name;not null;index:idx_edges_pair"`
	To     string  `json:"to" gorm:"column:to_name;not null;index:idx_edges_pair;index"`
	Weight float64 `json:"weight"` // 测地线距离 (米), 上游已经算好
}

// TableName 固定表名
func (Edge) TableName() string { return "edges" }

// RelConnected 图数据库中的关系类型
const RelConnected = "connected_to"

// CandidateEdge 待合并的边，由上游读取器产生，合并一次后即丢弃
type CandidateEdge struct {
	From   Coord          `json:"from"`
	To     Coord          `json:"to"`
	Weight float64        `json:"weight"`
	Attrs  map[string]any `json:"attrs,omitempty"` // 要素属性 + node_1_lat 等派生字段
}

// Node1 端点1 对应的节点 (ID 由调用方给出)
func (e CandidateEdge) Node1(id string) Node {
	return Node{ID: id, Lat: e.From.Lat, Lon: e.From.Lon}
}

// Node2 端点2 对应的节点
func (e CandidateEdge) Node2(id string) Node {
	return Node{ID: id, Lat: e.To.Lat, Lon: e.To.Lon}
}
