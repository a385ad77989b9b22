package model

// Point 代表一个经纬度点 (WGS84)
type Point struct {
	Lat float64 // 纬度
	Lng float64 // 经度
}

// Coord 矢量文件中读出的原始坐标 (x=经度, y=纬度)
type Coord struct {
	Lon float64
	Lat float64
}

// Point 转换为经纬度点
func (c Coord) Point() Point {
	return Point{Lat: c.Lat, Lng: c.Lon}
}

// Node 图中的一个节点 (线要素的端点)
// ID 由坐标推导而来，格式 "<lat>,<lon>"，是节点的唯一键
type Node struct {
	ID  string  `json:"id" gorm:"column:name;primaryKey"`
	Lat float64 `json:"lat" gorm:"not null"`
	Lon float64 `json:"lon" gorm:"not null"`
}

// TableName 固定表名
func (Node) TableName() string { return "nodes" }
