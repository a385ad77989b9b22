package algo

import (
	"context"

	"linegraph/model"
)

// Oracle 在当前事务内查询节点和边是否已存在 (只读)
// 查询失败直接返回给调用方
type Oracle interface {
	// NodeExists 节点是否已持久化
	NodeExists(ctx context.Context, id string) (bool, error)
	// BothExist 两个节点是否都已存在，一次查询完成；id1 == id2 时等价于 NodeExists
	BothExist(ctx context.Context, id1, id2 string) (bool, error)
	// EdgeExists 两个节点之间是否已有边 (不区分方向)
	EdgeExists(ctx context.Context, id1, id2 string) (bool, error)
}

// Mutator 合并时唯一的一次写操作
type Mutator interface {
	// CreateEdge 在两个已存在的节点之间建边 from -> to
	CreateEdge(ctx context.Context, fromID, toID string, weight float64) error
	// CreateNodeWithEdge 新建节点 n，并建边 n -> toID (toID 已存在)
	CreateNodeWithEdge(ctx context.Context, n model.Node, toID string, weight float64) error
	// CreateNodesWithEdge 新建两个节点并建边 from -> to；from.ID == to.ID 时只建一个节点和自环
	CreateNodesWithEdge(ctx context.Context, from, to model.Node, weight float64) error
}

// Tx 一个存储事务
type Tx interface {
	Oracle
	Mutator
}

// Store 图存储
// Write 打开一个写事务执行 fn: fn 返回 nil 时提交，返回错误或 panic 时回滚，任何情况下都会释放事务
type Store interface {
	Write(ctx context.Context, fn func(tx Tx) error) error
}
