package algo

import (
	"context"
	"fmt"
	"time"

	"linegraph/logger"
	"linegraph/metrics"
	"linegraph/model"
	"linegraph/utils"
)

// Case 合并时命中的分支
type Case int

const (
	CaseUnknown    Case = iota
	CaseBothExist       // 两端节点都已存在
	CaseOnlyFirst       // 只有端点1存在
	CaseOnlySecond      // 只有端点2存在
	CaseNeither         // 两端都不存在
)

func (c Case) String() string {
	switch c {
	case CaseBothExist:
		return "both_exist"
	case CaseOnlyFirst:
		return "only_first"
	case CaseOnlySecond:
		return "only_second"
	case CaseNeither:
		return "neither"
	default:
		return "unknown"
	}
}

// Status 单条边的合并结果
type Status string

const (
	StatusApplied   Status = "applied"   // 写入成功
	StatusDuplicate Status = "duplicate" // 边已存在，什么也没做
	StatusFailed    Status = "failed"    // 存储出错，事务已回滚
)

// Outcome 一次合并的结果
type Outcome struct {
	FromID string
	ToID   string
	Weight float64
	Case   Case
	Status Status
	Err    error
}

// Engine 合并引擎: 对一条待合并的边做最小的写入
type Engine struct {
	store    Store
	resolver utils.Resolver
	log      *logger.Logger
	metrics  *metrics.Recorder
}

// EngineOption 可选配置
type EngineOption func(*Engine)

// WithResolver 指定坐标 -> 节点 ID 的解析器
func WithResolver(r utils.Resolver) EngineOption {
	return func(e *Engine) { e.resolver = r }
}

// WithMetrics 记录指标
func WithMetrics(m *metrics.Recorder) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine 创建合并引擎
func NewEngine(store Store, log *logger.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		store:    store,
		resolver: utils.ExactResolver,
		log:      log.With("component", "MergeEngine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Merge 在一个独立的写事务中合并一条边
// 存储错误不会向上抛出，而是记录在 Outcome 里，调用方可以继续处理下一条边
func (e *Engine) Merge(ctx context.Context, edge model.CandidateEdge) Outcome {
	start := time.Now()
	out := Outcome{
		FromID: e.resolver.NodeID(edge.From),
		ToID:   e.resolver.NodeID(edge.To),
		Weight: edge.Weight,
	}

	err := e.store.Write(ctx, func(tx Tx) error {
		c, status, err := e.MergeTx(ctx, tx, edge)
		out.Case, out.Status = c, status
		return err
	})
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		e.log.Warn("合并边失败",
			"from", out.FromID,
			"to", out.ToID,
			"case", out.Case.String(),
			"error", err,
		)
	}

	e.metrics.ObserveMerge(string(out.Status), out.Case.String(), time.Since(start))
	return out
}

// MergeTx 在调用方给出的事务中执行合并决策
// 分支按固定顺序判断，先命中者生效:
//  1. 两端都存在: 没有边才建边
//  2. 只有端点1存在: 新建端点2，并建边 端点2 -> 端点1
//  3. 只有端点2存在: 新建端点1，并建边 端点1 -> 端点2
//  4. 都不存在: 新建两个节点和边
func (e *Engine) MergeTx(ctx context.Context, tx Tx, edge model.CandidateEdge) (Case, Status, error) {
	edge.From = e.resolver.Coord(edge.From)
	edge.To = e.resolver.Coord(edge.To)
	id1 := e.resolver.NodeID(edge.From)
	id2 := e.resolver.NodeID(edge.To)
	n1 := edge.Node1(id1)
	n2 := edge.Node2(id2)

	both, err := tx.BothExist(ctx, id1, id2)
	if err != nil {
		return CaseUnknown, StatusFailed, fmt.Errorf("查询节点失败: %w", err)
	}
	if both {
		exists, err := tx.EdgeExists(ctx, id1, id2)
		if err != nil {
			return CaseBothExist, StatusFailed, fmt.Errorf("查询边失败: %w", err)
		}
		if exists {
			return CaseBothExist, StatusDuplicate, nil
		}
		if err := tx.CreateEdge(ctx, id1, id2, edge.Weight); err != nil {
			return CaseBothExist, StatusFailed, fmt.Errorf("创建边失败: %w", err)
		}
		return CaseBothExist, StatusApplied, nil
	}

	first, err := tx.NodeExists(ctx, id1)
	if err != nil {
		return CaseUnknown, StatusFailed, fmt.Errorf("查询节点失败: %w", err)
	}
	if first {
		if err := tx.CreateNodeWithEdge(ctx, n2, id1, edge.Weight); err != nil {
			return CaseOnlyFirst, StatusFailed, fmt.Errorf("创建节点和边失败: %w", err)
		}
		return CaseOnlyFirst, StatusApplied, nil
	}

	second, err := tx.NodeExists(ctx, id2)
	if err != nil {
		return CaseUnknown, StatusFailed, fmt.Errorf("查询节点失败: %w", err)
	}
	if second {
		if err := tx.CreateNodeWithEdge(ctx, n1, id2, edge.Weight); err != nil {
			return CaseOnlySecond, StatusFailed, fmt.Errorf("创建节点和边失败: %w", err)
		}
		return CaseOnlySecond, StatusApplied, nil
	}

	if err := tx.CreateNodesWithEdge(ctx, n1, n2, edge.Weight); err != nil {
		return CaseNeither, StatusFailed, fmt.Errorf("创建节点和边失败: %w", err)
	}
	return CaseNeither, StatusApplied, nil
}
