package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"linegraph/algo"
	"linegraph/model"
)

// ErrInjected 测试注入的存储错误
var ErrInjected = errors.New("注入的存储错误")

// Graph 内存中的图结构
type Graph struct {
	Nodes   map[string]*model.Node   // 节点字典 (ID -> Node)
	AdjList map[string][]*model.Edge // 邻接表 (ID -> 出边列表)
}

// NewGraph 创建一个空的图
func NewGraph() *Graph {
	return &Graph{
		Nodes:   make(map[string]*model.Node),
		AdjList: make(map[string][]*model.Edge),
	}
}

// hasEdge 检查 a、b 之间是否已有边 (两个方向都查)
func (g *Graph) hasEdge(a, b string) bool {
	for _, e := range g.AdjList[a] {
		if e.To == b {
			return true
		}
	}
	for _, e := range g.AdjList[b] {
		if e.To == a {
			return true
		}
	}
	return false
}

// MemoryStore 内存存储，用于测试和 dry-run
// 每个事务先写入暂存区，提交时才合并进图
type MemoryStore struct {
	mu     sync.Mutex
	graph  *Graph
	nextID int

	// Inject 非 nil 时在每个操作前调用，返回错误即模拟该操作失败
	// op: node_exists / both_exist / edge_exists / create_edge /
	// create_node_with_edge / create_nodes_with_edge / commit
	Inject func(op string) error
}

// NewMemoryStore 创建空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graph: NewGraph()}
}

// Write 串行执行事务
func (s *MemoryStore) Write(ctx context.Context, fn func(tx algo.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: NewGraph()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.inject("commit"); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Close 无需释放任何资源
func (s *MemoryStore) Close(context.Context) error { return nil }

// Nodes 所有节点，按 ID 排序
func (s *MemoryStore) Nodes() []model.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Node, 0, len(s.graph.Nodes))
	for _, n := range s.graph.Nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges 所有边，按 (From, To) 排序
func (s *MemoryStore) Edges() []model.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Edge
	for _, list := range s.graph.AdjList {
		for _, e := range list {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func (s *MemoryStore) inject(op string) error {
	if s.Inject == nil {
		return nil
	}
	return s.Inject(op)
}

type memTx struct {
	store  *MemoryStore
	staged *Graph
}

func (t *memTx) node(id string) bool {
	if _, ok := t.staged.Nodes[id]; ok {
		return true
	}
	_, ok := t.store.graph.Nodes[id]
	return ok
}

func (t *memTx) NodeExists(_ context.Context, id string) (bool, error) {
	if err := t.store.inject("node_exists"); err != nil {
		return false, err
	}
	return t.node(id), nil
}

func (t *memTx) BothExist(_ context.Context, id1, id2 string) (bool, error) {
	if err := t.store.inject("both_exist"); err != nil {
		return false, err
	}
	for _, id := range uniqueIDs(id1, id2) {
		if !t.node(id) {
			return false, nil
		}
	}
	return true, nil
}

func (t *memTx) EdgeExists(_ context.Context, id1, id2 string) (bool, error) {
	if err := t.store.inject("edge_exists"); err != nil {
		return false, err
	}
	return t.store.graph.hasEdge(id1, id2) || t.staged.hasEdge(id1, id2), nil
}

func (t *memTx) CreateEdge(_ context.Context, fromID, toID string, weight float64) error {
	if err := t.store.inject("create_edge"); err != nil {
		return err
	}
	if !t.node(fromID) || !t.node(toID) {
		return fmt.Errorf("%w: %s -> %s", ErrNodeNotFound, fromID, toID)
	}
	t.addEdge(fromID, toID, weight)
	return nil
}

func (t *memTx) CreateNodeWithEdge(_ context.Context, n model.Node, toID string, weight float64) error {
	if err := t.store.inject("create_node_with_edge"); err != nil {
		return err
	}
	if !t.node(toID) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, toID)
	}
	if err := t.addNode(n); err != nil {
		return err
	}
	t.addEdge(n.ID, toID, weight)
	return nil
}

func (t *memTx) CreateNodesWithEdge(_ context.Context, from, to model.Node, weight float64) error {
	if err := t.store.inject("create_nodes_with_edge"); err != nil {
		return err
	}
	if err := t.addNode(from); err != nil {
		return err
	}
	if to.ID != from.ID {
		if err := t.addNode(to); err != nil {
			return err
		}
	}
	t.addEdge(from.ID, to.ID, weight)
	return nil
}

func (t *memTx) addNode(n model.Node) error {
	if t.node(n.ID) {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
	}
	node := n
	t.staged.Nodes[n.ID] = &node
	return nil
}

func (t *memTx) addEdge(from, to string, weight float64) {
	t.store.nextID++
	t.staged.AdjList[from] = append(t.staged.AdjList[from], &model.Edge{
		ID:     strconv.Itoa(t.store.nextID),
		From:   from,
		To:     to,
		Weight: weight,
	})
}

func (t *memTx) commit() {
	g := t.store.graph
	for id, n := range t.staged.Nodes {
		g.Nodes[id] = n
	}
	for from, list := range t.staged.AdjList {
		g.AdjList[from] = append(g.AdjList[from], list...)
	}
}
