package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/db"
	"linegraph/model"
)

func openSQLite(t *testing.T) *db.SQLStore {
	t.Helper()
	s, err := db.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func counts(t *testing.T, s *db.SQLStore) (int64, int64) {
	t.Helper()
	n, e, err := s.Counts(context.Background())
	require.NoError(t, err)
	return n, e
}

var (
	p1 = model.Coord{Lon: 10, Lat: 20}
	p2 = model.Coord{Lon: 10.001, Lat: 20.001}
	p3 = model.Coord{Lon: 10.002, Lat: 20.002}
)

func TestSQLStore_RepeatedRun(t *testing.T) {
	s := openSQLite(t)
	engine := algo.NewEngine(s, nil)
	ctx := context.Background()

	first := engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 100})
	second := engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 100})

	require.NoError(t, first.Err)
	assert.Equal(t, algo.StatusApplied, first.Status)
	assert.Equal(t, algo.StatusDuplicate, second.Status)

	nodes, edges := counts(t, s)
	assert.Equal(t, int64(2), nodes)
	assert.Equal(t, int64(1), edges)

	var e model.Edge
	require.NoError(t, s.DB.First(&e).Error)
	assert.Equal(t, 100.0, e.Weight)
	assert.Equal(t, "20.0,10.0", e.From)
	assert.Equal(t, "20.001,10.001", e.To)
}

func TestSQLStore_AllCases(t *testing.T) {
	s := openSQLite(t)
	engine := algo.NewEngine(s, nil)
	ctx := context.Background()

	assert.Equal(t, algo.CaseNeither, engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 1}).Case)
	assert.Equal(t, algo.CaseOnlyFirst, engine.Merge(ctx, model.CandidateEdge{From: p2, To: p3, Weight: 2}).Case)

	out := engine.Merge(ctx, model.CandidateEdge{From: p1, To: p3, Weight: 3})
	assert.Equal(t, algo.CaseBothExist, out.Case)
	assert.Equal(t, algo.StatusApplied, out.Status)

	nodes, edges := counts(t, s)
	assert.Equal(t, int64(3), nodes)
	assert.Equal(t, int64(3), edges)

	var stored model.Node
	require.NoError(t, s.DB.First(&stored, "name = ?", "20.002,10.002").Error)
	assert.Equal(t, 20.002, stored.Lat)
	assert.Equal(t, 10.002, stored.Lon)
}

func TestSQLStore_OnlySecond(t *testing.T) {
	s := openSQLite(t)
	engine := algo.NewEngine(s, nil)
	ctx := context.Background()

	engine.Merge(ctx, model.CandidateEdge{From: p2, To: p3, Weight: 1})
	out := engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 1})
	assert.Equal(t, algo.CaseOnlySecond, out.Case)
	assert.Equal(t, algo.StatusApplied, out.Status)

	var e model.Edge
	require.NoError(t, s.DB.First(&e, "from_name = ?", "20.0,10.0").Error)
	assert.Equal(t, "20.001,10.001", e.To)
}

func TestSQLStore_DuplicateNodeRollsBack(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	a := model.Node{ID: "20.0,10.0", Lat: 20, Lon: 10}
	b := model.Node{ID: "20.001,10.001", Lat: 20.001, Lon: 10.001}
	c := model.Node{ID: "20.002,10.002", Lat: 20.002, Lon: 10.002}

	require.NoError(t, s.Write(ctx, func(tx algo.Tx) error {
		return tx.CreateNodesWithEdge(ctx, a, b, 1)
	}))

	// c 先插入成功，a 冲突后整个事务回滚
	err := s.Write(ctx, func(tx algo.Tx) error {
		return tx.CreateNodesWithEdge(ctx, c, a, 1)
	})
	assert.ErrorIs(t, err, db.ErrNodeExists)

	nodes, edges := counts(t, s)
	assert.Equal(t, int64(2), nodes)
	assert.Equal(t, int64(1), edges)
}

func TestSQLStore_SelfLoop(t *testing.T) {
	s := openSQLite(t)
	engine := algo.NewEngine(s, nil)
	ctx := context.Background()

	assert.Equal(t, algo.StatusApplied, engine.Merge(ctx, model.CandidateEdge{From: p1, To: p1}).Status)
	assert.Equal(t, algo.StatusDuplicate, engine.Merge(ctx, model.CandidateEdge{From: p1, To: p1}).Status)

	nodes, edges := counts(t, s)
	assert.Equal(t, int64(1), nodes)
	assert.Equal(t, int64(1), edges)
}

func TestOpen_Memory(t *testing.T) {
	b, err := db.Open(context.Background(), config.StoreConfig{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &db.MemoryStore{}, b)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := db.Open(context.Background(), config.StoreConfig{Driver: "oracle"}, nil)
	assert.ErrorIs(t, err, config.ErrUnknownDriver)
}
