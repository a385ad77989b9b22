package db_test

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/db"
	"linegraph/model"
)

// 需要一个可写的 Neo4j 5 实例: NEO4J_TEST_URI=bolt://localhost:7687 NEO4J_TEST_PASSWORD=...
func openNeo4j(t *testing.T) *db.Neo4jStore {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	ctx := context.Background()
	s, err := db.OpenNeo4j(ctx, config.Neo4jConfig{
		URI:      uri,
		User:     "neo4j",
		Password: os.Getenv("NEO4J_TEST_PASSWORD"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(ctx) })

	wipe := func() {
		_, err := neo4j.ExecuteQuery(ctx, s.Driver, "MATCH (n:Node) DETACH DELETE n", nil, neo4j.EagerResultTransformer)
		require.NoError(t, err)
	}
	wipe()
	t.Cleanup(wipe)
	return s
}

func neo4jCounts(t *testing.T, s *db.Neo4jStore) (nodes, rels int64) {
	t.Helper()
	res, err := neo4j.ExecuteQuery(context.Background(), s.Driver,
		"MATCH (n:Node) OPTIONAL MATCH (n)-[r:connected_to]->() RETURN count(DISTINCT n), count(r)",
		nil, neo4j.EagerResultTransformer)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	return res.Records[0].Values[0].(int64), res.Records[0].Values[1].(int64)
}

func TestNeo4jStore_Merge(t *testing.T) {
	s := openNeo4j(t)
	engine := algo.NewEngine(s, nil)
	ctx := context.Background()

	assert.Equal(t, algo.StatusApplied, engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 100}).Status)
	assert.Equal(t, algo.StatusDuplicate, engine.Merge(ctx, model.CandidateEdge{From: p1, To: p2, Weight: 100}).Status)
	assert.Equal(t, algo.CaseOnlyFirst, engine.Merge(ctx, model.CandidateEdge{From: p2, To: p3, Weight: 5}).Case)
	assert.Equal(t, algo.StatusDuplicate, engine.Merge(ctx, model.CandidateEdge{From: p3, To: p2, Weight: 5}).Status)

	nodes, rels := neo4jCounts(t, s)
	assert.Equal(t, int64(3), nodes)
	assert.Equal(t, int64(2), rels)
}

func TestNeo4jStore_FailedWriteRollsBack(t *testing.T) {
	s := openNeo4j(t)
	ctx := context.Background()

	err := s.Write(ctx, func(tx algo.Tx) error {
		// 端点不存在，MATCH 不到任何节点
		return tx.CreateEdge(ctx, "0.0,0.0", "1.0,1.0", 1)
	})
	assert.ErrorIs(t, err, db.ErrNodeNotFound)

	nodes, rels := neo4jCounts(t, s)
	assert.Zero(t, nodes)
	assert.Zero(t, rels)
}
