package db

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/logger"
	"linegraph/model"
)

// Neo4jStore 图数据库存储
// 节点: (:Node {name, lat, lon})，边: -[:connected_to {weight}]->
type Neo4jStore struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

// OpenNeo4j 建立连接并确认可用，失败直接返回 (不重试)
func OpenNeo4j(ctx context.Context, cfg config.Neo4jConfig, log *logger.Logger) (*Neo4jStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		if cfg.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = cfg.MaxPoolSize
		}
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: 初始化驱动失败: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: 无法连接 %s: %w", cfg.URI, err)
	}

	s := &Neo4jStore{
		Driver:   driver,
		Database: cfg.Database,
		log:      log.With("client", "Neo4jStore"),
	}
	s.ensureSchema(ctx)
	return s, nil
}

// ensureSchema 节点名唯一约束 (尽力而为; 权限受限的用户可能失败)
func (s *Neo4jStore) ensureSchema(ctx context.Context) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.Database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, `CREATE CONSTRAINT node_name_unique IF NOT EXISTS FOR (n:Node) REQUIRE n.name IS UNIQUE`, nil)
	if err != nil {
		s.log.Warn("neo4j schema init failed (continuing)", "error", err)
		return
	}
	if _, err := res.Consume(ctx); err != nil {
		s.log.Warn("neo4j schema init failed (continuing)", "error", err)
	}
}

// Write 显式事务: 不使用驱动自带的重试，失败的写入直接放弃
func (s *Neo4jStore) Write(ctx context.Context, fn func(tx algo.Tx) error) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.Database,
	})
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: 开启事务失败: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(&neo4jTx{tx: tx}); err != nil {
		return err
	}
	done = true
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("neo4j: 提交事务失败: %w", err)
	}
	return nil
}

// Close 关闭驱动
func (s *Neo4jStore) Close(ctx context.Context) error {
	if s == nil || s.Driver == nil {
		return nil
	}
	err := s.Driver.Close(ctx)
	s.Driver = nil
	return err
}

type neo4jTx struct {
	tx neo4j.ExplicitTransaction
}

// single 执行只返回一行一列的查询
func (t *neo4jTx) single(ctx context.Context, cypher string, params map[string]any) (any, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return nil, err
	}
	if len(record.Values) == 0 {
		return nil, fmt.Errorf("neo4j: 查询没有返回值")
	}
	return record.Values[0], nil
}

func (t *neo4jTx) NodeExists(ctx context.Context, id string) (bool, error) {
	v, err := t.single(ctx,
		"MATCH (n:Node) WHERE n.name = $name RETURN count(n)",
		map[string]any{"name": id})
	if err != nil {
		return false, err
	}
	n, _ := v.(int64)
	return n > 0, nil
}

func (t *neo4jTx) BothExist(ctx context.Context, id1, id2 string) (bool, error) {
	names := uniqueIDs(id1, id2)
	v, err := t.single(ctx,
		"MATCH (n:Node) WHERE n.name IN $names RETURN count(DISTINCT n.name)",
		map[string]any{"names": names})
	if err != nil {
		return false, err
	}
	n, _ := v.(int64)
	return n == int64(len(names)), nil
}

func (t *neo4jTx) EdgeExists(ctx context.Context, id1, id2 string) (bool, error) {
	v, err := t.single(ctx,
		"RETURN EXISTS { MATCH (:Node {name: $node1})-[:connected_to]-(:Node {name: $node2}) }",
		map[string]any{"node1": id1, "node2": id2})
	if err != nil {
		return false, err
	}
	found, _ := v.(bool)
	return found, nil
}

func (t *neo4jTx) CreateEdge(ctx context.Context, fromID, toID string, weight float64) error {
	return t.exec(ctx,
		"MATCH (d:Node {name: $node1}), (o:Node {name: $node2}) "+
			"CREATE (d)-[:connected_to {weight: $weight}]->(o)",
		map[string]any{"node1": fromID, "node2": toID, "weight": weight},
		fromID+" -> "+toID)
}

func (t *neo4jTx) CreateNodeWithEdge(ctx context.Context, n model.Node, toID string, weight float64) error {
	return t.exec(ctx,
		"MATCH (d:Node) WHERE d.name = $name "+
			"CREATE (:Node {name: $node, lat: $lat, lon: $lon})-[:connected_to {weight: $weight}]->(d)",
		map[string]any{"name": toID, "node": n.ID, "lat": n.Lat, "lon": n.Lon, "weight": weight},
		toID)
}

func (t *neo4jTx) CreateNodesWithEdge(ctx context.Context, from, to model.Node, weight float64) error {
	params := map[string]any{
		"node1":      from.ID,
		"node_1_lat": from.Lat,
		"node_1_lon": from.Lon,
		"weight":     weight,
	}
	if from.ID == to.ID {
		return t.exec(ctx,
			"CREATE (n:Node {name: $node1, lat: $node_1_lat, lon: $node_1_lon}) "+
				"CREATE (n)-[:connected_to {weight: $weight}]->(n)",
			params, from.ID)
	}
	params["node2"] = to.ID
	params["node_2_lat"] = to.Lat
	params["node_2_lon"] = to.Lon
	return t.exec(ctx,
		"CREATE (:Node {name: $node1, lat: $node_1_lat, lon: $node_1_lon})"+
			"-[:connected_to {weight: $weight}]->"+
			"(:Node {name: $node2, lat: $node_2_lat, lon: $node_2_lon})",
		params, from.ID+" -> "+to.ID)
}

// exec 执行写语句；MATCH 没匹配到节点时 CREATE 什么也不做，这里把它当作错误
func (t *neo4jTx) exec(ctx context.Context, cypher string, params map[string]any, what string) error {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return err
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return err
	}
	if summary.Counters().RelationshipsCreated() == 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, what)
	}
	return nil
}
