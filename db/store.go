package db

import (
	"context"
	"errors"
	"fmt"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/logger"
)

var (
	// ErrNodeExists 节点 ID 已被占用 (唯一约束)
	ErrNodeExists = errors.New("节点已存在")
	// ErrNodeNotFound 建边时找不到端点节点
	ErrNodeNotFound = errors.New("节点不存在")
)

// Backend 打开的图存储
type Backend interface {
	algo.Store
	Close(ctx context.Context) error
}

// Open 根据配置打开存储，连接失败直接返回错误 (不重试)
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (Backend, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.Driver {
	case config.DriverNeo4j:
		return OpenNeo4j(ctx, cfg.Neo4j, log)
	case config.DriverPostgres:
		return OpenPostgres(cfg.Postgres, log)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLite.Path, log)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

// uniqueIDs 去重，保持顺序
func uniqueIDs(ids ...string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}
