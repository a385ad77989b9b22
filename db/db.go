package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"linegraph/algo"
	"linegraph/config"
	"linegraph/logger"
	"linegraph/model"
)

// pgUniqueViolation PostgreSQL 唯一约束冲突的错误码
const pgUniqueViolation = "23505"

// SQLStore 基于 gorm 的关系型存储 (PostgreSQL / SQLite)
// 表: nodes(name 主键, lat, lon)，edges(id, from_name, to_name, weight)
type SQLStore struct {
	DB  *gorm.DB
	log *logger.Logger
}

// OpenPostgres 连接 PostgreSQL 并自动迁移表结构
func OpenPostgres(cfg config.PostgresConfig, log *logger.Logger) (*SQLStore, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}
	return NewSQLStore(gdb, log)
}

// OpenSQLite 打开本地 SQLite 文件 (纯 Go 驱动)，path 为 ":memory:" 时使用内存库
func OpenSQLite(path string, log *logger.Logger) (*SQLStore, error) {
	gdb, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        path,
	}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("无法打开 SQLite: %w", err)
	}

	// SQLite 同一时间只允许一个写者；内存库每个连接都是独立的库
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLStore(gdb, log)
}

// NewSQLStore 包装已打开的连接，并自动迁移表结构
func NewSQLStore(gdb *gorm.DB, log *logger.Logger) (*SQLStore, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := gdb.AutoMigrate(&model.Node{}, &model.Edge{}); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return &SQLStore{DB: gdb, log: log.With("client", "SQLStore")}, nil
}

// Write 每次调用一个数据库事务，fn 出错或 panic 时回滚
func (s *SQLStore) Write(ctx context.Context, fn func(tx algo.Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sqlTx{db: tx})
	})
}

// Close 关闭底层连接池
func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Counts 节点数和边数
func (s *SQLStore) Counts(ctx context.Context) (nodes, edges int64, err error) {
	gdb := s.DB.WithContext(ctx)
	if err = gdb.Model(&model.Node{}).Count(&nodes).Error; err != nil {
		return 0, 0, err
	}
	if err = gdb.Model(&model.Edge{}).Count(&edges).Error; err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}

type sqlTx struct {
	db *gorm.DB
}

func (t *sqlTx) NodeExists(_ context.Context, id string) (bool, error) {
	var n int64
	if err := t.db.Model(&model.Node{}).Where("name = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *sqlTx) BothExist(_ context.Context, id1, id2 string) (bool, error) {
	ids := uniqueIDs(id1, id2)
	var n int64
	if err := t.db.Model(&model.Node{}).Where("name IN ?", ids).Count(&n).Error; err != nil {
		return false, err
	}
	return n == int64(len(ids)), nil
}

func (t *sqlTx) EdgeExists(_ context.Context, id1, id2 string) (bool, error) {
	var n int64
	err := t.db.Model(&model.Edge{}).
		Where("(from_name = ? AND to_name = ?) OR (from_name = ? AND to_name = ?)", id1, id2, id2, id1).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *sqlTx) CreateEdge(ctx context.Context, fromID, toID string, weight float64) error {
	ok, err := t.BothExist(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNodeNotFound, fromID, toID)
	}
	return t.insertEdge(fromID, toID, weight)
}

func (t *sqlTx) CreateNodeWithEdge(ctx context.Context, n model.Node, toID string, weight float64) error {
	ok, err := t.NodeExists(ctx, toID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, toID)
	}
	if err := t.insertNode(n); err != nil {
		return err
	}
	return t.insertEdge(n.ID, toID, weight)
}

func (t *sqlTx) CreateNodesWithEdge(_ context.Context, from, to model.Node, weight float64) error {
	if err := t.insertNode(from); err != nil {
		return err
	}
	if to.ID != from.ID {
		if err := t.insertNode(to); err != nil {
			return err
		}
	}
	return t.insertEdge(from.ID, to.ID, weight)
}

func (t *sqlTx) insertNode(n model.Node) error {
	if err := t.db.Create(&n).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
		}
		return err
	}
	return nil
}

func (t *sqlTx) insertEdge(from, to string, weight float64) error {
	return t.db.Create(&model.Edge{
		ID:     uuid.NewString(),
		From:   from,
		To:     to,
		Weight: weight,
	}).Error
}

// isUniqueViolation 识别 PostgreSQL 和 SQLite 的主键/唯一约束冲突
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// modernc.org/sqlite 的错误码可能是扩展码 (如 SQLITE_CONSTRAINT_PRIMARYKEY)，低 8 位是基础码
	var codeErr interface{ Code() int }
	if errors.As(err, &codeErr) {
		return codeErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
