package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 存储后端
const (
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// ErrUnknownDriver 不支持的存储后端
var ErrUnknownDriver = errors.New("未知的存储后端")

// Config 运行配置
type Config struct {
	Store   StoreConfig  `yaml:"store"`
	Ingest  IngestConfig `yaml:"ingest"`
	HTTP    HTTPConfig   `yaml:"http"`
	LogMode string       `yaml:"log_mode"`
}

// StoreConfig 图存储配置
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Neo4j    Neo4jConfig    `yaml:"neo4j"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// Neo4jConfig Neo4j 连接参数
type Neo4jConfig struct {
	URI            string `yaml:"uri"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxPoolSize    int    `yaml:"max_pool_size"`
}

// PostgresConfig PostgreSQL 连接参数
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DSN 拼接 gorm 使用的连接串
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		p.Host, p.User, p.Password, p.Name, p.Port,
	)
}

// SQLiteConfig 本地 SQLite 文件
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig 导入行为
type IngestConfig struct {
	Strict         bool `yaml:"strict"`          // 要素几何缺失/类型不支持时是否中止
	Simplify       bool `yaml:"simplify"`        // 线只取首尾两点
	CoordPrecision int  `yaml:"coord_precision"` // 坐标取整的小数位数，0 表示不取整
}

// HTTPConfig serve 命令使用
type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"` // 为空时不做认证
}

// Load 读取配置并校验
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read 读取环境变量，path 非空时再用 YAML 文件覆盖；不做校验，
// 调用方在应用完命令行参数后自行调用 Validate
func Read(path string) (*Config, error) {
	cfg := FromEnv()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	return cfg, nil
}

// FromEnv 从环境变量读取配置 (带默认值)
func FromEnv() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverNeo4j)),
			Neo4j: Neo4jConfig{
				URI:            getEnvOrDefault("NEO4J_URI", "bolt://localhost:7687"),
				User:           getEnvOrDefault("NEO4J_USER", "neo4j"),
				Password:       os.Getenv("NEO4J_PASSWORD"),
				Database:       os.Getenv("NEO4J_DATABASE"),
				TimeoutSeconds: getEnvInt("NEO4J_TIMEOUT_SECONDS", 10),
				MaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
			},
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("DB_HOST", "localhost"),
				Port:     getEnvOrDefault("DB_PORT", "5432"),
				User:     getEnvOrDefault("DB_USER", "postgres"),
				Password: os.Getenv("DB_PASSWORD"),
				Name:     getEnvOrDefault("DB_NAME", "linegraph"),
			},
			SQLite: SQLiteConfig{
				Path: getEnvOrDefault("SQLITE_PATH", "linegraph.db"),
			},
		},
		Ingest: IngestConfig{
			Strict:         getEnvBool("INGEST_STRICT", true),
			Simplify:       getEnvBool("INGEST_SIMPLIFY", true),
			CoordPrecision: getEnvInt("COORD_PRECISION", 0),
		},
		HTTP: HTTPConfig{
			Addr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		LogMode: getEnvOrDefault("LOG_MODE", "dev"),
	}
}

// Validate 检查配置
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverNeo4j, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}
	if c.Ingest.CoordPrecision < 0 || c.Ingest.CoordPrecision > 15 {
		return fmt.Errorf("coord_precision 超出范围: %d", c.Ingest.CoordPrecision)
	}
	return nil
}

// getEnvOrDefault 获取环境变量，如果不存在则返回默认值
func getEnvOrDefault(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
