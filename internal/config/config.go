package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // HTTP 监听地址 (例如: ":8080")
}

// AuthConfig 用于配置 API 认证。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥
}

// ComplianceConfig 定义合规检查的静态阈值。
type ComplianceConfig struct {
	MaxPriceChangePercent float64 `yaml:"maxPriceChangePercent"` // 价格变动超过该百分比将被标记
	HighAmountThreshold   float64 `yaml:"highAmountThreshold"`   // 金额超过该值需要审批
	EscalateOnFlags       bool    `yaml:"escalateOnFlags"`       // 有标记时是否将任务升级为人工复核
}

// OrchestratorConfig 定义编排器的运行参数。
type OrchestratorConfig struct {
	AgentTimeoutSeconds     int    `yaml:"agentTimeoutSeconds"`     // 单次 agent 调用的超时时间（秒）
	BreakerFailureThreshold uint32 `yaml:"breakerFailureThreshold"` // 熔断器连续失败阈值
	BreakerSuccessThreshold uint32 `yaml:"breakerSuccessThreshold"` // 半开状态下恢复所需的连续成功次数
	BreakerTimeoutSeconds   int    `yaml:"breakerTimeoutSeconds"`   // 熔断器打开后进入半开状态的等待时间（秒）
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address      string `yaml:"address"`      // Redis 服务器地址 (例如: "localhost:6379")
	Password     string `yaml:"password"`     // Redis 密码
	DB           int    `yaml:"db"`           // Redis 数据库编号
	CacheTTLSecs int    `yaml:"cacheTTLSecs"` // 任务缓存的过期时间（秒）
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MongoConfig 定义了 MongoDB 数据库的连接配置。
type MongoConfig struct {
	Address         string `yaml:"address"`         // MongoDB 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	TaskCollection  string `yaml:"taskCollection"`  // 任务记录集合
	AuditCollection string `yaml:"auditCollection"` // 审计账本集合
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`    // Kafka Broker 地址列表
	AuditTopic string   `yaml:"auditTopic"` // 审计条目发布的主题
}

// EtcdConfig 定义了 Etcd 服务注册的连接配置。
type EtcdConfig struct {
	Endpoints   []string `yaml:"endpoints"`   // Etcd 节点地址列表
	ServiceName string   `yaml:"serviceName"` // 注册的服务名
	ServiceAddr string   `yaml:"serviceAddr"` // 对外公布的服务地址
	LeaseTTL    int64    `yaml:"leaseTTL"`    // 租约 TTL（秒）
}

// DatabaseConfigs 包含所有数据库的配置。
type DatabaseConfigs struct {
	Redis   RedisConfig `yaml:"redis"`   // Redis 数据库配置
	MySQL   MySQLConfig `yaml:"mysql"`   // MySQL 数据库配置
	MongoDB MongoConfig `yaml:"mongodb"` // MongoDB 数据库配置
	Kafka   KafkaConfig `yaml:"kafka"`   // Kafka 消息队列配置
	Etcd    EtcdConfig  `yaml:"etcd"`    // Etcd 服务注册配置
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App          AppInfo            `yaml:"app"`          // 应用程序信息
	Logger       LoggerConfig       `yaml:"logger"`       // 日志记录器配置
	Server       ServerConfig       `yaml:"server"`       // HTTP 服务配置
	Auth         AuthConfig         `yaml:"auth"`         // 认证配置
	Compliance   ComplianceConfig   `yaml:"compliance"`   // 合规阈值配置
	Orchestrator OrchestratorConfig `yaml:"orchestrator"` // 编排器配置
	Databases    DatabaseConfigs    `yaml:"databases"`    // 数据库配置
}

// LoadConfig 从给定路径读取并解析 YAML 配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in values the file may omit. Compliance thresholds keep
// the historical defaults (50% price change, 1000 approval cutoff).
func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Compliance.MaxPriceChangePercent == 0 {
		cfg.Compliance.MaxPriceChangePercent = 50
	}
	if cfg.Compliance.HighAmountThreshold == 0 {
		cfg.Compliance.HighAmountThreshold = 1000
	}
	if cfg.Orchestrator.AgentTimeoutSeconds == 0 {
		cfg.Orchestrator.AgentTimeoutSeconds = 30
	}
	if cfg.Orchestrator.BreakerFailureThreshold == 0 {
		cfg.Orchestrator.BreakerFailureThreshold = 5
	}
	if cfg.Orchestrator.BreakerSuccessThreshold == 0 {
		cfg.Orchestrator.BreakerSuccessThreshold = 2
	}
	if cfg.Orchestrator.BreakerTimeoutSeconds == 0 {
		cfg.Orchestrator.BreakerTimeoutSeconds = 30
	}
	if cfg.Databases.MongoDB.TaskCollection == "" {
		cfg.Databases.MongoDB.TaskCollection = "tasks"
	}
	if cfg.Databases.MongoDB.AuditCollection == "" {
		cfg.Databases.MongoDB.AuditCollection = "audit_entries"
	}
	if cfg.Databases.Redis.CacheTTLSecs == 0 {
		cfg.Databases.Redis.CacheTTLSecs = 300
	}
	if cfg.Databases.Kafka.AuditTopic == "" {
		cfg.Databases.Kafka.AuditTopic = "audit_entries"
	}
	if cfg.Databases.Etcd.LeaseTTL == 0 {
		cfg.Databases.Etcd.LeaseTTL = 10
	}
}
