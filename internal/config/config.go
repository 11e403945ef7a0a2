package config

import (
	"math/big"

	"github.com/blues/cts/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Sale      SaleConfig      `mapstructure:"sale"`
	Token     TokenConfig     `mapstructure:"token"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	AdminKey string `mapstructure:"admin_key"` // 管理接口的API Key，为空则不校验
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SaleConfig 众筹配置
type SaleConfig struct {
	Admin               string       `mapstructure:"admin"`                // 管理员地址
	Beneficiary         string       `mapstructure:"beneficiary"`          // 受益人地址
	SaleAccount         string       `mapstructure:"sale_account"`         // 众筹账户地址
	MinSale             string       `mapstructure:"min_sale"`             // 最低支付金额
	UnidentifiedLimit   string       `mapstructure:"unidentified_limit"`   // 未验证参与者累计支付上限
	SuspendUnidentified bool         `mapstructure:"suspend_unidentified"` // 超限支付挂起还是拒绝
	ReplayPolicy        string       `mapstructure:"replay_policy"`        // 外部支付重放策略: reject, ignore
	ReleaseThreshold    string       `mapstructure:"release_threshold"`    // 结束前允许划转资金的已售数量阈值
	Tiers               []TierConfig `mapstructure:"tiers"`                // 预置价格档位
}

// TierConfig 单个价格档位配置
type TierConfig struct {
	Index         int    `mapstructure:"index"`
	CumulativeCap string `mapstructure:"cumulative_cap"`
	UnitPrice     string `mapstructure:"unit_price"`
}

// TokenConfig 代币配置
type TokenConfig struct {
	Name          string `mapstructure:"name"`
	Symbol        string `mapstructure:"symbol"`
	Owner         string `mapstructure:"owner"`          // 所有者地址，创世供应量铸给该地址
	InitialSupply string `mapstructure:"initial_supply"` // 创世供应量
	Allotment     string `mapstructure:"allotment"`      // 启动时划入众筹账户的配额
}

type SchedulerConfig struct {
	SnapshotInterval    int `mapstructure:"snapshot_interval"`     // 快照间隔，秒
	LockReleaseInterval int `mapstructure:"lock_release_interval"` // 到期时间锁释放间隔，秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// Amount 解析十进制金额配置，空串或非法值返回nil
func Amount(s string) *big.Int {
	if s == "" {
		return nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		logger.Warn("Invalid amount in config: %s", s)
		return nil
	}
	return amount
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cts")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "crowdsale")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("sale.min_sale", "0")
	viper.SetDefault("sale.suspend_unidentified", true)
	viper.SetDefault("sale.replay_policy", "reject")
	viper.SetDefault("token.name", "Crowdsale Token")
	viper.SetDefault("token.symbol", "CST")
	viper.SetDefault("scheduler.snapshot_interval", 300)
	viper.SetDefault("scheduler.lock_release_interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
