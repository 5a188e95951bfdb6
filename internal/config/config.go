package config

import (
	"strings"
	"time"

	"github.com/blues/fundcrm/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	SMS      SMSConfig      `mapstructure:"sms"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Collab   CollabConfig   `mapstructure:"collab"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 数据库配置，URL 非空时优先使用
type DatabaseConfig struct {
	URL      string `mapstructure:"url"` // postgres://... 或 sqlite://path
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Migrate  bool   `mapstructure:"migrate"`
}

// AuthConfig 定时任务与服务端凭证
type AuthConfig struct {
	CronSecret     string `mapstructure:"cron_secret"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
}

// SMSConfig 短信服务配置，凭证缺失时短信功能整体关闭
type SMSConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	FromNumber  string `mapstructure:"from_number"`
	BaseURL     string `mapstructure:"base_url"`
	OrgName     string `mapstructure:"org_name"`
	PoolSize    int    `mapstructure:"pool_size"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Enabled 是否配置了短信凭证
func (s SMSConfig) Enabled() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
}

// Timeout 单条短信请求超时
func (s SMSConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

type LLMConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	MaxTokens   int    `mapstructure:"max_tokens"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Timeout 文本生成调用超时
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

// CollabConfig 协同编辑服务，未配置时前端退化为单人编辑器
type CollabConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type ReportConfig struct {
	Timezone        string `mapstructure:"timezone"`
	ScheduleEnabled bool   `mapstructure:"schedule_enabled"`
	DailyCron       string `mapstructure:"daily_cron"`
	WeeklyCron      string `mapstructure:"weekly_cron"`
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

// envBindings 沿用托管平台的环境变量名
var envBindings = map[string]string{
	"database.url":          "DATABASE_URL",
	"auth.cron_secret":      "CRON_SECRET",
	"auth.service_role_key": "SERVICE_ROLE_KEY",
	"sms.account_sid":       "TWILIO_ACCOUNT_SID",
	"sms.auth_token":        "TWILIO_AUTH_TOKEN",
	"sms.from_number":       "TWILIO_PHONE_NUMBER",
	"llm.api_key":           "ANTHROPIC_API_KEY",
	"collab.secret_key":     "COLLAB_SECRET_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "fundcrm")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrate", true)
	v.SetDefault("sms.base_url", "https://api.twilio.com")
	v.SetDefault("sms.org_name", "SAIF")
	v.SetDefault("sms.pool_size", 16)
	v.SetDefault("sms.timeout_secs", 10)
	v.SetDefault("llm.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("report.timezone", "America/Los_Angeles")
	v.SetDefault("report.schedule_enabled", false)
	v.SetDefault("report.daily_cron", "0 6 * * *")
	v.SetDefault("report.weekly_cron", "0 7 * * 0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取配置文件与环境变量
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fundcrm")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file: %v", err)
	}

	cfg, err := FromViper(v)
	if err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}
	return cfg
}

// FromViper 在给定的 viper 实例上补齐默认值与环境变量后解码
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// server.port -> SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
