package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OSS      OSSConfig      `mapstructure:"oss"`
	Email    EmailConfig    `mapstructure:"email"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// IsDebug 开发模式下错误响应附带详细信息
func (c ServerConfig) IsDebug() bool {
	return c.Mode == "debug"
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	// 连续失败多少次后熔断
	BreakerFailures uint32 `mapstructure:"breaker_failures"`
	// 熔断后多少秒进入半开状态
	BreakerTimeoutSeconds int `mapstructure:"breaker_timeout_seconds"`
}

type QueueConfig struct {
	MailQueue  string `mapstructure:"mail_queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// BillingConfig 计费相关配置
type BillingConfig struct {
	Currency string `mapstructure:"currency"`
	Locale   string `mapstructure:"locale"`
	// basic/premium/vip 等档位对应的计费周期
	TierCycles map[string]string `mapstructure:"tier_cycles"`
	// 定时任务（cron 表达式），SchedulerEnabled 为 false 时只能手动触发
	SchedulerEnabled bool   `mapstructure:"scheduler_enabled"`
	SweepSchedule    string `mapstructure:"sweep_schedule"`
	RenewalSchedule  string `mapstructure:"renewal_schedule"`
}

type UploadConfig struct {
	MaxAvatarSize     int64    `mapstructure:"max_avatar_size"`    // 头像最大字节数
	AllowedExtensions []string `mapstructure:"allowed_extensions"` // 允许的扩展名
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("queue.mail_queue", "gym:mail_jobs")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("email.breaker_failures", 5)
	v.SetDefault("email.breaker_timeout_seconds", 60)
	v.SetDefault("billing.currency", "BRL")
	v.SetDefault("billing.locale", "pt-BR")
	v.SetDefault("billing.tier_cycles", map[string]string{
		"basic":   "monthly",
		"premium": "quarterly",
		"vip":     "annual",
	})
	v.SetDefault("billing.sweep_schedule", "0 6 * * *")
	v.SetDefault("billing.renewal_schedule", "30 5 * * *")
	v.SetDefault("upload.max_avatar_size", 5*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{".jpg", ".jpeg", ".png", ".webp"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
