package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 服务配置，环境变量名 = 键名大写并把 "." 换成 "_"（如 SUBMIT_URL）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Form     FormConfig     `mapstructure:"form"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required,min=16"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Issuer string        `mapstructure:"issuer" validate:"required"`
}

// StorageConfig Provider 为空表示不启用图片发布
type StorageConfig struct {
	Provider  string `mapstructure:"provider" validate:"omitempty,oneof=s3 local"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Provider s3"`
	Region    string `mapstructure:"region" validate:"required_if=Provider s3"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
}

type SubmitConfig struct {
	URL         string        `mapstructure:"url" validate:"required,url"`
	Token       string        `mapstructure:"token"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RetryWait   time.Duration `mapstructure:"retry_wait"`
	MinInterval time.Duration `mapstructure:"min_interval"`
}

type FormConfig struct {
	IdleTTL         time.Duration `mapstructure:"idle_ttl" validate:"gt=0"`
	SweepSpec       string        `mapstructure:"sweep_spec" validate:"required"`
	CatalogCacheTTL time.Duration `mapstructure:"catalog_cache_ttl"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// ==================== 默认值 ====================

var defaults = map[string]any{
	"server.port":             "8080",
	"server.mode":             "release",
	"server.shutdown_timeout": 30 * time.Second,

	"database.dsn":            "",
	"database.max_idle_conns": 10,
	"database.max_open_conns": 100,
	"database.log_sql":        false,

	"jwt.secret": "",
	"jwt.ttl":    8 * time.Hour,
	"jwt.issuer": "catalog-studio",

	"storage.provider":   "",
	"storage.bucket":     "",
	"storage.region":     "",
	"storage.access_key": "",
	"storage.secret_key": "",
	"storage.endpoint":   "",
	"storage.cdn_domain": "",
	"storage.base_path":  "catalog-studio",

	"submit.url":          "",
	"submit.token":        "",
	"submit.timeout":      30 * time.Second,
	"submit.max_retries":  2,
	"submit.retry_wait":   time.Second,
	"submit.min_interval": 3 * time.Second,

	"form.idle_ttl":          2 * time.Hour,
	"form.sweep_spec":        "0 */5 * * * *",
	"form.catalog_cache_ttl": 10 * time.Minute,

	"log.level":       "info",
	"log.development": false,
}

// ==================== 加载 ====================

// Load 读取 .env（可选）与环境变量；各子命令按需校验
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// 已存在的环境变量优先
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验完整配置（serve 使用）
func Validate(cfg *Config) error {
	return describe(validate.Struct(cfg))
}

// ValidateDatabase 只校验数据库配置（seed 使用）
func ValidateDatabase(cfg *Config) error {
	return describe(validate.Struct(&cfg.Database))
}

// describe 错误信息列出全部不合法字段
func describe(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}
