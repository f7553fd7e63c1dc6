package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cron       CronConfig       `mapstructure:"cron"`
	Facebook   FacebookConfig   `mapstructure:"facebook"`
	Shopify    ShopifyConfig    `mapstructure:"shopify"`
	SmartCart  SmartCartConfig  `mapstructure:"smartcart"`
	Trigger    TriggerConfig    `mapstructure:"trigger"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	// An empty spec disables the job.
	LiveStatus       string `mapstructure:"live_status"`
	CommentRetention string `mapstructure:"comment_retention"`
	CatalogSync      string `mapstructure:"catalog_sync"`
}

type FacebookConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	PageID      string        `mapstructure:"page_id"`
	PageToken   string        `mapstructure:"page_token"`
	VerifyToken string        `mapstructure:"verify_token"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ShopifyConfig struct {
	StoreName   string        `mapstructure:"store_name"`
	AccessToken string        `mapstructure:"access_token"`
	APISecret   string        `mapstructure:"api_secret"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SmartCartConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthorizeURL string        `mapstructure:"authorize_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type TriggerConfig struct {
	AutoAssign       bool                `mapstructure:"auto_assign"`
	ReleaseChunkSize int                 `mapstructure:"release_chunk_size"`
	SkuLetters       map[string][]string `mapstructure:"sku_letters"`
}

type RetentionConfig struct {
	Days      int `mapstructure:"days"`
	BatchSize int `mapstructure:"batch_size"`
}

type DispatcherConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.live_status", "@every 5s")
	v.SetDefault("cron.comment_retention", "@every 24h")
	v.SetDefault("cron.catalog_sync", "")
	v.SetDefault("facebook.base_url", "https://graph.facebook.com/v20.0")
	v.SetDefault("facebook.timeout", "60s")
	v.SetDefault("shopify.timeout", "60s")
	v.SetDefault("smartcart.timeout", "60s")
	v.SetDefault("trigger.auto_assign", false)
	v.SetDefault("trigger.release_chunk_size", 50)
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.batch_size", 100)
	v.SetDefault("dispatcher.queue_size", 64)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
