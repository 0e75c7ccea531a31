package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxUploadMB  int64
}

type PostgresConfig struct {
	DSN              string
	MaxOpen          int
	MaxIdle          int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
	ApplicationName  string
	Migrate          bool
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	Stream        string
	EventStream   string
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	MaxDeliveries int64
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketOriginals string
	BucketVariants  string
	UseSSL          bool
	Region          string
}

type SecurityConfig struct {
	JWTAccessSecret string
}

// ThresholdConfig holds one reject threshold per classifier category.
// Allowed values are -1 (disabled), 0, 2, 4 and 6.
type ThresholdConfig struct {
	Hate     int
	SelfHarm int
	Sexual   int
	Violence int
}

type ContentSafetyConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
	MaxRetries uint64
	CacheSize  int
	CacheTTL   time.Duration
	Blocklists []string
	Thresholds ThresholdConfig
}

type ThumbnailConfig struct {
	Width   uint
	Quality int
}

type JobsConfig struct {
	ReconcileCron string
	BackfillCron  string
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	TLS              TLSConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	ContentSafety    ContentSafetyConfig
	Thumbnails       ThumbnailConfig
	Jobs             JobsConfig
	Logging          LoggingConfig
	AllowCORSOrigins []string
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ARTGALLERY")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configuration the services cannot run with.
func (c *AppConfig) Validate() error {
	thresholds := []struct {
		name  string
		value int
	}{
		{"hate", c.ContentSafety.Thresholds.Hate},
		{"selfharm", c.ContentSafety.Thresholds.SelfHarm},
		{"sexual", c.ContentSafety.Thresholds.Sexual},
		{"violence", c.ContentSafety.Thresholds.Violence},
	}
	for _, th := range thresholds {
		switch th.value {
		case -1, 0, 2, 4, 6:
		default:
			return fmt.Errorf("contentsafety.thresholds.%s: %d is not one of -1, 0, 2, 4, 6", th.name, th.value)
		}
	}
	if c.Thumbnails.Width == 0 {
		return fmt.Errorf("thumbnails.width must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.maxuploadmb", 20)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.statementtimeout", "30s")
	v.SetDefault("postgres.applicationname", "artgallery")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "media:ingest")
	v.SetDefault("redis.eventstream", "gallery:events")
	v.SetDefault("redis.group", "media-workers")
	v.SetDefault("redis.consumer", "worker-1")
	v.SetDefault("redis.claiminterval", "30s")
	v.SetDefault("redis.maxdeliveries", 5)

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketoriginals", "artgallery-originals")
	v.SetDefault("storage.bucketvariants", "artgallery-thumbnails")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtaccesssecret", "")

	v.SetDefault("contentsafety.endpoint", "")
	v.SetDefault("contentsafety.apikey", "")
	v.SetDefault("contentsafety.apiversion", "2023-10-01")
	v.SetDefault("contentsafety.timeout", "10s")
	v.SetDefault("contentsafety.maxretries", 2)
	v.SetDefault("contentsafety.cachesize", 1024)
	v.SetDefault("contentsafety.cachettl", "1h")
	v.SetDefault("contentsafety.blocklists", []string{})
	v.SetDefault("contentsafety.thresholds.hate", 4)
	v.SetDefault("contentsafety.thresholds.selfharm", 4)
	v.SetDefault("contentsafety.thresholds.sexual", 2)
	v.SetDefault("contentsafety.thresholds.violence", 4)

	v.SetDefault("thumbnails.width", 408)
	v.SetDefault("thumbnails.quality", 85)

	v.SetDefault("jobs.reconcilecron", "0 0 * * * *")
	v.SetDefault("jobs.backfillcron", "0 30 3 * * *")

	v.SetDefault("logging.level", "info")
}
