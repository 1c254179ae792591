package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	CSRF      CSRFConfig      `yaml:"csrf"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Audit     AuditConfig     `yaml:"audit"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Mode     string `yaml:"mode"` // debug, release, test
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	ExpireMinutes int    `yaml:"expire_minutes"`
}

// RefreshConfig controls refresh-token issuance and cookie delivery.
type RefreshConfig struct {
	TTLDays       int    `yaml:"ttl_days"`
	CookieName    string `yaml:"cookie_name"`
	CookieSecret  string `yaml:"cookie_secret"`
	CookieSecure  bool   `yaml:"cookie_secure"`
	CookiePath    string `yaml:"cookie_path"`
	AllowDevLogin bool   `yaml:"allow_dev_login"`
}

type CSRFConfig struct {
	Secret string `yaml:"secret"`
}

// StorageConfig holds MinIO connection settings for document objects.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// RedisConfig for the async document-ingest queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuditConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "4000",
			Mode:     "debug",
			LogLevel: "info",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "docflow.db",
		},
		JWT: JWTConfig{
			Secret:        "dev-secret-change-me",
			ExpireMinutes: 15,
		},
		Refresh: RefreshConfig{
			TTLDays:       30,
			CookieName:    "docflow_refresh",
			CookieSecret:  "dev-cookie-secret-change-me",
			CookieSecure:  false,
			CookiePath:    "/auth",
			AllowDevLogin: true,
		},
		CSRF: CSRFConfig{
			Secret: "dev-csrf-secret-change-me",
		},
		Storage: StorageConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
			Bucket:    "docflow",
			UseSSL:    false,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Audit: AuditConfig{
			RetentionDays: 90,
		},
		RateLimit: RateLimitConfig{
			RPS:   200.0 / 60.0,
			Burst: 50,
		},
	}
}

// applyDefaults fills zero values that would otherwise break token issuance.
func (c *Config) applyDefaults() {
	if c.JWT.ExpireMinutes <= 0 {
		c.JWT.ExpireMinutes = 15
	}
	if c.Refresh.TTLDays <= 0 {
		c.Refresh.TTLDays = 30
	}
	if c.Refresh.CookieName == "" {
		c.Refresh.CookieName = "docflow_refresh"
	}
	if c.Refresh.CookiePath == "" {
		c.Refresh.CookiePath = "/auth"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 90
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = 200.0 / 60.0
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 50
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Server.LogLevel = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if minutes := os.Getenv("JWT_EXPIRE_MINUTES"); minutes != "" {
		if m, err := strconv.Atoi(minutes); err == nil && m > 0 {
			c.JWT.ExpireMinutes = m
		}
	}
	if days := os.Getenv("REFRESH_TOKEN_TTL_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil && d > 0 {
			c.Refresh.TTLDays = d
		}
	}
	if name := os.Getenv("REFRESH_COOKIE_NAME"); name != "" {
		c.Refresh.CookieName = name
	}
	if secret := os.Getenv("COOKIE_SECRET"); secret != "" {
		c.Refresh.CookieSecret = secret
	}
	if secure := os.Getenv("COOKIE_SECURE"); secure != "" {
		c.Refresh.CookieSecure = secure == "true" || secure == "1"
	}
	if allow := os.Getenv("ALLOW_DEV_LOGIN"); allow != "" {
		c.Refresh.AllowDevLogin = allow == "true" || allow == "1"
	}
	if secret := os.Getenv("CSRF_SECRET"); secret != "" {
		c.CSRF.Secret = secret
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("MINIO_ACCESS_KEY"); key != "" {
		c.Storage.AccessKey = key
	}
	if key := os.Getenv("MINIO_SECRET_KEY"); key != "" {
		c.Storage.SecretKey = key
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if ssl := os.Getenv("MINIO_USE_SSL"); ssl != "" {
		c.Storage.UseSSL = ssl == "true" || ssl == "1"
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = n
		}
	}
	if days := os.Getenv("AUDIT_RETENTION_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			c.Audit.RetentionDays = d
		}
	}
}

// TTLSeconds returns the refresh lifetime in seconds, which is also the
// cookie max-age.
func (c *RefreshConfig) TTLSeconds() int {
	return c.TTLDays * 24 * 60 * 60
}
