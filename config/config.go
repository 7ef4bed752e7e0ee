package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretKeyLength is the shortest accepted SECRET_KEY.
const MinSecretKeyLength = 32

// Config flat application configuration
type Config struct {
	// server
	ServerHost         string        `mapstructure:"server_host" yaml:"server_host"`
	ServerPort         int           `mapstructure:"server_port" yaml:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain" yaml:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout" yaml:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout" yaml:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout" yaml:"server_idle_timeout"`

	// session
	SecretKey        string   `mapstructure:"secret_key" yaml:"secret_key"`
	SessionName      string   `mapstructure:"session_name" yaml:"session_name"`
	SessionMaxAge    int      `mapstructure:"session_max_age" yaml:"session_max_age"`
	CookieSecure     bool     `mapstructure:"cookie_secure" yaml:"cookie_secure"`
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins" yaml:"cors_allow_origins"`

	// database
	DBType            string `mapstructure:"db_type" yaml:"db_type"`
	DBHost            string `mapstructure:"db_host" yaml:"db_host"`
	DBPort            int    `mapstructure:"db_port" yaml:"db_port"`
	DBUsername        string `mapstructure:"db_username" yaml:"db_username"`
	DBPassword        string `mapstructure:"db_password" yaml:"db_password"`
	DBName            string `mapstructure:"db_name" yaml:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path" yaml:"db_file_path"`
	DBTablePrefix     string `mapstructure:"db_table_prefix" yaml:"db_table_prefix"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns" yaml:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns" yaml:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime" yaml:"db_conn_max_lifetime"`

	// storage
	StorageType     string `mapstructure:"storage_type" yaml:"storage_type"`
	UploadDir       string `mapstructure:"upload_dir" yaml:"upload_dir"`
	UploadMaxSizeMB int    `mapstructure:"upload_max_size_mb" yaml:"upload_max_size_mb"`

	// thumbnails
	ThumbnailSize      int `mapstructure:"thumbnail_size" yaml:"thumbnail_size"`
	ThumbnailWorkers   int `mapstructure:"thumbnail_workers" yaml:"thumbnail_workers"`
	ThumbnailQueueSize int `mapstructure:"thumbnail_queue_size" yaml:"thumbnail_queue_size"`

	MinioEndpoint        string `mapstructure:"minio_endpoint" yaml:"minio_endpoint"`
	MinioAccessKeyID     string `mapstructure:"minio_access_key_id" yaml:"minio_access_key_id"`
	MinioSecretAccessKey string `mapstructure:"minio_secret_access_key" yaml:"minio_secret_access_key"`
	MinioBucketName      string `mapstructure:"minio_bucket_name" yaml:"minio_bucket_name"`
	MinioUseSSL          bool   `mapstructure:"minio_use_ssl" yaml:"minio_use_ssl"`

	WebDAVURL      string        `mapstructure:"webdav_url" yaml:"webdav_url"`
	WebDAVUsername string        `mapstructure:"webdav_username" yaml:"webdav_username"`
	WebDAVPassword string        `mapstructure:"webdav_password" yaml:"webdav_password"`
	WebDAVRootPath string        `mapstructure:"webdav_root_path" yaml:"webdav_root_path"`
	WebDAVTimeout  time.Duration `mapstructure:"webdav_timeout" yaml:"webdav_timeout"`

	// cache
	CacheType          string `mapstructure:"cache_type" yaml:"cache_type"`
	CacheRedisAddr     string `mapstructure:"cache_redis_addr" yaml:"cache_redis_addr"`
	CacheRedisPassword string `mapstructure:"cache_redis_password" yaml:"cache_redis_password"`
	CacheRedisDB       int    `mapstructure:"cache_redis_db" yaml:"cache_redis_db"`

	// mail
	MailHost       string `mapstructure:"mail_host" yaml:"mail_host"`
	MailPort       int    `mapstructure:"mail_port" yaml:"mail_port"`
	MailUsername   string `mapstructure:"mail_username" yaml:"mail_username"`
	MailPassword   string `mapstructure:"mail_password" yaml:"mail_password"`
	MailFrom       string `mapstructure:"mail_from" yaml:"mail_from"`
	MailSenderName string `mapstructure:"mail_sender_name" yaml:"mail_sender_name"`

	// oauth
	OAuthClientID     string `mapstructure:"oauth_client_id" yaml:"oauth_client_id"`
	OAuthClientSecret string `mapstructure:"oauth_client_secret" yaml:"oauth_client_secret"`
	OAuthDiscoveryURL string `mapstructure:"oauth_discovery_url" yaml:"oauth_discovery_url"`
	OAuthRedirectURL  string `mapstructure:"oauth_redirect_url" yaml:"oauth_redirect_url"`

	// password reset
	ResetTokenTTL  time.Duration `mapstructure:"reset_token_ttl" yaml:"reset_token_ttl"`
	OTPTTL         time.Duration `mapstructure:"otp_ttl" yaml:"otp_ttl"`
	OTPMaxAttempts int           `mapstructure:"otp_max_attempts" yaml:"otp_max_attempts"`

	// rate limit
	RateLimitAuthRPS    float64       `mapstructure:"rate_limit_auth_rps" yaml:"rate_limit_auth_rps"`
	RateLimitAuthBurst  int           `mapstructure:"rate_limit_auth_burst" yaml:"rate_limit_auth_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time" yaml:"rate_limit_expire_time"`

	// logging
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days" yaml:"log_max_age_days"`
	LogCompress   bool   `mapstructure:"log_compress" yaml:"log_compress"`
}

// envAliases maps config keys to legacy environment variable names.
var envAliases = map[string][]string{
	"mail_username": {"EMAIL_ID"},
	"mail_password": {"EMAIL_PASS"},
	"db_host":       {"MYSQL_HOST"},
	"db_username":   {"MYSQL_USER"},
	"db_password":   {"MYSQL_ROOT_PASSWORD"},
	"db_name":       {"FULLSTACK_DB"},
}

// Load reads .env, an optional config file and the environment into a new Config.
// configFile may be empty.
func Load(configFile string) (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		names := append([]string{strings.ToUpper(key)}, envAliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_host", "127.0.0.1")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_domain", "")
	v.SetDefault("server_read_timeout", "15s")
	v.SetDefault("server_write_timeout", "30s")
	v.SetDefault("server_idle_timeout", "120s")

	v.SetDefault("secret_key", "")
	v.SetDefault("session_name", "photo_album_session")
	v.SetDefault("session_max_age", 7*24*3600)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("cors_allow_origins", []string{})

	v.SetDefault("db_type", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 0)
	v.SetDefault("db_username", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "photo_album")
	v.SetDefault("db_file_path", "./data/photo-album.db")
	v.SetDefault("db_table_prefix", "")
	v.SetDefault("db_max_open_conns", 50)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", 3600)

	v.SetDefault("storage_type", "local")
	v.SetDefault("upload_dir", "./data/uploads")
	v.SetDefault("upload_max_size_mb", 20)
	v.SetDefault("thumbnail_size", 400)
	v.SetDefault("thumbnail_workers", 2)
	v.SetDefault("thumbnail_queue_size", 256)
	v.SetDefault("minio_endpoint", "")
	v.SetDefault("minio_access_key_id", "")
	v.SetDefault("minio_secret_access_key", "")
	v.SetDefault("minio_bucket_name", "photo-album")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("webdav_url", "")
	v.SetDefault("webdav_username", "")
	v.SetDefault("webdav_password", "")
	v.SetDefault("webdav_root_path", "/photo-album")
	v.SetDefault("webdav_timeout", "30s")

	v.SetDefault("cache_type", "memory")
	v.SetDefault("cache_redis_addr", "localhost:6379")
	v.SetDefault("cache_redis_password", "")
	v.SetDefault("cache_redis_db", 0)

	v.SetDefault("mail_host", "smtp.zoho.in")
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_username", "")
	v.SetDefault("mail_password", "")
	v.SetDefault("mail_from", "")
	v.SetDefault("mail_sender_name", "Photo Album")

	v.SetDefault("oauth_client_id", "")
	v.SetDefault("oauth_client_secret", "")
	v.SetDefault("oauth_discovery_url", "")
	v.SetDefault("oauth_redirect_url", "")

	v.SetDefault("reset_token_ttl", "10m")
	v.SetDefault("otp_ttl", "10m")
	v.SetDefault("otp_max_attempts", 5)

	v.SetDefault("rate_limit_auth_rps", 0.5)
	v.SetDefault("rate_limit_auth_burst", 10)
	v.SetDefault("rate_limit_expire_time", "10m")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 30)
	v.SetDefault("log_compress", true)
}

// normalize fills derived values.
func (c *Config) normalize() {
	c.DBType = strings.ToLower(strings.TrimSpace(c.DBType))
	c.StorageType = strings.ToLower(strings.TrimSpace(c.StorageType))
	c.CacheType = strings.ToLower(strings.TrimSpace(c.CacheType))
	c.ServerDomain = strings.TrimRight(c.ServerDomain, "/")
	c.OAuthDiscoveryURL = strings.TrimSuffix(
		strings.TrimRight(c.OAuthDiscoveryURL, "/"), "/.well-known/openid-configuration")

	if c.DBPort == 0 {
		switch c.DBType {
		case "postgres", "postgresql":
			c.DBPort = 5432
		case "mysql":
			c.DBPort = 3306
		}
	}
	if c.MailFrom == "" {
		c.MailFrom = c.MailUsername
	}
	if c.OAuthRedirectURL == "" {
		c.OAuthRedirectURL = c.BaseURL() + "/login/callback"
	}
	if c.OTPMaxAttempts <= 0 {
		c.OTPMaxAttempts = 5
	}
}

// Validate reports configuration that would make the server unsafe or unusable.
func (c *Config) Validate() error {
	var errs []error
	if len(c.SecretKey) < MinSecretKeyLength {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be set and at least %d characters", MinSecretKeyLength))
	}
	switch c.DBType {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		errs = append(errs, fmt.Errorf("unsupported db_type: %s", c.DBType))
	}
	switch c.StorageType {
	case "local", "minio", "webdav":
	default:
		errs = append(errs, fmt.Errorf("unsupported storage_type: %s", c.StorageType))
	}
	switch c.CacheType {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported cache_type: %s", c.CacheType))
	}
	if c.ResetTokenTTL <= 0 || c.OTPTTL <= 0 {
		errs = append(errs, errors.New("reset_token_ttl and otp_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address as "host:port".
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL returns the external URL used in emailed links.
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// MailEnabled reports whether SMTP credentials are present.
func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && c.MailUsername != ""
}

// OAuthEnabled reports whether an OpenID Connect provider is configured.
func (c *Config) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthDiscoveryURL != ""
}

// Masked returns a copy with secrets replaced, for printing.
func (c *Config) Masked() Config {
	out := *c
	for _, s := range []*string{
		&out.SecretKey, &out.DBPassword, &out.MinioSecretAccessKey, &out.WebDAVPassword,
		&out.CacheRedisPassword, &out.MailPassword, &out.OAuthClientSecret,
	} {
		if *s != "" {
			*s = "******"
		}
	}
	return out
}
