package config

import (
	"fmt"
	"strings"
	"time"
)

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ListenAddress     string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
	TrustProxyHeaders bool
	MaxBodyBytes      int64
	GlobalRPS         float64
	GlobalBurst       int
	SlowRequest       time.Duration
}

// SpamConfig represents the content scoring configuration
type SpamConfig struct {
	Threshold         int
	Keywords          []string
	DisposableDomains []string
	MaxURLs           int
	MinMessageLength  int
	MaxMessageLength  int
	MaxRepeatedChars  int
	UpperCaseRatio    float64
	UpperCaseMinChars int
	MinNameLength     int
	MaxNameLength     int
	MatchTimeout      time.Duration
}

// RateLimitConfig represents the submission throttling configuration
type RateLimitConfig struct {
	Store         string
	HourlyLimit   int
	Window        time.Duration
	Cooldown      time.Duration
	StaleAfter    time.Duration
	SweepInterval time.Duration
}

// RedisConfig represents the Redis connection configuration
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// SinkConfig represents the submission persistence configuration
type SinkConfig struct {
	Type        string
	SQLitePath  string
	MySQLDSN    string
	PostgresDSN string
}

// NotionConfig represents the Notion workspace configuration
type NotionConfig struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	Version    string
	Timeout    time.Duration
}

// SMTPConfig represents the owner notification configuration
type SMTPConfig struct {
	Enabled  bool
	Address  string
	Username string
	Password string
	From     string
	To       []string
}

// MetricsConfig represents the metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// ContentConfig represents the site content locations
type ContentConfig struct {
	ContentPath string
	DataPath    string
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	IPSalt string
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	cfg := ServerConfig{
		ListenAddress:     c.GetString("server.listen_address"),
		TrustProxyHeaders: c.GetBool("server.trust_proxy_headers"),
		MaxBodyBytes:      c.GetInt64("server.max_body_bytes"),
		GlobalRPS:         c.GetFloat64("server.global_rps"),
		GlobalBurst:       c.GetInt("server.global_burst"),
	}

	var err error
	if cfg.ReadTimeout, err = c.GetDuration("server.read_timeout"); err != nil {
		return cfg, err
	}
	if cfg.WriteTimeout, err = c.GetDuration("server.write_timeout"); err != nil {
		return cfg, err
	}
	if cfg.ShutdownTimeout, err = c.GetDuration("server.shutdown_timeout"); err != nil {
		return cfg, err
	}
	if cfg.SlowRequest, err = c.GetDuration("server.slow_request"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetSpam returns the spam scoring configuration
func (c *Config) GetSpam() (SpamConfig, error) {
	cfg := SpamConfig{
		Threshold:         c.GetInt("spam.threshold"),
		Keywords:          c.GetStringSlice("spam.keywords"),
		DisposableDomains: c.GetStringSlice("spam.disposable_domains"),
		MaxURLs:           c.GetInt("spam.rules.max_urls"),
		MinMessageLength:  c.GetInt("spam.rules.min_message_length"),
		MaxMessageLength:  c.GetInt("spam.rules.max_message_length"),
		MaxRepeatedChars:  c.GetInt("spam.rules.max_repeated_chars"),
		UpperCaseRatio:    c.GetFloat64("spam.rules.uppercase_ratio"),
		UpperCaseMinChars: c.GetInt("spam.rules.uppercase_min_chars"),
		MinNameLength:     c.GetInt("spam.rules.min_name_length"),
		MaxNameLength:     c.GetInt("spam.rules.max_name_length"),
	}
	if cfg.Threshold <= 0 {
		return cfg, fmt.Errorf("spam.threshold must be positive, got %d", cfg.Threshold)
	}
	for key, value := range map[string]int{
		"spam.rules.max_urls":            cfg.MaxURLs,
		"spam.rules.min_message_length":  cfg.MinMessageLength,
		"spam.rules.max_message_length":  cfg.MaxMessageLength,
		"spam.rules.uppercase_min_chars": cfg.UpperCaseMinChars,
		"spam.rules.min_name_length":     cfg.MinNameLength,
		"spam.rules.max_name_length":     cfg.MaxNameLength,
	} {
		if value < 0 {
			return cfg, fmt.Errorf("%s must not be negative, got %d", key, value)
		}
	}
	if cfg.MaxRepeatedChars < 1 {
		return cfg, fmt.Errorf("spam.rules.max_repeated_chars must be at least 1, got %d", cfg.MaxRepeatedChars)
	}
	if cfg.UpperCaseRatio < 0 || cfg.UpperCaseRatio > 1 {
		return cfg, fmt.Errorf("spam.rules.uppercase_ratio must be between 0 and 1, got %g", cfg.UpperCaseRatio)
	}

	var err error
	if cfg.MatchTimeout, err = c.GetDuration("spam.rules.match_timeout"); err != nil {
		return cfg, err
	}
	if cfg.MatchTimeout < 0 {
		return cfg, fmt.Errorf("spam.rules.match_timeout must not be negative, got %s", cfg.MatchTimeout)
	}
	return cfg, nil
}

// GetRateLimit returns the rate limit configuration
func (c *Config) GetRateLimit() (RateLimitConfig, error) {
	cfg := RateLimitConfig{
		Store:       strings.ToLower(c.GetString("ratelimit.store")),
		HourlyLimit: c.GetInt("ratelimit.hourly_limit"),
	}

	var err error
	if cfg.Window, err = c.GetDuration("ratelimit.window"); err != nil {
		return cfg, err
	}
	if cfg.Cooldown, err = c.GetDuration("ratelimit.cooldown"); err != nil {
		return cfg, err
	}
	if cfg.StaleAfter, err = c.GetDuration("ratelimit.stale_after"); err != nil {
		return cfg, err
	}
	if cfg.SweepInterval, err = c.GetDuration("ratelimit.sweep_interval"); err != nil {
		return cfg, err
	}
	if cfg.HourlyLimit <= 0 {
		return cfg, fmt.Errorf("ratelimit.hourly_limit must be positive, got %d", cfg.HourlyLimit)
	}
	if cfg.Window <= 0 {
		return cfg, fmt.Errorf("ratelimit.window must be positive, got %s", cfg.Window)
	}
	if cfg.Cooldown <= 0 {
		return cfg, fmt.Errorf("ratelimit.cooldown must be positive, got %s", cfg.Cooldown)
	}
	if cfg.SweepInterval < 0 {
		return cfg, fmt.Errorf("ratelimit.sweep_interval must not be negative, got %s", cfg.SweepInterval)
	}
	if cfg.StaleAfter < cfg.Window {
		return cfg, fmt.Errorf("ratelimit.stale_after (%s) must not be shorter than ratelimit.window (%s)", cfg.StaleAfter, cfg.Window)
	}
	return cfg, nil
}

// GetRedis returns the Redis configuration
func (c *Config) GetRedis() RedisConfig {
	return RedisConfig{
		Address:   c.GetString("redis.address"),
		Password:  c.GetString("redis.password"),
		DB:        c.GetInt("redis.db"),
		KeyPrefix: c.GetString("redis.key_prefix"),
	}
}

// GetSink returns the persistence configuration
func (c *Config) GetSink() SinkConfig {
	return SinkConfig{
		Type:        strings.ToLower(c.GetString("sink.type")),
		SQLitePath:  c.GetString("sink.sqlite_path"),
		MySQLDSN:    c.GetString("sink.mysql_dsn"),
		PostgresDSN: c.GetString("sink.postgres_dsn"),
	}
}

// GetNotion returns the Notion configuration
func (c *Config) GetNotion() (NotionConfig, error) {
	cfg := NotionConfig{
		APIKey:     c.GetString("notion.api_key"),
		DatabaseID: c.GetString("notion.database_id"),
		BaseURL:    strings.TrimRight(c.GetString("notion.base_url"), "/"),
		Version:    c.GetString("notion.version"),
	}

	var err error
	if cfg.Timeout, err = c.GetDuration("notion.timeout"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetSMTP returns the notification configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:  c.GetBool("smtp.enabled"),
		Address:  c.GetString("smtp.address"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
		To:       c.GetStringSlice("smtp.to"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.GetBool("metrics.enabled"),
		Path:    c.GetString("metrics.path"),
	}
}

// GetContent returns the content configuration
func (c *Config) GetContent() ContentConfig {
	return ContentConfig{
		ContentPath: c.GetString("content.content_path"),
		DataPath:    c.GetString("content.data_path"),
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(c.GetString("logging.level")),
		Format: strings.ToLower(c.GetString("logging.format")),
		IPSalt: c.GetString("logging.ip_salt"),
	}
}
