package config

import (
	"time"

	"leadpdf/internal/constants"
)

type Config struct {
	Server         ServerConfig
	Logging        LoggingConfig
	Mail           MailConfig
	RecordSink     RecordSinkConfig `mapstructure:"record_sink"`
	RequestLog     RequestLogConfig `mapstructure:"request_log"`
	Deduplication  DeduplicationConfig
	CORS           CORSConfig
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AssetsDir    string        `mapstructure:"assets_dir"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// MailConfig drives the document dispatcher. Subject and Body fall back to
// built-in defaults; Body may contain a {name} placeholder.
type MailConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIKey       string        `mapstructure:"api_key"`
	From         string        `mapstructure:"from"`
	FromName     string        `mapstructure:"from_name"`
	Subject      string        `mapstructure:"subject"`
	Body         string        `mapstructure:"body"`
	DocumentFile string        `mapstructure:"document_file"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SMTP         SMTPConfig    `mapstructure:"smtp"`
}

// SMTPConfig describes the relay. Security is starttls, tls (implicit) or
// none; empty means starttls.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Security string `mapstructure:"security"`
}

type RecordSinkConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseID  string        `mapstructure:"base_id"`
	Table   string        `mapstructure:"table"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RequestLogConfig struct {
	Path string `mapstructure:"path"`
}

type DeduplicationConfig struct {
	HashAlgorithm string        `mapstructure:"hash_algorithm"`
	BucketWidth   time.Duration `mapstructure:"bucket_width"`
	TTLMultiplier int           `mapstructure:"ttl_multiplier"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

// MailConfigured reports whether the selected provider has the credential
// it needs to send.
func (c MailConfig) MailConfigured() bool {
	if c.Provider == constants.MailProviderSMTP {
		return c.SMTP.Host != ""
	}
	return c.APIKey != ""
}

// SinkConfigured reports whether the record sink can be reached.
func (c RecordSinkConfig) SinkConfigured() bool {
	return c.APIKey != "" && c.BaseID != ""
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
