package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"leadpdf/internal/constants"
)

// LoadConfig builds the configuration from defaults, an optional YAML file,
// an optional .env file and the process environment, in increasing order of
// precedence.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	loadEnvFile()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.assets_dir", constants.DefaultAssetsDir)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.max_size_mb", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age_days", 28)
	viper.SetDefault("logging.compress", true)

	viper.SetDefault("mail.provider", constants.MailProviderSendGrid)
	viper.SetDefault("mail.api_key", "")
	viper.SetDefault("mail.from", "")
	viper.SetDefault("mail.from_name", "")
	viper.SetDefault("mail.subject", constants.DefaultEmailSubject)
	viper.SetDefault("mail.body", constants.DefaultEmailBody)
	viper.SetDefault("mail.document_file", constants.DefaultDocumentFile)
	viper.SetDefault("mail.base_url", constants.DefaultSendGridBaseURL)
	viper.SetDefault("mail.timeout", constants.DefaultHTTPTimeout)
	viper.SetDefault("mail.smtp.host", "")
	viper.SetDefault("mail.smtp.port", 587)
	viper.SetDefault("mail.smtp.username", "")
	viper.SetDefault("mail.smtp.password", "")
	viper.SetDefault("mail.smtp.security", constants.SMTPSecurityStartTLS)

	viper.SetDefault("record_sink.api_key", "")
	viper.SetDefault("record_sink.base_id", "")
	viper.SetDefault("record_sink.table", constants.DefaultRecordSinkTable)
	viper.SetDefault("record_sink.base_url", constants.DefaultRecordSinkURL)
	viper.SetDefault("record_sink.timeout", constants.DefaultHTTPTimeout)

	viper.SetDefault("request_log.path", constants.DefaultRequestLogPath)

	viper.SetDefault("deduplication.hash_algorithm", "sha256")
	viper.SetDefault("deduplication.bucket_width", constants.DefaultDedupBucketWidth)
	viper.SetDefault("deduplication.ttl_multiplier", constants.DefaultDedupTTLMultiplier)
	viper.SetDefault("deduplication.sweep_interval", constants.DefaultDedupSweepInterval)

	viper.SetDefault("cors.allowed_origins", []string{"*"})

	viper.SetDefault("rate_limit.enabled", false)
	viper.SetDefault("rate_limit.rps", 1.0)
	viper.SetDefault("rate_limit.burst", 5)
	viper.SetDefault("rate_limit.cleanup_interval", 300)
	viper.SetDefault("rate_limit.max_age", 600)

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", time.Minute)
	viper.SetDefault("circuit_breaker.timeout", 30*time.Second)
	viper.SetDefault("circuit_breaker.failure_ratio", 0.5)
	viper.SetDefault("circuit_breaker.min_requests", 3)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.otlp.endpoint", "localhost:4317")
	viper.SetDefault("tracing.otlp.insecure", true)
	viper.SetDefault("tracing.sampler.type", "always_on")
	viper.SetDefault("tracing.sampler.param", 1.0)
}

// bindEnvVariables maps the flat variable names used by existing
// deployments onto the nested keys. The nested form (MAIL_API_KEY) wins.
func bindEnvVariables() {
	viper.BindEnv("server.port", "SERVER_PORT", "PORT")
	viper.BindEnv("server.assets_dir", "SERVER_ASSETS_DIR", "ASSETS_DIR")

	viper.BindEnv("logging.level", "LOGGING_LEVEL", "LOG_LEVEL")
	viper.BindEnv("logging.file", "LOGGING_FILE", "LOG_FILE")

	viper.BindEnv("mail.provider", "MAIL_PROVIDER")
	viper.BindEnv("mail.api_key", "MAIL_API_KEY", "SENDGRID_API_KEY")
	viper.BindEnv("mail.from", "MAIL_FROM", "FROM_EMAIL")
	viper.BindEnv("mail.from_name", "MAIL_FROM_NAME", "FROM_NAME")
	viper.BindEnv("mail.subject", "MAIL_SUBJECT", "EMAIL_SUBJECT")
	viper.BindEnv("mail.body", "MAIL_BODY", "EMAIL_BODY")
	viper.BindEnv("mail.document_file", "MAIL_DOCUMENT_FILE", "PDF_FILENAME")
	viper.BindEnv("mail.smtp.host", "MAIL_SMTP_HOST", "SMTP_HOST")
	viper.BindEnv("mail.smtp.port", "MAIL_SMTP_PORT", "SMTP_PORT")
	viper.BindEnv("mail.smtp.username", "MAIL_SMTP_USERNAME", "SMTP_USERNAME")
	viper.BindEnv("mail.smtp.password", "MAIL_SMTP_PASSWORD", "SMTP_PASSWORD")
	viper.BindEnv("mail.smtp.security", "MAIL_SMTP_SECURITY", "SMTP_SECURITY")

	viper.BindEnv("record_sink.api_key", "RECORD_SINK_API_KEY", "AIRTABLE_API_KEY")
	viper.BindEnv("record_sink.base_id", "RECORD_SINK_BASE_ID", "AIRTABLE_BASE_ID")
	viper.BindEnv("record_sink.table", "RECORD_SINK_TABLE", "AIRTABLE_TABLE_NAME")

	viper.BindEnv("request_log.path", "REQUEST_LOG_PATH")

	viper.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) {
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = parseList(origins)
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = constants.DefaultEmailSubject
	}
	if cfg.Mail.Body == "" {
		cfg.Mail.Body = constants.DefaultEmailBody
	}
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile loads .env from the working directory or its parent. Missing
// files are ignored and variables already set in the environment win.
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
