package config

import (
	"fmt"
	"strings"

	"leadpdf/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateMail(cfg.Mail); err != nil {
		errors = append(errors, err)
	}

	if err := validateRecordSink(cfg.RecordSink); err != nil {
		errors = append(errors, err)
	}

	if err := validateRequestLog(cfg.RequestLog); err != nil {
		errors = append(errors, err)
	}

	if err := validateDeduplication(cfg.Deduplication); err != nil {
		errors = append(errors, err)
	}

	if err := validateRateLimit(cfg.RateLimit); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

// Warnings lists settings that leave the service running in a degraded mode.
// They are logged at startup and never stop the process.
func Warnings(cfg *Config) []string {
	var warnings []string

	if !cfg.Mail.MailConfigured() {
		if cfg.Mail.Provider == constants.MailProviderSMTP {
			warnings = append(warnings, "mail.smtp.host not set: emails cannot be sent")
		} else {
			warnings = append(warnings, "mail.api_key (SENDGRID_API_KEY) not set: emails cannot be sent")
		}
	}

	if cfg.Mail.From == "" {
		warnings = append(warnings, "mail.from (FROM_EMAIL) not set: provider will reject sends without a verified sender")
	}

	if !cfg.RecordSink.SinkConfigured() {
		warnings = append(warnings, "record_sink.api_key or record_sink.base_id not set: submissions will not be mirrored")
	}

	return warnings
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeout <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeout <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		}
	}

	if cfg.AssetsDir == "" {
		return &ValidationError{
			Field:   "server.assets_dir",
			Message: "assets directory is required",
		}
	}

	return nil
}

func validateMail(cfg MailConfig) error {
	switch cfg.Provider {
	case constants.MailProviderSendGrid, constants.MailProviderSMTP:
	default:
		return &ValidationError{
			Field:   "mail.provider",
			Message: fmt.Sprintf("unknown mail provider: %s (supported: sendgrid, smtp)", cfg.Provider),
		}
	}

	if cfg.DocumentFile == "" {
		return &ValidationError{
			Field:   "mail.document_file",
			Message: "document file name is required",
		}
	}

	if strings.ContainsAny(cfg.DocumentFile, `/\`) {
		return &ValidationError{
			Field:   "mail.document_file",
			Message: "document file must be a bare file name inside the assets directory",
		}
	}

	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "mail.timeout",
			Message: "timeout must be positive",
		}
	}

	if cfg.SMTP.Host != "" && (cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535) {
		return &ValidationError{
			Field:   "mail.smtp.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.SMTP.Port),
		}
	}

	switch cfg.SMTP.Security {
	case "", constants.SMTPSecurityStartTLS, constants.SMTPSecurityTLS, constants.SMTPSecurityNone:
	default:
		return &ValidationError{
			Field:   "mail.smtp.security",
			Message: fmt.Sprintf("unknown smtp security: %s (supported: starttls, tls, none)", cfg.SMTP.Security),
		}
	}

	return nil
}

func validateRecordSink(cfg RecordSinkConfig) error {
	if cfg.Timeout <= 0 {
		return &ValidationError{
			Field:   "record_sink.timeout",
			Message: "timeout must be positive",
		}
	}

	if cfg.SinkConfigured() && cfg.Table == "" {
		return &ValidationError{
			Field:   "record_sink.table",
			Message: "table name is required when the record sink is configured",
		}
	}

	return nil
}

func validateRequestLog(cfg RequestLogConfig) error {
	if cfg.Path == "" {
		return &ValidationError{
			Field:   "request_log.path",
			Message: "request log path is required",
		}
	}
	return nil
}

func validateDeduplication(cfg DeduplicationConfig) error {
	validAlgorithms := map[string]bool{
		"md5": true, "sha256": true,
	}
	if cfg.HashAlgorithm != "" && !validAlgorithms[strings.ToLower(cfg.HashAlgorithm)] {
		return &ValidationError{
			Field:   "deduplication.hash_algorithm",
			Message: fmt.Sprintf("invalid hash algorithm: %s (valid: md5, sha256)", cfg.HashAlgorithm),
		}
	}

	if cfg.BucketWidth <= 0 {
		return &ValidationError{
			Field:   "deduplication.bucket_width",
			Message: "bucket width must be positive",
		}
	}

	if cfg.TTLMultiplier < 1 {
		return &ValidationError{
			Field:   "deduplication.ttl_multiplier",
			Message: "ttl multiplier must be at least 1",
		}
	}

	if cfg.SweepInterval <= 0 {
		return &ValidationError{
			Field:   "deduplication.sweep_interval",
			Message: "sweep interval must be positive",
		}
	}

	return nil
}

func validateRateLimit(cfg RateLimitConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.RPS <= 0 {
		return &ValidationError{
			Field:   "rate_limit.rps",
			Message: "rps must be positive",
		}
	}

	if cfg.Burst < 1 {
		return &ValidationError{
			Field:   "rate_limit.burst",
			Message: "burst must be at least 1",
		}
	}

	return nil
}
