package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         3000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			AssetsDir:    "assets",
		},
		Mail: MailConfig{
			Provider:     "sendgrid",
			APIKey:       "SG.key",
			From:         "a@example.com",
			DocumentFile: "document.pdf",
			Timeout:      10 * time.Second,
		},
		RecordSink: RecordSinkConfig{Timeout: 10 * time.Second, Table: "Leads"},
		RequestLog: RequestLogConfig{Path: "data/requests.csv"},
		Deduplication: DeduplicationConfig{
			HashAlgorithm: "sha256",
			BucketWidth:   time.Minute,
			TTLMultiplier: 2,
			SweepInterval: 30 * time.Second,
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{name: "valid", mutate: func(cfg *Config) {}},
		{name: "bad port", mutate: func(cfg *Config) { cfg.Server.Port = 70000 }, wantField: "server.port"},
		{name: "unknown provider", mutate: func(cfg *Config) { cfg.Mail.Provider = "fax" }, wantField: "mail.provider"},
		{name: "document path", mutate: func(cfg *Config) { cfg.Mail.DocumentFile = "../etc/passwd" }, wantField: "mail.document_file"},
		{name: "mail timeout", mutate: func(cfg *Config) { cfg.Mail.Timeout = 0 }, wantField: "mail.timeout"},
		{name: "smtp port", mutate: func(cfg *Config) { cfg.Mail.SMTP = SMTPConfig{Host: "h", Port: 0} }, wantField: "mail.smtp.port"},
		{name: "smtp security", mutate: func(cfg *Config) { cfg.Mail.SMTP.Security = "ssl3" }, wantField: "mail.smtp.security"},
		{name: "sink timeout", mutate: func(cfg *Config) { cfg.RecordSink.Timeout = 0 }, wantField: "record_sink.timeout"},
		{name: "log path", mutate: func(cfg *Config) { cfg.RequestLog.Path = "" }, wantField: "request_log.path"},
		{name: "hash algorithm", mutate: func(cfg *Config) { cfg.Deduplication.HashAlgorithm = "crc32" }, wantField: "deduplication.hash_algorithm"},
		{name: "bucket width", mutate: func(cfg *Config) { cfg.Deduplication.BucketWidth = 0 }, wantField: "deduplication.bucket_width"},
		{name: "ttl multiplier", mutate: func(cfg *Config) { cfg.Deduplication.TTLMultiplier = 0 }, wantField: "deduplication.ttl_multiplier"},
		{name: "rate limit", mutate: func(cfg *Config) { cfg.RateLimit = RateLimitConfig{Enabled: true, RPS: 0, Burst: 1} }, wantField: "rate_limit.rps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantField)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.APIKey = ""
	cfg.Mail.From = ""

	warnings := Warnings(cfg)
	assert.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "SENDGRID_API_KEY")

	cfg.Mail.Provider = "smtp"
	assert.Contains(t, Warnings(cfg)[0], "mail.smtp.host")
}
