package recordsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadpdf/internal/config"
	"leadpdf/internal/constants"
	"leadpdf/pkg/circuitbreaker"
	"leadpdf/pkg/metrics"
	"leadpdf/pkg/tracing"
)

// ErrNotConfigured is carried by skipped results.
var ErrNotConfigured = errors.New("record sink not configured")

const maxErrorBodyBytes = 64 << 10

// Sink mirrors submissions to a remote table over its REST API.
type Sink struct {
	cfg     config.RecordSinkConfig
	client  *http.Client
	breaker *circuitbreaker.Wrapper
}

// New builds a sink. breaker may be nil, in which case every call goes
// straight to the remote store.
func New(cfg config.RecordSinkConfig, breaker *circuitbreaker.Wrapper) *Sink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultRecordSinkURL
	}
	if cfg.Table == "" {
		cfg.Table = constants.DefaultRecordSinkTable
	}

	return &Sink{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
	}
}

func (s *Sink) Configured() bool {
	return s.cfg.SinkConfigured()
}

// Save never returns an error directly; failures are reported in the result.
func (s *Sink) Save(ctx context.Context, rec Record) SaveResult {
	if !s.Configured() {
		metrics.ObserveRecordSink("skipped", 0)
		return SaveResult{Skipped: true, Err: ErrNotConfigured}
	}

	ctx, span := tracing.StartSpan(ctx, "recordsink.save")
	defer span.End()

	start := time.Now()
	var err error
	if s.breaker != nil {
		_, err = s.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
			return nil, s.post(ctx, rec)
		})
	} else {
		err = s.post(ctx, rec)
	}
	duration := time.Since(start)

	if err != nil {
		tracing.RecordError(span, err)
		status := "error"
		if errors.Is(err, circuitbreaker.ErrOpen) {
			status = "circuit_open"
		}
		metrics.ObserveRecordSink(status, duration)
		return SaveResult{Err: err}
	}

	metrics.ObserveRecordSink("success", duration)
	return SaveResult{}
}

func (s *Sink) endpoint() string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/v0/" +
		url.PathEscape(s.cfg.BaseID) + "/" + url.PathEscape(s.cfg.Table)
}

func (s *Sink) post(ctx context.Context, rec Record) error {
	payload := createRequest{
		Records: []recordPayload{{
			Fields: fields{
				Name:      rec.Name,
				Email:     rec.Email,
				Phone:     rec.Phone,
				Timestamp: rec.Timestamp.UTC().Format(constants.RecordTimestampFormat),
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return parseAPIError(resp.StatusCode, respBody)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
