package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leadpdf/internal/config"
	"leadpdf/internal/constants"
	apperrors "leadpdf/pkg/errors"
	"leadpdf/pkg/metrics"
	"leadpdf/pkg/tracing"
)

// Dispatcher emails the configured document to a requester.
type Dispatcher struct {
	cfg          config.MailConfig
	documentPath string
	transport    Transport
	timeout      time.Duration
}

func New(cfg config.MailConfig, assetsDir string, transport Transport) *Dispatcher {
	if cfg.DocumentFile == "" {
		cfg.DocumentFile = constants.DefaultDocumentFile
	}
	if cfg.Subject == "" {
		cfg.Subject = constants.DefaultEmailSubject
	}
	if cfg.Body == "" {
		cfg.Body = constants.DefaultEmailBody
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	return &Dispatcher{
		cfg:          cfg,
		documentPath: filepath.Join(assetsDir, cfg.DocumentFile),
		transport:    transport,
		timeout:      timeout,
	}
}

// NewTransport picks the transport named by cfg.Provider.
func NewTransport(cfg config.MailConfig) Transport {
	if cfg.Provider == constants.MailProviderSMTP {
		return NewSMTPTransport(cfg.SMTP)
	}
	return NewSendGridTransport(cfg.APIKey, cfg.BaseURL)
}

func (d *Dispatcher) DocumentPath() string {
	return d.documentPath
}

func (d *Dispatcher) Provider() string {
	return d.transport.Name()
}

// CheckDocument reports ErrDocumentUnavailable when the document is missing
// or is not a regular file.
func (d *Dispatcher) CheckDocument() error {
	info, err := os.Stat(d.documentPath)
	if err != nil {
		return apperrors.Wrap(err, ErrDocumentUnavailable)
	}
	if !info.Mode().IsRegular() {
		return apperrors.Wrap(fmt.Errorf("%s is not a regular file", d.documentPath), ErrDocumentUnavailable)
	}
	return nil
}

// Send reads the document, composes the message for recipient and submits
// it synchronously. It is never retried.
func (d *Dispatcher) Send(ctx context.Context, recipient, name string) (Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "dispatch.send")
	defer span.End()

	document, err := os.ReadFile(d.documentPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("read document: %w", err)
		}
		tracing.RecordError(span, err)
		return Outcome{}, apperrors.Wrap(err, ErrDocumentUnavailable)
	}

	if !d.transport.Configured() {
		return Outcome{}, ErrNotConfigured
	}

	email := d.compose(recipient, name, document)

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := d.transport.Send(sendCtx, email)
	duration := time.Since(start)

	if err != nil {
		if !apperrors.IsProvider(err) {
			err = sendFailed(err.Error(), err)
		}
		tracing.RecordError(span, err)
		metrics.ObserveEmailDispatch(d.transport.Name(), "error", duration)
		return Outcome{}, err
	}

	metrics.ObserveEmailDispatch(d.transport.Name(), "success", duration)
	return outcome, nil
}

func (d *Dispatcher) compose(recipient, name string, document []byte) Email {
	return Email{
		Recipient:   recipient,
		Sender:      d.cfg.From,
		SenderName:  d.cfg.FromName,
		Subject:     d.cfg.Subject,
		Body:        strings.ReplaceAll(d.cfg.Body, constants.NamePlaceholder, name),
		Attachment:  document,
		Filename:    d.cfg.DocumentFile,
		ContentType: constants.DocumentContentType,
		Disposition: constants.AttachmentDisposition,
	}
}
