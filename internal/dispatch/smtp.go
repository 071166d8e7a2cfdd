package dispatch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"leadpdf/internal/config"
	"leadpdf/internal/constants"
)

// SMTPTransport delivers through an SMTP relay, authenticating with PLAIN
// when a username is configured.
type SMTPTransport struct {
	cfg config.SMTPConfig
	now func() time.Time
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg, now: time.Now}
}

func (t *SMTPTransport) Name() string {
	return constants.MailProviderSMTP
}

func (t *SMTPTransport) Configured() bool {
	return t.cfg.Host != ""
}

// Send delivers email over a connection tied to ctx. When ctx ends the
// connection is closed, so an abandoned attempt cannot complete later.
func (t *SMTPTransport) Send(ctx context.Context, email Email) (Outcome, error) {
	raw, err := t.buildMessage(email)
	if err != nil {
		return Outcome{}, sendFailed("failed to build message", err)
	}

	if err := t.deliver(ctx, email, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, sendFailed(ctxErr.Error(), ctxErr)
		}
		return Outcome{}, sendFailed(err.Error(), err)
	}

	return Outcome{
		Provider:   t.Name(),
		StatusCode: 250,
	}, nil
}

func (t *SMTPTransport) deliver(ctx context.Context, email Email, raw []byte) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	client, err := t.newClient(conn)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		client.CommandTimeout = remaining
		client.SubmissionTimeout = remaining
	}

	if t.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := client.Auth(sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.SendMail(email.Sender, []string{email.Recipient}, bytes.NewReader(raw)); err != nil {
		return err
	}

	// The message is accepted at this point; a failed QUIT does not undo it.
	_ = client.Quit()
	return nil
}

func (t *SMTPTransport) newClient(conn net.Conn) (*smtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: t.cfg.Host}

	switch t.cfg.Security {
	case constants.SMTPSecurityNone:
		return smtp.NewClient(conn), nil
	case constants.SMTPSecurityTLS:
		return smtp.NewClient(tls.Client(conn, tlsConfig)), nil
	default:
		client, err := smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("starttls: %w", err)
		}
		return client, nil
	}
}

func (t *SMTPTransport) buildMessage(email Email) ([]byte, error) {
	var h mail.Header
	h.SetDate(t.now())
	h.SetAddressList("From", []*mail.Address{{Name: email.SenderName, Address: email.Sender}})
	h.SetAddressList("To", []*mail.Address{{Address: email.Recipient}})
	h.SetSubject(email.Subject)

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}
	if _, err := tw.Write([]byte(email.Body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close body: %w", err)
	}

	var ah mail.AttachmentHeader
	ah.SetContentType(email.ContentType, nil)
	ah.SetFilename(email.Filename)
	ah.Set("Content-Transfer-Encoding", "base64")
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	if _, err := aw.Write(email.Attachment); err != nil {
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("close attachment: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}
