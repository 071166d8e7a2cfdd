package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadpdf/internal/config"
	apperrors "leadpdf/pkg/errors"
)

var testDocument = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\nbinary\x00payload\n%%EOF")

type sendGridPayload struct {
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	From struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"from"`
	Subject string `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Attachments []struct {
		Content     string `json:"content"`
		Type        string `json:"type"`
		Filename    string `json:"filename"`
		Disposition string `json:"disposition"`
	} `json:"attachments"`
}

func writeDocument(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.pdf"), testDocument, 0o644))
	return dir
}

func testMailConfig(baseURL string) config.MailConfig {
	return config.MailConfig{
		Provider:     "sendgrid",
		APIKey:       "SG.test",
		From:         "sender@example.com",
		FromName:     "Sender",
		Body:         "Hello {name}, see attached.",
		DocumentFile: "guide.pdf",
		BaseURL:      baseURL,
		Timeout:      time.Second,
	}
}

func TestDispatcher_Send_SendGrid(t *testing.T) {
	var got sendGridPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := testMailConfig(server.URL)
	d := New(cfg, writeDocument(t), NewTransport(cfg))

	outcome, err := d.Send(context.Background(), "a@b.c", "Ann")
	require.NoError(t, err)

	assert.Equal(t, "sendgrid", outcome.Provider)
	assert.Equal(t, http.StatusAccepted, outcome.StatusCode)
	assert.Equal(t, "msg-1", outcome.MessageID)

	require.Len(t, got.Personalizations, 1)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "a@b.c", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "sender@example.com", got.From.Email)
	assert.Equal(t, "Sender", got.From.Name)
	assert.Equal(t, "Your requested PDF", got.Subject)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "Hello Ann, see attached.", got.Content[0].Value)

	require.Len(t, got.Attachments, 1)
	attachment := got.Attachments[0]
	assert.Equal(t, "application/pdf", attachment.Type)
	assert.Equal(t, "guide.pdf", attachment.Filename)
	assert.Equal(t, "attachment", attachment.Disposition)

	decoded, err := base64.StdEncoding.DecodeString(attachment.Content)
	require.NoError(t, err)
	assert.Equal(t, testDocument, decoded)
}

func TestDispatcher_Send_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The from address does not match a verified Sender Identity."}]}`))
	}))
	defer server.Close()

	cfg := testMailConfig(server.URL)
	d := New(cfg, writeDocument(t), NewTransport(cfg))

	_, err := d.Send(context.Background(), "a@b.c", "Ann")
	require.Error(t, err)
	assert.True(t, apperrors.IsProvider(err))

	response := apperrors.ToErrorResponse(err)
	assert.Equal(t, "failed to send email", response.Error)
	assert.Contains(t, response.Details, "verified Sender Identity")
}

func TestDispatcher_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	cfg := testMailConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	d := New(cfg, writeDocument(t), NewTransport(cfg))

	_, err := d.Send(context.Background(), "a@b.c", "Ann")
	require.Error(t, err)
	assert.True(t, apperrors.IsProvider(err))
}

func TestDispatcher_Send_DocumentMissing(t *testing.T) {
	cfg := testMailConfig("http://127.0.0.1:1")
	d := New(cfg, t.TempDir(), NewTransport(cfg))

	_, err := d.Send(context.Background(), "a@b.c", "Ann")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDocumentUnavailable))
	assert.Equal(t, "PDF not available on server", apperrors.ToErrorResponse(err).Error)

	assert.ErrorIs(t, d.CheckDocument(), ErrDocumentUnavailable)
}

func TestDispatcher_Send_NotConfigured(t *testing.T) {
	cfg := testMailConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	d := New(cfg, writeDocument(t), NewTransport(cfg))

	_, err := d.Send(context.Background(), "a@b.c", "Ann")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "email provider not configured", apperrors.ToErrorResponse(err).Error)
}

func TestDispatcher_CheckDocument(t *testing.T) {
	dir := writeDocument(t)
	cfg := testMailConfig("")

	assert.NoError(t, New(cfg, dir, NewTransport(cfg)).CheckDocument())

	cfg.DocumentFile = "missing.pdf"
	assert.ErrorIs(t, New(cfg, dir, NewTransport(cfg)).CheckDocument(), ErrDocumentUnavailable)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))
	cfg.DocumentFile = "folder.pdf"
	assert.ErrorIs(t, New(cfg, dir, NewTransport(cfg)).CheckDocument(), ErrDocumentUnavailable)
}

func TestNew_Defaults(t *testing.T) {
	d := New(config.MailConfig{APIKey: "k"}, "assets", NewSendGridTransport("k", ""))

	assert.Equal(t, filepath.Join("assets", "document.pdf"), d.DocumentPath())
	assert.Equal(t, "sendgrid", d.Provider())

	email := d.compose("a@b.c", "Ann", nil)
	assert.Equal(t, "Your requested PDF", email.Subject)
	assert.Contains(t, email.Body, "Hi Ann,")
}
