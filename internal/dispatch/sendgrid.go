package dispatch

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"leadpdf/internal/constants"
)

// SendGridTransport submits messages to the SendGrid v3 mail send API.
type SendGridTransport struct {
	apiKey  string
	baseURL string
}

func NewSendGridTransport(apiKey, baseURL string) *SendGridTransport {
	if baseURL == "" {
		baseURL = constants.DefaultSendGridBaseURL
	}
	return &SendGridTransport{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *SendGridTransport) Name() string {
	return constants.MailProviderSendGrid
}

func (t *SendGridTransport) Configured() bool {
	return t.apiKey != ""
}

func (t *SendGridTransport) Send(ctx context.Context, email Email) (Outcome, error) {
	message := buildSendGridMessage(email)

	request := sendgrid.GetRequest(t.apiKey, constants.SendGridSendEndpoint, t.baseURL)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return Outcome{}, sendFailed(err.Error(), err)
	}

	if response.StatusCode < constants.HTTPStatusOKMin || response.StatusCode >= constants.HTTPStatusOKMax {
		detail := strings.TrimSpace(response.Body)
		if detail == "" {
			detail = fmt.Sprintf("status %d", response.StatusCode)
		}
		return Outcome{}, sendFailed(detail, fmt.Errorf("sendgrid returned status %d", response.StatusCode))
	}

	outcome := Outcome{
		Provider:   t.Name(),
		StatusCode: response.StatusCode,
	}
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		outcome.MessageID = ids[0]
	}
	return outcome, nil
}

func buildSendGridMessage(email Email) *mail.SGMailV3 {
	from := mail.NewEmail(email.SenderName, email.Sender)
	to := mail.NewEmail("", email.Recipient)
	content := mail.NewContent("text/plain", email.Body)

	message := mail.NewV3MailInit(from, email.Subject, to, content)

	attachment := mail.NewAttachment()
	attachment.SetContent(base64.StdEncoding.EncodeToString(email.Attachment))
	attachment.SetType(email.ContentType)
	attachment.SetFilename(email.Filename)
	attachment.SetDisposition(email.Disposition)
	message.AddAttachment(attachment)

	return message
}
