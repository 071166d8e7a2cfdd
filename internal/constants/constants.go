package constants

import "time"

const (
	ServiceName = "pdf-mailer"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	HealthCheckTimeout = 5 * time.Second
)

const (
	CacheKeyPrefixDedup = "dedup:"
)

const (
	DefaultDedupBucketWidth   = time.Minute
	DefaultDedupTTLMultiplier = 2
	DefaultDedupSweepInterval = 30 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	HTTPStatusOKMin = 200
	HTTPStatusOKMax = 300
)

const (
	MailProviderSendGrid = "sendgrid"
	MailProviderSMTP     = "smtp"
)

const (
	SMTPSecurityStartTLS = "starttls"
	SMTPSecurityTLS      = "tls"
	SMTPSecurityNone     = "none"
)

const (
	DefaultAssetsDir      = "assets"
	DefaultDocumentFile   = "document.pdf"
	DefaultEmailSubject   = "Your requested PDF"
	DefaultEmailBody      = "Hi {name},\n\nThanks for your interest. The PDF you requested is attached to this email.\n\nBest regards"
	DocumentContentType   = "application/pdf"
	AttachmentDisposition = "attachment"
	NamePlaceholder       = "{name}"
)

const (
	DefaultRequestLogPath = "data/requests.csv"
	RequestLogHeader      = "timestamp,name,email,phone"
	RecordTimestampFormat = "2006-01-02T15:04:05.000Z"
)

const (
	DefaultSendGridBaseURL = "https://api.sendgrid.com"
	SendGridSendEndpoint   = "/v3/mail/send"
	DefaultRecordSinkURL   = "https://api.airtable.com"
	DefaultRecordSinkTable = "Leads"
)

const (
	MessageEmailSent    = "Email sent"
	MessageAlreadySent  = "Already sent recently"
	MaxRequestBodyBytes = 64 << 10
)
