package api

import (
	"context"

	"leadpdf/internal/deduplication"
	"leadpdf/internal/dispatch"
	"leadpdf/internal/recordsink"
	"leadpdf/internal/requestlog"
)

type MessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type HealthResponse struct {
	OK bool   `json:"ok"`
	TS string `json:"ts"`
}

type DedupGuard interface {
	ShouldSuppress(ctx context.Context, email string) (deduplication.Admission, bool)
	Release(ctx context.Context, adm deduplication.Admission)
}

type RequestLog interface {
	Append(ctx context.Context, rec requestlog.Record) error
}

type RecordSink interface {
	Save(ctx context.Context, rec recordsink.Record) recordsink.SaveResult
}

type Mailer interface {
	CheckDocument() error
	Send(ctx context.Context, recipient, name string) (dispatch.Outcome, error)
}
