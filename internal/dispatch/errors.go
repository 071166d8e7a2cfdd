package dispatch

import (
	apperrors "leadpdf/pkg/errors"
)

var (
	ErrDocumentUnavailable = apperrors.ErrConfiguration.WithMessage("PDF not available on server")
	ErrNotConfigured       = apperrors.ErrConfiguration.WithMessage("email provider not configured")
)

// sendFailed wraps a provider rejection. detail is what the client sees in
// the details field.
func sendFailed(detail string, cause error) error {
	return apperrors.Wrap(cause, apperrors.ErrProvider.WithDetails(detail))
}
