package submission

import (
	"regexp"
	"strings"

	apperrors "leadpdf/pkg/errors"
)

// notSpace excludes ASCII whitespace, vertical tab, Unicode separators and
// the byte order mark.
const notSpace = `\s\v\p{Z}\x{FEFF}`

var emailPattern = regexp.MustCompile(`^[^` + notSpace + `@]+@[^` + notSpace + `@]+\.[^` + notSpace + `]+$`)

var (
	ErrMissingFields = apperrors.ErrValidation.WithMessage("name and email required")
	ErrInvalidEmail  = apperrors.ErrValidation.WithMessage("invalid email")
)

// Validate applies the rules in order and returns the first violation.
// Accepted values are returned exactly as received.
func Validate(in Input) (Request, error) {
	name := value(in.Name)
	email := value(in.Email)

	if blank(name) || blank(email) {
		return Request{}, ErrMissingFields
	}

	if !emailPattern.MatchString(email) {
		return Request{}, ErrInvalidEmail
	}

	return Request{
		Name:  name,
		Email: email,
		Phone: value(in.Phone),
	}, nil
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
