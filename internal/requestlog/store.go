package requestlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leadpdf/internal/constants"
	"leadpdf/pkg/metrics"
	"leadpdf/pkg/tracing"
)

type Record struct {
	Timestamp time.Time
	Name      string
	Email     string
	Phone     string
}

// Store appends submissions to a CSV file. Every row goes out in a single
// write on an O_APPEND descriptor, so concurrent appenders never interleave
// within a row and no process lock is taken.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = constants.DefaultRequestLogPath
	}
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Append(ctx context.Context, rec Record) error {
	_, span := tracing.StartSpan(ctx, "requestlog.append")
	defer span.End()

	if err := s.append(rec); err != nil {
		tracing.RecordError(span, err)
		metrics.IncRequestLogWrite("error")
		return err
	}

	metrics.IncRequestLogWrite("success")
	return nil
}

func (s *Store) append(rec Record) error {
	if err := s.ensureHeader(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open request log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatRow(rec)); err != nil {
		return fmt.Errorf("write request log: %w", err)
	}
	return nil
}

// ensureHeader creates the file with its header line if it does not exist.
// The header is written to a temp file which is then hard-linked into place,
// so no reader or appender ever sees a file without its header.
func (s *Store) ensureHeader() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat request log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create request log dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".requests-*.tmp")
	if err != nil {
		return fmt.Errorf("create request log: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(constants.RequestLogHeader + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("write request log header: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod request log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close request log: %w", err)
	}

	if err := os.Link(tmpName, s.path); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("link request log: %w", err)
	}
	return nil
}

// FormatRow renders rec as one CSV line. Every field is quoted and inner
// quotes are doubled.
func FormatRow(rec Record) string {
	fields := []string{
		rec.Timestamp.UTC().Format(constants.RecordTimestampFormat),
		rec.Name,
		rec.Email,
		rec.Phone,
	}

	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(field))
	}
	b.WriteByte('\n')
	return b.String()
}

func quote(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
