package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerRegistry_Check(t *testing.T) {
	ok := NewFuncChecker("ok", func(context.Context) error { return nil })
	failing := NewFuncChecker("failing", func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name     string
		setup    func(r *CheckerRegistry)
		want     Status
		failures map[string]Status
	}{
		{
			name:  "all healthy",
			setup: func(r *CheckerRegistry) { r.Register(ok) },
			want:  StatusHealthy,
		},
		{
			name:     "optional failure degrades",
			setup:    func(r *CheckerRegistry) { r.Register(ok); r.RegisterOptional(failing) },
			want:     StatusDegraded,
			failures: map[string]Status{"failing": StatusDegraded},
		},
		{
			name:     "critical failure",
			setup:    func(r *CheckerRegistry) { r.Register(failing) },
			want:     StatusUnhealthy,
			failures: map[string]Status{"failing": StatusUnhealthy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewCheckerRegistry()
			tt.setup(registry)

			report := registry.Check(context.Background())
			assert.Equal(t, tt.want, report.Status)
			for name, status := range tt.failures {
				assert.Equal(t, status, report.Checks[name].Status)
				assert.Equal(t, "down", report.Checks[name].Message)
			}
		})
	}
}

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.pdf")

	assert.Error(t, NewFileChecker("document", path).Check(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
	assert.NoError(t, NewFileChecker("document", path).Check(context.Background()))

	assert.Error(t, NewFileChecker("dir", dir).Check(context.Background()))
}

func TestDirWritableChecker(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	checker := NewDirWritableChecker("request_log", dir)

	assert.Equal(t, "request_log", checker.Name())
	assert.NoError(t, checker.Check(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
