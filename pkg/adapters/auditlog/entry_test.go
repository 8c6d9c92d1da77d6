package auditlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		stack   string
		level   string
		pkg     string
		wantErr error
	}{
		{"backend package", StackBackend, "info", "route", nil},
		{"backend shared package", StackBackend, "error", "middleware", nil},
		{"frontend package", StackFrontend, "warn", "component", nil},
		{"frontend shared package", StackFrontend, "debug", "utils", nil},
		{"level is lower-cased", StackBackend, "FATAL", "db", nil},
		{"frontend package on backend", StackBackend, "info", "page", ErrInvalidPackage},
		{"backend package on frontend", StackFrontend, "info", "repository", ErrInvalidPackage},
		{"unknown stack", "mobile", "info", "utils", ErrInvalidStack},
		{"unknown level", StackBackend, "verbose", "route", ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewEntry(tt.stack, tt.level, tt.pkg, "hello", at)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stack, entry.Stack)
			assert.Equal(t, tt.pkg, entry.Package)
			assert.Equal(t, "hello", entry.Message)
			assert.Equal(t, "2026-05-04T10:30:00Z", entry.Timestamp)
		})
	}
}
