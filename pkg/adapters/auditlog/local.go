package auditlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

var _ ports.AuditLogger = (*Local)(nil)

// Local applies the same validation as Client but only writes to slog. It is
// used when no remote endpoint is configured.
type Local struct {
	logger *slog.Logger
}

func NewLocal(logger *slog.Logger) *Local {
	return &Local{logger: logger.With("component", "auditlog")}
}

func (l *Local) Log(stack, level, pkg, message string) error {
	entry, err := NewEntry(stack, level, pkg, message, time.Now())
	if err != nil {
		return err
	}
	l.logger.Debug("audit",
		"stack", entry.Stack,
		"level", entry.Level,
		"package", entry.Package,
		"message", entry.Message)
	return nil
}

func (l *Local) Close(context.Context) error { return nil }
