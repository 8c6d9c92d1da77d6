package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// Sweeper periodically drops expired links so records that are never
// visited again do not stay in memory forever.
type Sweeper struct {
	store    ports.LinkStore
	audit    ports.AuditLogger
	metrics  *metrics.Metrics
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(store ports.LinkStore, audit ports.AuditLogger, m *metrics.Metrics, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		audit:    audit,
		metrics:  m,
		interval: interval,
		logger:   slog.Default().With("component", "sweeper"),
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass and returns the number of records removed.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed := s.store.Sweep(ctx)
	if removed == 0 {
		return 0
	}

	s.metrics.SweptLinks.Add(float64(removed))
	s.logger.Info("expired short links swept", "removed", removed, "remaining", s.store.Len())
	if err := s.audit.Log(auditStack, "info", "cron_job", "Expired short URLs swept: "+strconv.Itoa(removed)); err != nil {
		s.logger.Warn("audit entry rejected", "error", err)
	}
	return removed
}
