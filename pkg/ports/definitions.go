package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
)

// LinkStore is the authoritative short code -> link map
type LinkStore interface {
	// Create inserts a fresh record stamped with the store clock. It overwrites
	// any existing record unless the store rejects collisions.
	Create(ctx context.Context, shortCode, originalURL string, validity time.Duration) (*domain.ShortLink, error)
	// Resolve records a click and returns the target. An expired record is
	// deleted and reported as domain.ErrExpired.
	Resolve(ctx context.Context, shortCode, visitor string) (string, error)
	// GetAnalytics never checks expiry.
	GetAnalytics(ctx context.Context, shortCode string) (*domain.Analytics, error)
	// Sweep deletes every expired record and returns how many were removed.
	Sweep(ctx context.Context) int
	Len() int
}

// LinkService defines the business logic operations
type LinkService interface {
	CreateShortLink(ctx context.Context, originalURL, customCode string, validitySeconds int) (*domain.ShortLink, error)
	Redirect(ctx context.Context, shortCode, visitor string) (string, error)
	Analytics(ctx context.Context, shortCode string) (*domain.Analytics, error)
}

// AuditLogger submits entries to the external audit channel. Log returns an
// error only when the entry itself is invalid; delivery is fire-and-forget.
type AuditLogger interface {
	Log(stack, level, pkg, message string) error
	Close(ctx context.Context) error
}
