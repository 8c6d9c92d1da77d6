package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

var _ ports.LinkStore = (*Repository)(nil)

// Repository keeps every link in process memory behind a single mutex, so
// Create, Resolve, GetAnalytics and Sweep never interleave on a record.
type Repository struct {
	mu    sync.Mutex
	links map[string]*domain.ShortLink

	now              func() time.Time
	historyLimit     int
	rejectCollisions bool
}

type Option func(*Repository)

// WithClock replaces time.Now; tests use it to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithHistoryLimit caps each link's click history to the newest n entries.
func WithHistoryLimit(n int) Option {
	return func(r *Repository) { r.historyLimit = n }
}

// WithCollisionCheck makes Create fail with domain.ErrCodeTaken instead of
// overwriting a live record.
func WithCollisionCheck(enabled bool) Option {
	return func(r *Repository) { r.rejectCollisions = enabled }
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		links: make(map[string]*domain.ShortLink),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Create(_ context.Context, shortCode, originalURL string, validity time.Duration) (*domain.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.rejectCollisions {
		if existing, ok := r.links[shortCode]; ok && !domain.IsExpired(existing, now) {
			return nil, domain.ErrCodeTaken
		}
	}

	link := domain.NewShortLink(shortCode, originalURL, now, validity)
	r.links[shortCode] = link

	created := *link
	created.UniqueVisitors = nil
	created.ClickHistory = nil
	return &created, nil
}

func (r *Repository) Resolve(_ context.Context, shortCode, visitor string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[shortCode]
	if !ok {
		return "", domain.ErrNotFound
	}

	now := r.now()
	if domain.IsExpired(link, now) {
		delete(r.links, shortCode)
		return "", domain.ErrExpired
	}

	link.RecordClick(visitor, now, r.historyLimit)
	return link.OriginalURL, nil
}

func (r *Repository) GetAnalytics(_ context.Context, shortCode string) (*domain.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[shortCode]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return link.Snapshot(), nil
}

func (r *Repository) Sweep(_ context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for code, link := range r.links {
		if domain.IsExpired(link, now) {
			delete(r.links, code)
			removed++
		}
	}
	return removed
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}
