package domain

import "time"

// ShortLink is one live short code and the click bookkeeping attached to it.
type ShortLink struct {
	ShortCode      string        `json:"short_code"`
	OriginalURL    string        `json:"original_url"`
	CreatedAt      time.Time     `json:"created_at"`
	ValidityPeriod time.Duration `json:"validity_period"`
	Clicks         int64         `json:"clicks"`

	// UniqueVisitors holds every distinct visitor seen, even those whose
	// clicks have rotated out of a capped ClickHistory.
	UniqueVisitors map[string]struct{} `json:"-"`
	ClickHistory   []Click             `json:"click_history"`
}

// Click is one successful resolve.
type Click struct {
	Visitor   string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`
}

// Analytics is a read-only snapshot of a ShortLink.
type Analytics struct {
	ShortCode    string    `json:"-"`
	OriginalURL  string    `json:"originalUrl"`
	Clicks       int64     `json:"clicks"`
	UniqueUsers  int       `json:"uniqueUsers"`
	ClickHistory []Click   `json:"clickHistory"`
	CreatedAt    time.Time `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// NewShortLink returns a record with zeroed counters.
func NewShortLink(code, originalURL string, createdAt time.Time, validity time.Duration) *ShortLink {
	return &ShortLink{
		ShortCode:      code,
		OriginalURL:    originalURL,
		CreatedAt:      createdAt,
		ValidityPeriod: validity,
		UniqueVisitors: make(map[string]struct{}),
		ClickHistory:   []Click{},
	}
}

// ExpiresAt is the last instant at which the link still resolves.
func (l *ShortLink) ExpiresAt() time.Time {
	return l.CreatedAt.Add(l.ValidityPeriod)
}

// RecordClick bumps the counters and appends to the history. A positive
// historyLimit keeps only the newest historyLimit clicks; Clicks stays exact.
func (l *ShortLink) RecordClick(visitor string, at time.Time, historyLimit int) {
	l.Clicks++
	l.UniqueVisitors[visitor] = struct{}{}
	l.ClickHistory = append(l.ClickHistory, Click{Visitor: visitor, Timestamp: at})
	if historyLimit > 0 && len(l.ClickHistory) > historyLimit {
		excess := len(l.ClickHistory) - historyLimit
		l.ClickHistory = l.ClickHistory[excess:]
	}
}

// Snapshot copies the link into an Analytics view that shares no memory with it.
func (l *ShortLink) Snapshot() *Analytics {
	history := make([]Click, len(l.ClickHistory))
	copy(history, l.ClickHistory)

	return &Analytics{
		ShortCode:    l.ShortCode,
		OriginalURL:  l.OriginalURL,
		Clicks:       l.Clicks,
		UniqueUsers:  len(l.UniqueVisitors),
		ClickHistory: history,
		CreatedAt:    l.CreatedAt,
		ExpiresAt:    l.ExpiresAt(),
	}
}
