package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExpired(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	link := NewShortLink("abc", "https://example.com", created, 10*time.Second)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"at creation", created, false},
		{"inside window", created.Add(5 * time.Second), false},
		{"exactly at boundary", created.Add(10 * time.Second), false},
		{"one nanosecond past", created.Add(10*time.Second + time.Nanosecond), true},
		{"long after", created.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(link, tt.now))
		})
	}
}

func TestRecordClickUnbounded(t *testing.T) {
	now := time.Now()
	link := NewShortLink("abc", "https://example.com", now, time.Hour)

	link.RecordClick("A", now, 0)
	link.RecordClick("A", now.Add(time.Second), 0)
	link.RecordClick("B", now.Add(2*time.Second), 0)

	assert.EqualValues(t, 3, link.Clicks)
	assert.Len(t, link.UniqueVisitors, 2)
	require.Len(t, link.ClickHistory, 3)
	assert.Equal(t, []string{"A", "A", "B"}, visitors(link.ClickHistory))
}

func TestRecordClickCappedHistory(t *testing.T) {
	now := time.Now()
	link := NewShortLink("abc", "https://example.com", now, time.Hour)

	for i, v := range []string{"A", "B", "C", "D", "E"} {
		link.RecordClick(v, now.Add(time.Duration(i)*time.Second), 3)
	}

	assert.EqualValues(t, 5, link.Clicks)
	assert.Len(t, link.UniqueVisitors, 5)
	assert.Equal(t, []string{"C", "D", "E"}, visitors(link.ClickHistory))
}

func TestSnapshotIsDetached(t *testing.T) {
	now := time.Now()
	link := NewShortLink("abc", "https://example.com", now, time.Minute)
	link.RecordClick("A", now, 0)

	snap := link.Snapshot()
	link.RecordClick("B", now, 0)

	assert.EqualValues(t, 1, snap.Clicks)
	assert.Equal(t, 1, snap.UniqueUsers)
	assert.Len(t, snap.ClickHistory, 1)
	assert.Equal(t, now.Add(time.Minute), snap.ExpiresAt)
}

func visitors(history []Click) []string {
	out := make([]string, len(history))
	for i, c := range history {
		out[i] = c.Visitor
	}
	return out
}
