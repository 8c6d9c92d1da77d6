package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

var _ ports.AuditLogger = (*Client)(nil)

type Config struct {
	AuthURL     string
	LogURL      string
	Credentials Credentials
	Timeout     time.Duration
	QueueSize   int
	TokenTTL    time.Duration
}

// Client ships entries to the remote log API from a single background
// worker. Entries that do not fit in the queue are dropped.
type Client struct {
	logURL  string
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics

	// mu orders Log's enqueue against Close: once closed is set under the
	// write lock, no further entry can reach the queue.
	mu     sync.RWMutex
	closed bool
	queue  chan Entry
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewClient(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Minute
	}

	base := &http.Client{Timeout: cfg.Timeout}
	tokens := newCachedTokenSource(base, cfg.AuthURL, cfg.Credentials, cfg.Timeout, cfg.TokenTTL, time.Now)

	c := &Client{
		logURL: cfg.LogURL,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: tokens, Base: http.DefaultTransport},
		},
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger.With("component", "auditlog"),
		metrics: m,
		queue:   make(chan Entry, cfg.QueueSize),
		done:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.run()

	return c
}

// Log validates the entry and queues it. It never blocks and never reports
// delivery problems.
func (c *Client) Log(stack, level, pkg, message string) error {
	entry, err := NewEntry(stack, level, pkg, message, c.now())
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.drop(entry, "client closed")
		return nil
	}

	select {
	case c.queue <- entry:
	default:
		c.drop(entry, "queue full")
	}
	return nil
}

// Close stops accepting entries and waits for the queue to drain or ctx to end.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit log drain: %w", ctx.Err())
	}
}

func (c *Client) run() {
	defer c.wg.Done()

	for {
		select {
		case entry := <-c.queue:
			c.deliver(entry)
		case <-c.done:
			for {
				select {
				case entry := <-c.queue:
					c.deliver(entry)
				default:
					return
				}
			}
		}
	}
}

func (c *Client) deliver(entry Entry) {
	if err := c.send(entry); err != nil {
		c.metrics.AuditEvents.WithLabelValues(metrics.AuditFailed).Inc()
		c.logger.Warn("audit log delivery failed",
			"package", entry.Package,
			"level", entry.Level,
			"error", err)
		return
	}
	c.metrics.AuditEvents.WithLabelValues(metrics.AuditSent).Inc()
}

func (c *Client) send(entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New("log API responded " + resp.Status)
	}
	return nil
}

func (c *Client) drop(entry Entry, reason string) {
	c.metrics.AuditEvents.WithLabelValues(metrics.AuditDropped).Inc()
	c.logger.Warn("audit log entry dropped", "reason", reason, "package", entry.Package, "message", entry.Message)
}
