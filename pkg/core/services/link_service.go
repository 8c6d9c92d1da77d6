package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

var _ ports.LinkService = (*LinkService)(nil)

const auditStack = "backend"

// MaxValiditySeconds is the longest validity representable as a time.Duration.
const MaxValiditySeconds = math.MaxInt64 / int64(time.Second)

type LinkService struct {
	store           ports.LinkStore
	codes           *CodeGenerator
	audit           ports.AuditLogger
	metrics         *metrics.Metrics
	logger          *slog.Logger
	defaultValidity time.Duration
}

func NewLinkService(store ports.LinkStore, codes *CodeGenerator, audit ports.AuditLogger, m *metrics.Metrics, defaultValidity time.Duration) *LinkService {
	return &LinkService{
		store:           store,
		codes:           codes,
		audit:           audit,
		metrics:         m,
		logger:          slog.Default().With("component", "link_service"),
		defaultValidity: defaultValidity,
	}
}

// CreateShortLink stores originalURL under customCode, or a generated code
// when customCode is empty. validitySeconds of 0 means the default.
func (s *LinkService) CreateShortLink(ctx context.Context, originalURL, customCode string, validitySeconds int) (*domain.ShortLink, error) {
	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, fmt.Errorf("%w: originalUrl is required", domain.ErrValidation)
	}
	if !isAbsoluteURL(originalURL) {
		return nil, fmt.Errorf("%w: originalUrl must be an absolute URL", domain.ErrValidation)
	}
	if validitySeconds < 0 {
		return nil, fmt.Errorf("%w: validityPeriod must be positive", domain.ErrValidation)
	}
	if int64(validitySeconds) > MaxValiditySeconds {
		return nil, fmt.Errorf("%w: validityPeriod must be at most %d seconds", domain.ErrValidation, MaxValiditySeconds)
	}

	validity := s.defaultValidity
	if validitySeconds > 0 {
		validity = time.Duration(validitySeconds) * time.Second
	}

	code, err := s.codes.Generate(customCode)
	if err != nil {
		s.auditLog("error", "service", "Error generating short code: "+err.Error())
		return nil, fmt.Errorf("%w: generate short code: %v", domain.ErrInternal, err)
	}

	link, err := s.store.Create(ctx, code, originalURL, validity)
	if err != nil {
		if errors.Is(err, domain.ErrCodeTaken) {
			return nil, err
		}
		s.auditLog("error", "repository", "Error creating short URL: "+err.Error())
		return nil, fmt.Errorf("%w: store short link: %v", domain.ErrInternal, err)
	}

	s.metrics.LinksCreated.Inc()
	s.logger.Info("short link created", "short_code", code, "validity", validity, "custom", customCode != "")
	s.auditLog("info", "service", "Short URL created: "+code)

	return link, nil
}

// Redirect resolves shortCode for visitor, recording the click.
func (s *LinkService) Redirect(ctx context.Context, shortCode, visitor string) (string, error) {
	target, err := s.store.Resolve(ctx, shortCode, visitor)
	switch {
	case err == nil:
		s.metrics.Redirects.WithLabelValues(metrics.OutcomeFound).Inc()
		return target, nil
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.Redirects.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return "", err
	case errors.Is(err, domain.ErrExpired):
		s.metrics.Redirects.WithLabelValues(metrics.OutcomeExpired).Inc()
		s.logger.Info("expired short link evicted", "short_code", shortCode)
		s.auditLog("warn", "service", "Short URL expired: "+shortCode)
		return "", err
	default:
		s.metrics.Redirects.WithLabelValues(metrics.OutcomeError).Inc()
		return "", fmt.Errorf("%w: resolve: %v", domain.ErrInternal, err)
	}
}

// Analytics returns click statistics without enforcing expiry.
func (s *LinkService) Analytics(ctx context.Context, shortCode string) (*domain.Analytics, error) {
	analytics, err := s.store.GetAnalytics(ctx, shortCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.AnalyticsReads.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, err
		}
		s.metrics.AnalyticsReads.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: analytics: %v", domain.ErrInternal, err)
	}

	s.metrics.AnalyticsReads.WithLabelValues(metrics.OutcomeFound).Inc()
	return analytics, nil
}

func (s *LinkService) auditLog(level, pkg, message string) {
	if err := s.audit.Log(auditStack, level, pkg, message); err != nil {
		s.logger.Warn("audit entry rejected", "error", err)
	}
}

func isAbsoluteURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
