package auditlog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	StackBackend  = "backend"
	StackFrontend = "frontend"
)

var (
	ErrInvalidStack   = errors.New("invalid stack")
	ErrInvalidLevel   = errors.New("invalid level")
	ErrInvalidPackage = errors.New("invalid package")
)

var (
	levels           = []string{"debug", "info", "warn", "error", "fatal"}
	backendPackages  = []string{"cache", "controller", "cron_job", "db", "domain", "handler", "repository", "route", "service"}
	frontendPackages = []string{"api", "component", "hook", "page", "state", "style"}
	sharedPackages   = []string{"auth", "config", "middleware", "utils"}
)

// Entry is the payload accepted by the remote log API.
type Entry struct {
	Stack     string `json:"stack"`
	Level     string `json:"level"`
	Package   string `json:"package"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewEntry validates stack, level and package against the audit API rules.
func NewEntry(stack, level, pkg, message string, at time.Time) (Entry, error) {
	level = strings.ToLower(level)

	var allowed []string
	switch stack {
	case StackBackend:
		allowed = backendPackages
	case StackFrontend:
		allowed = frontendPackages
	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidStack, stack)
	}
	if !slices.Contains(levels, level) {
		return Entry{}, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
	if !slices.Contains(allowed, pkg) && !slices.Contains(sharedPackages, pkg) {
		return Entry{}, fmt.Errorf("%w for %s: %q", ErrInvalidPackage, stack, pkg)
	}

	return Entry{
		Stack:     stack,
		Level:     level,
		Package:   pkg,
		Message:   message,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}, nil
}
