package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

type HTTPHandler struct {
	service           ports.LinkService
	audit             ports.AuditLogger
	baseURL           string
	trustProxyHeaders bool
}

func NewHTTPHandler(service ports.LinkService, audit ports.AuditLogger, baseURL string, trustProxyHeaders bool) *HTTPHandler {
	return &HTTPHandler{
		service:           service,
		audit:             audit,
		baseURL:           strings.TrimRight(baseURL, "/"),
		trustProxyHeaders: trustProxyHeaders,
	}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	OriginalURL    string `json:"originalUrl" validate:"required,url"`
	CustomCode     string `json:"customCode,omitempty" validate:"omitempty,shortcode"`
	ValidityPeriod int    `json:"validityPeriod,omitempty" validate:"omitempty,gt=0,max=9223372036"`
}

type CreateLinkResponse struct {
	ShortURL string `json:"shortUrl"`
}

// FrontendLogRequest is relayed to the audit channel on the frontend stack.
type FrontendLogRequest struct {
	Level   string `json:"level" validate:"required"`
	Package string `json:"package" validate:"required"`
	Message string `json:"message"`
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := h.service.CreateShortLink(r.Context(), req.OriginalURL, req.CustomCode, req.ValidityPeriod)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateLinkResponse{ShortURL: h.baseURL + "/" + link.ShortCode})
}

// Redirect to original URL
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	originalURL, err := h.service.Redirect(r.Context(), code, h.visitor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

// Analytics for a short code. Expired but unvisited codes still report.
func (h *HTTPHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	analytics, err := h.service.Analytics(r.Context(), code)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.audit.Log("backend", "info", "route", "Health check OK"); err != nil {
		slog.Warn("audit entry rejected", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// FrontendLog relays a browser log line to the audit channel.
func (h *HTTPHandler) FrontendLog(w http.ResponseWriter, r *http.Request) {
	var req FrontendLogRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.audit.Log("frontend", req.Level, req.Package, req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged"})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": "))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Short URL not found")
	case errors.Is(err, domain.ErrExpired):
		writeError(w, http.StatusGone, "Short URL expired")
	case errors.Is(err, domain.ErrCodeTaken):
		writeError(w, http.StatusConflict, "Short code already in use")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// visitor identifies the caller for unique-user accounting.
func (h *HTTPHandler) visitor(r *http.Request) string {
	if h.trustProxyHeaders {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
