package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/invalder/OpenDGAi/internal/domain"
	"github.com/invalder/OpenDGAi/internal/service"
)

const (
	userHeader      = "X-User-ID"
	maxRequestBytes = 32 << 20
)

var errEmptyBody = errors.New("request body is required")

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger   *slog.Logger
	datasets *service.DatasetService
	scans    *service.ScanService
	catalog  *service.CatalogService
}

// NewAPIHandlers constructs an APIHandlers instance. A nil catalog service
// makes the /catalog routes answer 503.
func NewAPIHandlers(logger *slog.Logger, datasets *service.DatasetService, scans *service.ScanService, catalog *service.CatalogService) *APIHandlers {
	return &APIHandlers{
		logger:   logger.With("component", "api"),
		datasets: datasets,
		scans:    scans,
		catalog:  catalog,
	}
}

// writeServiceError maps service errors onto HTTP statuses.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCatalogUnavailable):
		h.logger.Warn(msg, append(attrs, "error", err)...)
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(msg, append(attrs, "error", err)...)
		writeError(w, http.StatusGatewayTimeout, msg)
	default:
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// decodeJSON reads a single JSON document into dst. Numbers are kept as
// json.Number so long numeric IDs survive intact.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func parseTimePtr(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q", value)
	}
	t = t.UTC()
	return &t, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func requester(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userHeader))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
