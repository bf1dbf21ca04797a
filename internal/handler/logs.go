package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/logvault-io/logvault/internal/ingest"
	"github.com/logvault-io/logvault/internal/model"
	"github.com/logvault-io/logvault/internal/response"
	"github.com/logvault-io/logvault/internal/storage"
)

// LogHandler serves the ingest and recent-read endpoints. It translates the
// error taxonomy to HTTP: validation defects are 400 naming the field, storage
// failures are 503 when retryable and 500 otherwise.
type LogHandler struct {
	Normalizer *ingest.Normalizer
	Gateway    *storage.Gateway
	ReadLimit  int32
}

// Ingest handles POST /logs: decode, normalize, append.
func (h *LogHandler) Ingest(c echo.Context) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return response.BadRequest(c, "invalid request", "request body must be valid JSON")
	}

	entry, err := h.Normalizer.Normalize(raw)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			return response.BadRequest(c, "validation failed: "+verr.Field, verr.Error())
		}
		return response.BadRequest(c, "validation failed", err.Error())
	}

	if err := h.Gateway.Append(c.Request().Context(), entry); err != nil {
		return storageFailure(c, err, "could not persist log entry")
	}
	return response.Created(c, entry, "log entry created")
}

// Recent handles GET /logs/recent: bounded newest-first read.
func (h *LogHandler) Recent(c echo.Context) error {
	res, err := h.Gateway.QueryRecent(c.Request().Context(), h.ReadLimit)
	if err != nil {
		return storageFailure(c, err, "could not read recent log entries")
	}
	logs := res.Entries
	if logs == nil {
		logs = []model.Entry{}
	}
	return response.OK(c, map[string]any{
		"count":   len(logs),
		"logs":    logs,
		"skipped": res.Skipped,
	}, "")
}

func storageFailure(c echo.Context, err error, message string) error {
	var serr *storage.StorageError
	if errors.As(err, &serr) && serr.Retryable() {
		return response.ServiceUnavailable(c, message, string(serr.Cause))
	}
	return response.InternalError(c, message, err.Error())
}
