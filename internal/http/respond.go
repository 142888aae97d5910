package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"treasury/internal/core"
	"treasury/internal/log"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain error kinds to HTTP statuses. Unrecognized errors
// become opaque 500s so storage details never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var v *core.ValidationError
	if errors.As(err, &v) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: v.Fields})
		return
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateName),
		errors.Is(err, core.ErrDuplicateYear),
		errors.Is(err, core.ErrDuplicateSnapshotDate),
		errors.Is(err, core.ErrHasDependentExpenses),
		errors.Is(err, core.ErrHasDependentSubcategories),
		errors.Is(err, core.ErrHasLedgerActivity):
		return http.StatusConflict
	case errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrCategoryInactive),
		errors.Is(err, core.ErrSubcategoryMismatch),
		errors.Is(err, core.ErrEventNotFound),
		errors.Is(err, core.ErrUnknownEntity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidMode),
		errors.Is(err, core.ErrInvalidWindow),
		errors.Is(err, core.ErrInvalidSource),
		errors.Is(err, core.ErrInvalidDimension),
		errors.Is(err, core.ErrYearOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// badRequest reports a request parsing problem the error mapper has no
// sentinel for.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
