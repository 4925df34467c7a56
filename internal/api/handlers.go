// Package api exposes a read-only HTTP view of the conversion ledger for
// monitoring long batch runs.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/holotome/htconv/internal/apperr"
	"github.com/holotome/htconv/internal/ledger"
)

// Handler holds API route handlers.
type Handler struct {
	db      *ledger.DB
	topRoot string // directory the documents live under
}

// NewHandler creates a new Handler.
func NewHandler(db *ledger.DB, topRoot string) *Handler {
	return &Handler{db: db, topRoot: topRoot}
}

// ConversionDTO is the wire form of one ledger record.
type ConversionDTO struct {
	Folder    string    `json:"folder"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDTO(records []ledger.Record) []ConversionDTO {
	out := make([]ConversionDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ConversionDTO{
			Folder:    r.Folder,
			Status:    r.Status,
			Error:     r.Error,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return out
}

// ListConversions handles GET /api/conversions.
func (h *Handler) ListConversions(w http.ResponseWriter, _ *http.Request) {
	records, err := h.db.List()
	if err != nil {
		slog.Error("list conversions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversions": toDTO(records),
		"total":       len(records),
	})
}

// ListFailures handles GET /api/conversions/failures.
func (h *Handler) ListFailures(w http.ResponseWriter, _ *http.Request) {
	records, err := h.db.Failures()
	if err != nil {
		slog.Error("list failures failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversions": toDTO(records),
		"total":       len(records),
	})
}

// GetDocument handles GET /api/conversions/document?folder=<name> and
// streams the written metadata document of one acquisition.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("folder")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("folder is required"))
		return
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid folder"))
		return
	}

	folder := filepath.Join(h.topRoot, cleaned)
	if _, err := h.db.Get(folder); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("ledger lookup failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	data, err := os.ReadFile(filepath.Join(folder, filepath.Base(folder)+".companion.ome"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("document not written"))
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
