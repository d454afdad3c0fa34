package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/glowteam/skinscan/internal/analyzer"
	"github.com/glowteam/skinscan/internal/constants"
	"github.com/glowteam/skinscan/internal/facefind"
	"github.com/glowteam/skinscan/internal/metrics"
)

// ScanHandler serves analysis, validation and history endpoints.
type ScanHandler struct {
	analyzer *analyzer.Analyzer
}

func NewScanHandler(a *analyzer.Analyzer) *ScanHandler {
	return &ScanHandler{analyzer: a}
}

// readImage extracts the uploaded image from a multipart request.
func readImage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, errors.New("invalid multipart form")
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, errors.New("missing image field")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxUploadSize+1))
	if err != nil {
		return nil, errors.New("failed to read image")
	}
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	if len(data) > constants.MaxUploadSize {
		return nil, errors.New("image too large")
	}
	return data, nil
}

// Analyze handles POST /api/v1/analyze: full pipeline on one frame.
func (h *ScanHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	data, err := readImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	subject := r.FormValue("subject")

	m, err := h.analyzer.Analyze(r.Context(), data, subject)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Validate handles POST /api/v1/validate: the frame quality gate.
// prev_x and prev_y carry the face center of the client's previous
// frame, for drift detection.
func (h *ScanHandler) Validate(w http.ResponseWriter, r *http.Request) {
	data, err := readImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var prev *facefind.Point
	if xs, ys := r.FormValue("prev_x"), r.FormValue("prev_y"); xs != "" && ys != "" {
		x, errX := strconv.Atoi(xs)
		y, errY := strconv.Atoi(ys)
		if errX != nil || errY != nil {
			respondError(w, http.StatusBadRequest, "invalid previous face center")
			return
		}
		prev = &facefind.Point{X: x, Y: y}
	}

	v, err := h.analyzer.Validate(data, prev)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// History handles GET /api/v1/subjects/{subject}/history.
func (h *ScanHandler) History(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	if subject == "" {
		respondError(w, http.StatusBadRequest, "missing subject")
		return
	}

	limit := constants.DefaultHistoryLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if n > constants.MaxHistoryLimit {
			n = constants.MaxHistoryLimit
		}
		limit = n
	}

	records, err := h.analyzer.History(r.Context(), subject, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if records == nil {
		records = []*metrics.SkinMetrics{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"subject": subject,
		"records": records,
		"count":   len(records),
	})
}
