// Package httpx is the HTTP edge: upload handling, error mapping, and the
// operational endpoints. It owns presentation concerns (status codes, the
// upload size cap); the pipeline owns semantics.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/manojkp08/adpulse/internal/analytics"
	"github.com/manojkp08/adpulse/internal/ingest"
	"github.com/manojkp08/adpulse/internal/metrics"
	"github.com/manojkp08/adpulse/internal/models"
	"github.com/manojkp08/adpulse/internal/pipeline"
	"github.com/manojkp08/adpulse/internal/report"
	"github.com/manojkp08/adpulse/internal/store"
)

type router struct {
	pl        *pipeline.Pipeline
	st        *store.RunStore
	log       *slog.Logger
	maxUpload int64
}

func NewRouter(log *slog.Logger, pl *pipeline.Pipeline, st *store.RunStore, met *metrics.Metrics, maxUpload int64) http.Handler {
	rt := &router{pl: pl, st: st, log: log, maxUpload: maxUpload}

	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(requestLogger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Method(http.MethodGet, "/metrics", met.Handler())

	mux.Post("/reports", rt.createReport)
	mux.Post("/analyze", rt.analyze)
	mux.Get("/runs", rt.listRuns)
	mux.Get("/runs/{id}", rt.getRun)

	return mux
}

// createReport runs the full pipeline over the uploaded CSV. JSON clients
// get the stats plus narrative; everyone else gets the PDF download. A
// failed narrative never fails the request.
func (rt *router) createReport(w http.ResponseWriter, r *http.Request) {
	tbl, ok := rt.decodeUpload(w, r)
	if !ok {
		return
	}
	res, err := rt.pl.Run(r.Context(), tbl)
	if err != nil {
		rt.writeError(w, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}

	pdf, err := report.PDF(res.Stats, res.Narrative)
	if err != nil {
		rt.log.Error("pdf render failed", slog.String("err", err.Error()))
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}

// analyze returns numeric stats only, skipping the narrative collaborator.
func (rt *router) analyze(w http.ResponseWriter, r *http.Request) {
	tbl, ok := rt.decodeUpload(w, r)
	if !ok {
		return
	}
	res, err := rt.pl.Analyze(r.Context(), tbl)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *router) listRuns(w http.ResponseWriter, r *http.Request) {
	n := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, rt.st.Recent(n))
}

func (rt *router) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := rt.st.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// decodeUpload accepts either a multipart form with a "file" field or a raw
// CSV body, bounded by the configured upload cap. On failure it writes the
// response itself and returns ok=false.
func (rt *router) decodeUpload(w http.ResponseWriter, r *http.Request) (*models.Table, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUpload)

	src := r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' required"})
			return nil, false
		}
		defer file.Close()
		src = file
	}

	tbl, err := ingest.DecodeCSV(src)
	if err != nil {
		rt.writeError(w, err)
		return nil, false
	}
	return tbl, true
}

// writeError maps pipeline errors to status codes: schema and content
// problems are the caller's (422), everything else is a server fault.
func (rt *router) writeError(w http.ResponseWriter, err error) {
	var mc *analytics.MissingColumnsError
	status := http.StatusUnprocessableEntity
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &mc), errors.Is(err, analytics.ErrEmptyTable), errors.Is(err, ingest.ErrProcessing):
	case errors.As(err, &maxErr):
		status = http.StatusRequestEntityTooLarge
	default:
		rt.log.Error("pipeline error", slog.String("err", err.Error()))
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
