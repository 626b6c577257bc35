// Package handlers provides HTTP handlers for the mutspec API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

// maxBodyBytes bounds request bodies, including uploaded count files.
const maxBodyBytes = 64 << 20

// Handler serves requests against one reference loaded at startup.
type Handler struct {
	ref      *mutspec.Reference
	probes   *mutspec.ProbeMap
	defaults mutspec.Options
	logger   logrus.FieldLogger
}

// New returns a Handler. probes may be nil when the reference labels are
// not probe coordinates; defaults seeds the spectrum query parameters.
func New(ref *mutspec.Reference, probes *mutspec.ProbeMap, defaults mutspec.Options, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{ref: ref, probes: probes, defaults: defaults, logger: logger}
}

// Routes mounts every API endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/reference", h.Reference)

	r.Route("/sequence", func(r chi.Router) {
		r.Post("/reverse-complement", h.ReverseComplement)
	})

	r.Route("/kmer", func(r chi.Router) {
		r.Post("/extract", h.ExtractKMer)
		r.Post("/background", h.Background)
	})

	r.Post("/canonicalize", h.Canonicalize)
	r.Post("/substitution/complement", h.Complement)
	r.Post("/probe/remap", h.Remap)
	r.Post("/spectrum", h.Spectrum)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusOf maps lookup failures to 404 and everything else to 400.
func statusOf(err error) int {
	var unknownSeq *mutspec.UnknownSequenceError
	var unknownChrom *mutspec.UnknownChromosomeError
	if errors.As(err, &unknownSeq) || errors.As(err, &unknownChrom) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}
