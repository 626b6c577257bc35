package handlers

import (
	"net/http"

	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

// ExtractRequest represents a k-mer window request. Offset is optional;
// without it the window is centered on Position.
type ExtractRequest struct {
	SeqID    string `json:"seq_id"`
	Position int    `json:"position"`
	K        int    `json:"k"`
	Offset   *int   `json:"offset,omitempty"`
}

// ExtractResponse represents the response for a k-mer window.
type ExtractResponse struct {
	SeqID      string `json:"seq_id"`
	Position   int    `json:"position"`
	K          int    `json:"k"`
	Context    string `json:"context"`
	OutOfRange bool   `json:"out_of_range"`
}

// ExtractKMer handles k-mer window requests.
func (h *Handler) ExtractKMer(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		window string
		ok     bool
		err    error
	)
	if req.Offset != nil {
		window, ok, err = mutspec.ExtractKMerAt(h.ref, req.SeqID, req.Position, req.K, *req.Offset)
	} else {
		window, ok, err = mutspec.ExtractKMer(h.ref, req.SeqID, req.Position, req.K)
	}
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		SeqID:      req.SeqID,
		Position:   req.Position,
		K:          req.K,
		Context:    window,
		OutOfRange: !ok,
	})
}

// BackgroundRequest represents a reference background request.
type BackgroundRequest struct {
	K        int    `json:"k"`
	Notation string `json:"notation"`
}

// KMerCountResponse represents the response for k-mer counting.
type KMerCountResponse struct {
	K           int            `json:"k"`
	Notation    string         `json:"notation"`
	UniqueCount int            `json:"unique_count"`
	TotalCount  int            `json:"total_count"`
	Counts      map[string]int `json:"counts"`
}

// Background handles reference k-mer background requests.
func (h *Handler) Background(w http.ResponseWriter, r *http.Request) {
	var req BackgroundRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Notation == "" {
		req.Notation = h.defaults.Notation.String()
	}

	n, err := mutspec.ParseNotation(req.Notation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	counter, err := mutspec.Background(h.ref, req.K, n)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, KMerCountResponse{
		K:           counter.K,
		Notation:    n.String(),
		UniqueCount: counter.UniqueCount(),
		TotalCount:  counter.Total,
		Counts:      counter.Counts,
	})
}
