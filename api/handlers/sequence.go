package handlers

import (
	"net/http"
	"strings"

	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

// SequenceRequest represents a request with a sequence.
type SequenceRequest struct {
	Sequence string `json:"sequence"`
}

// ReverseComplementResponse represents the response for reverse complement.
type ReverseComplementResponse struct {
	ReverseComplement string `json:"reverse_complement"`
}

// ReverseComplement handles reverse complement requests.
func (h *Handler) ReverseComplement(w http.ResponseWriter, r *http.Request) {
	var req SequenceRequest
	if !decode(w, r, &req) {
		return
	}

	bases := strings.ToUpper(req.Sequence)
	if err := mutspec.ValidateSequence(bases); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rc, err := mutspec.ReverseComplement(bases)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReverseComplementResponse{ReverseComplement: rc})
}

// ReferenceResponse describes the loaded reference.
type ReferenceResponse struct {
	IDs    []string                `json:"ids"`
	Probes bool                    `json:"probes"`
	Stats  *mutspec.ReferenceStats `json:"stats"`
}

// Reference handles reference description requests.
func (h *Handler) Reference(w http.ResponseWriter, r *http.Request) {
	s, err := mutspec.DescribeReference(h.ref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReferenceResponse{
		IDs:    h.ref.IDs(),
		Probes: h.probes != nil,
		Stats:  s,
	})
}
