package handlers

import (
	"net/http"
	"strings"

	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

// BaseCounts is the JSON form of per-base mutant counts.
type BaseCounts struct {
	A int `json:"A"`
	C int `json:"C"`
	G int `json:"G"`
	T int `json:"T"`
}

func (b BaseCounts) counts() mutspec.Counts {
	return mutspec.Counts{b.A, b.C, b.G, b.T}
}

func baseCounts(c mutspec.Counts) BaseCounts {
	return BaseCounts{A: c[0], C: c[1], G: c[2], T: c[3]}
}

// CanonicalizeRequest represents an observation to canonicalize.
type CanonicalizeRequest struct {
	Ref      string     `json:"ref"`
	Context  string     `json:"context"`
	Counts   BaseCounts `json:"counts"`
	Notation string     `json:"notation"`
}

// CanonicalizeResponse represents the observation in the requested frame.
type CanonicalizeResponse struct {
	Ref     string     `json:"ref"`
	Context string     `json:"context"`
	Counts  BaseCounts `json:"counts"`
	Flipped bool       `json:"flipped"`
}

// Canonicalize handles strand canonicalization requests.
func (h *Handler) Canonicalize(w http.ResponseWriter, r *http.Request) {
	var req CanonicalizeRequest
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
	ref := strings.ToUpper(req.Ref)
	if len(ref) != 1 {
		writeError(w, http.StatusBadRequest, "ref must be a single base")
		return
	}

	c, err := mutspec.Canonicalize(ref[0], strings.ToUpper(req.Context), req.Counts.counts(), n)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CanonicalizeResponse{
		Ref:     string(c.Ref),
		Context: c.Context,
		Counts:  baseCounts(c.Counts),
		Flipped: c.Flipped,
	})
}

// ComplementRequest names a substitution type.
type ComplementRequest struct {
	Type string `json:"type"`
}

// ComplementResponse pairs a substitution type with its strand complement.
type ComplementResponse struct {
	Type       string `json:"type"`
	Complement string `json:"complement"`
	Class      string `json:"class"`
	Color      string `json:"color"`
}

// Complement handles substitution pairing requests.
func (h *Handler) Complement(w http.ResponseWriter, r *http.Request) {
	var req ComplementRequest
	if !decode(w, r, &req) {
		return
	}

	sub, err := mutspec.ParseSubstitution(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comp, _ := sub.Complement()
	class, _ := sub.Class()

	writeJSON(w, http.StatusOK, ComplementResponse{
		Type:       sub.String(),
		Complement: comp.String(),
		Class:      class.String(),
		Color:      sub.Color(),
	})
}

// RemapRequest represents an absolute chromosome coordinate.
type RemapRequest struct {
	Chrom    string `json:"chrom"`
	Position int    `json:"position"`
}

// RemapResponse represents a probe-local coordinate.
type RemapResponse struct {
	Probe  string `json:"probe"`
	Offset int    `json:"offset"`
}

// Remap handles probe coordinate remapping requests.
func (h *Handler) Remap(w http.ResponseWriter, r *http.Request) {
	if h.probes == nil {
		writeError(w, http.StatusNotFound, "reference is not a probe reference")
		return
	}
	var req RemapRequest
	if !decode(w, r, &req) {
		return
	}

	id, offset, err := h.probes.Remap(req.Chrom, req.Position)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RemapResponse{Probe: id, Offset: offset})
}
