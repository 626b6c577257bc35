package handlers

import (
	"net/http"
	"strconv"

	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

// SpectrumResponse represents the spectrum of an uploaded count file.
type SpectrumResponse struct {
	K          int            `json:"k"`
	Notation   string         `json:"notation"`
	Total      int            `json:"total"`
	Unplaced   int            `json:"unplaced"`
	TypeTotals map[string]int `json:"type_totals"`
	Top        []mutspec.Cell `json:"top"`
	Cells      []mutspec.Cell `json:"cells"`
	Run        *mutspec.Run   `json:"run"`
}

// spectrumOptions overlays the query parameters of r on the defaults.
func (h *Handler) spectrumOptions(r *http.Request) (mutspec.Options, int, error) {
	opts := h.defaults
	opts.Logger = h.logger
	top := 10

	q := r.URL.Query()
	var err error
	if v := q.Get("format"); v != "" {
		if opts.Format, err = mutspec.ParseFormat(v); err != nil {
			return opts, 0, err
		}
	}
	if v := q.Get("notation"); v != "" {
		if opts.Notation, err = mutspec.ParseNotation(v); err != nil {
			return opts, 0, err
		}
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"kmer", &opts.K},
		{"min_depth", &opts.Filter.MinDepth},
		{"top", &top},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			if *p.dst, err = strconv.Atoi(v); err != nil {
				return opts, 0, err
			}
		}
	}
	floats := []struct {
		name string
		dst  *float64
	}{
		{"clonality_min", &opts.Filter.Clonality[0]},
		{"clonality_max", &opts.Filter.Clonality[1]},
	}
	for _, p := range floats {
		if v := q.Get(p.name); v != "" {
			if *p.dst, err = strconv.ParseFloat(v, 64); err != nil {
				return opts, 0, err
			}
		}
	}
	return opts, top, nil
}

// Spectrum handles spectrum requests. The body is per-position count text.
func (h *Handler) Spectrum(w http.ResponseWriter, r *http.Request) {
	opts, top, err := h.spectrumOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec, run, err := mutspec.ScanSpectrum(http.MaxBytesReader(w, r.Body, maxBodyBytes), h.ref, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	totals := make(map[string]int)
	for sub, n := range spec.TypeTotals() {
		totals[sub.String()] = n
	}
	writeJSON(w, http.StatusOK, SpectrumResponse{
		K:          spec.K(),
		Notation:   spec.Notation().String(),
		Total:      spec.Total(),
		Unplaced:   spec.Unplaced(),
		TypeTotals: totals,
		Top:        spec.MostFrequent(top),
		Cells:      spec.Cells(),
		Run:        run,
	})
}
