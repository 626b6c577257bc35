package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

const probeFASTA = `>chr2:100-110
AACCGGTTAC
>chr1:1000-1010
GGGCAGGGGG
`

func testServer(t *testing.T, withProbes bool) http.Handler {
	t.Helper()
	ref, err := reference.Parse(strings.NewReader(probeFASTA))
	require.NoError(t, err)

	var probes *mutspec.ProbeMap
	if withProbes {
		probes, err = mutspec.LoadProbes(ref)
		require.NoError(t, err)
	}

	h := New(ref, probes, mutspec.DefaultOptions(), nil)
	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestReference(t *testing.T) {
	srv := testServer(t, true)
	rec := do(t, srv, http.MethodGet, "/api/reference", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReferenceResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, []string{"chr2:100-110", "chr1:1000-1010"}, resp.IDs)
	assert.True(t, resp.Probes)
	assert.Equal(t, 2, resp.Stats.Count)
	assert.Equal(t, 20, resp.Stats.TotalBases)
}

func TestReverseComplement(t *testing.T) {
	srv := testServer(t, false)

	rec := do(t, srv, http.MethodPost, "/api/sequence/reverse-complement", `{"sequence": "acgn"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReverseComplementResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "NCGT", resp.ReverseComplement)

	rec = do(t, srv, http.MethodPost, "/api/sequence/reverse-complement", `{"sequence": "ACGX"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var e ErrorResponse
	decodeBody(t, rec, &e)
	assert.Contains(t, e.Error, "position 3")
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/sequence/reverse-complement", `{`).Code)
}

func TestExtractKMer(t *testing.T) {
	srv := testServer(t, false)

	tests := []struct {
		name       string
		body       string
		status     int
		context    string
		outOfRange bool
	}{
		{"centered", `{"seq_id": "chr2:100-110", "position": 3, "k": 3}`, http.StatusOK, "CCG", false},
		{"wider", `{"seq_id": "chr2:100-110", "position": 3, "k": 5}`, http.StatusOK, "ACCGG", false},
		{"fixed offset", `{"seq_id": "chr2:100-110", "position": 3, "k": 2, "offset": 0}`, http.StatusOK, "CG", false},
		{"left edge", `{"seq_id": "chr2:100-110", "position": 0, "k": 3}`, http.StatusOK, "", true},
		{"right edge", `{"seq_id": "chr2:100-110", "position": 9, "k": 3}`, http.StatusOK, "", true},
		{"unknown sequence", `{"seq_id": "chr7", "position": 3, "k": 3}`, http.StatusNotFound, "", false},
		{"even k centered", `{"seq_id": "chr2:100-110", "position": 3, "k": 2}`, http.StatusBadRequest, "", false},
		{"offset outside window", `{"seq_id": "chr2:100-110", "position": 3, "k": 3, "offset": 3}`, http.StatusBadRequest, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/kmer/extract", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				var e ErrorResponse
				decodeBody(t, rec, &e)
				assert.NotEmpty(t, e.Error)
				return
			}
			var resp ExtractResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.context, resp.Context)
			assert.Equal(t, tt.outOfRange, resp.OutOfRange)
		})
	}
}

func TestBackground(t *testing.T) {
	srv := testServer(t, false)

	rec := do(t, srv, http.MethodPost, "/api/kmer/background", `{"k": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp KMerCountResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 16, resp.TotalCount)
	assert.Equal(t, "pyrimidine", resp.Notation)
	for kmer := range resp.Counts {
		assert.Contains(t, "CT", string(kmer[1]), kmer)
	}

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/kmer/background", `{"k": 4}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/kmer/background", `{"k": 11}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/kmer/background", `{"k": 3, "notation": "both"}`).Code)
}

func TestCanonicalize(t *testing.T) {
	srv := testServer(t, false)

	rec := do(t, srv, http.MethodPost, "/api/canonicalize",
		`{"ref": "g", "context": "cgg", "counts": {"A": 4, "C": 1}, "notation": "pyrimidine"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp CanonicalizeResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, CanonicalizeResponse{
		Ref:     "C",
		Context: "CCG",
		Counts:  BaseCounts{T: 4, G: 1},
		Flipped: true,
	}, resp)

	rec = do(t, srv, http.MethodPost, "/api/canonicalize", `{"ref": "C", "context": "ACG", "counts": {"T": 2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Flipped)
	assert.Equal(t, "ACG", resp.Context)

	for _, body := range []string{
		`{"ref": "GA", "context": "CGG"}`,
		`{"ref": "G", "context": "CRG"}`,
		`{"ref": "G", "context": "CGG", "notation": "both"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/canonicalize", body).Code, body)
	}
}

func TestComplement(t *testing.T) {
	srv := testServer(t, false)

	rec := do(t, srv, http.MethodPost, "/api/substitution/complement", `{"type": "c>t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ComplementResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, ComplementResponse{Type: "C>T", Complement: "G>A", Class: "pyrimidine", Color: "#E62223"}, resp)

	rec = do(t, srv, http.MethodPost, "/api/substitution/complement", `{"type": "A>C"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, "T>G", resp.Complement)
	assert.Equal(t, "purine", resp.Class)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/substitution/complement", `{"type": "C>C"}`).Code)
}

func TestRemap(t *testing.T) {
	srv := testServer(t, true)

	rec := do(t, srv, http.MethodPost, "/api/probe/remap", `{"chrom": "chr2", "position": 103}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RemapResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, RemapResponse{Probe: "chr2:100-110", Offset: 3}, resp)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/probe/remap", `{"chrom": "chr9", "position": 1}`).Code)

	noProbes := testServer(t, false)
	assert.Equal(t, http.StatusNotFound, do(t, noProbes, http.MethodPost, "/api/probe/remap", `{"chrom": "chr2", "position": 103}`).Code)
}

func TestSpectrum(t *testing.T) {
	srv := testServer(t, false)
	body := "chr2:100-110\tC\t4\t100\t0\t0\t0\t3\n" +
		"chr2:100-110\tG\t5\t100\t2\t0\t0\t0\n"

	rec := do(t, srv, http.MethodPost, "/api/spectrum", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SpectrumResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, 3, resp.K)
	assert.Equal(t, "pyrimidine", resp.Notation)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 5, resp.TypeTotals["C>T"])
	assert.Len(t, resp.Cells, 96)
	require.Len(t, resp.Top, 1)
	assert.Equal(t, "CCG", resp.Top[0].Context)
	assert.Equal(t, 5, resp.Top[0].Count)
	assert.Equal(t, 5, resp.Run.Emitted)
}

func TestSpectrumQuery(t *testing.T) {
	srv := testServer(t, false)
	body := "chr2:100-110\tC\t4\t100\t0\t0\t0\t3\n"

	rec := do(t, srv, http.MethodPost, "/api/spectrum?min_depth=200", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SpectrumResponse
	decodeBody(t, rec, &resp)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Top)
	assert.Equal(t, 1, resp.Run.Skipped["low_depth"])

	rec = do(t, srv, http.MethodPost, "/api/spectrum?notation=purine&kmer=5&clonality_max=0.5", body)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 5, resp.K)
	assert.Equal(t, "purine", resp.Notation)
	assert.Equal(t, 3, resp.TypeTotals["G>A"])

	for _, q := range []string{"format=vcf", "notation=both", "kmer=4", "kmer=x", "clonality_min=low"} {
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/spectrum?"+q, body).Code, q)
	}
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/spectrum", "chr2:100-110\tC\n").Code)
}
