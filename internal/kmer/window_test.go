package kmer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
)

func testIndex(t *testing.T) *reference.Index {
	t.Helper()
	idx, err := reference.FromSequences(
		sequence.New("chr1", "", "NNNACGTNNN"),
		sequence.New("chr2", "", "aaCcgGTt"),
	)
	require.NoError(t, err)
	return idx
}

func TestExtract(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name     string
		id       string
		position int
		k        int
		center   Center
		want     string
		wantOK   bool
	}{
		{"center C", "chr1", 4, 3, Mid, "ACG", true},
		{"left edge", "chr1", 0, 3, Mid, "", false},
		{"right edge", "chr1", 9, 3, Mid, "", false},
		{"last full window", "chr1", 8, 3, Mid, "NNN", true},
		{"pentamer", "chr1", 5, 5, Mid, "ACGTN", true},
		{"single base", "chr1", 3, 1, Mid, "A", true},
		{"offset zero", "chr1", 3, 4, Offset(0), "ACGT", true},
		{"offset last", "chr1", 6, 4, Offset(3), "ACGT", true},
		{"case preserved", "chr2", 3, 3, Mid, "Ccg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Extract(idx, tt.id, tt.position, tt.k, tt.center)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractInvalidWindow(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name   string
		k      int
		center Center
	}{
		{"even midpoint", 4, Mid},
		{"zero length", 0, Mid},
		{"offset past end", 3, Offset(3)},
		{"negative offset", 3, Offset(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Extract(idx, "chr1", 4, tt.k, tt.center)
			require.Error(t, err)
			assert.IsType(t, &InvalidWindowError{}, err)
		})
	}
}

func TestExtractUnknownSequence(t *testing.T) {
	idx := testIndex(t)

	_, _, err := Extract(idx, "chrX", 4, 3, Mid)
	require.Error(t, err)
	assert.IsType(t, &reference.UnknownSequenceError{}, err)
}

func TestExtractLengthProperty(t *testing.T) {
	bases := "ACGTACGTTGCANNACGTAGCTAGCTAGGATC"
	idx, err := reference.FromSequences(sequence.New("s", "", bases))
	require.NoError(t, err)

	for k := 1; k <= 11; k += 2 {
		half := (k - 1) / 2
		for pos := -2; pos < len(bases)+2; pos++ {
			got, ok, err := Extract(idx, "s", pos, k, Mid)
			require.NoError(t, err)

			inRange := pos-half >= 0 && pos+half < len(bases)
			assert.Equal(t, inRange, ok, "k=%d pos=%d", k, pos)
			if ok {
				assert.Len(t, got, k)
				assert.Equal(t, bases[pos], got[half])
			}
		}
	}
}

func TestWindowLength(t *testing.T) {
	k, err := WindowLength(1)
	require.NoError(t, err)
	assert.Equal(t, 3, k)

	k, err = WindowLength(7)
	require.NoError(t, err)
	assert.Equal(t, 15, k)

	_, err = WindowLength(-1)
	require.Error(t, err)
}
