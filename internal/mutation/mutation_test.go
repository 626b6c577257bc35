package mutation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotation(t *testing.T) {
	n, err := ParseNotation("pyrimidine")
	require.NoError(t, err)
	assert.Equal(t, Pyrimidine, n)

	n, err = ParseNotation(" Purine ")
	require.NoError(t, err)
	assert.Equal(t, Purine, n)

	_, err = ParseNotation("both")
	require.Error(t, err)
	assert.IsType(t, &UnknownNotationError{}, err)
}

func TestParseSubstitution(t *testing.T) {
	tests := []struct {
		in      string
		want    Substitution
		wantErr bool
	}{
		{"C>T", Substitution{'C', 'T'}, false},
		{"g>a", Substitution{'G', 'A'}, false},
		{"C>C", Substitution{}, true},
		{"CT", Substitution{}, true},
		{"N>A", Substitution{}, true},
		{"", Substitution{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSubstitution(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, &InvalidSubstitutionError{}, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplementPairing(t *testing.T) {
	want := map[string]string{
		"C>A": "G>T", "C>G": "G>C", "C>T": "G>A",
		"T>A": "A>T", "T>C": "A>G", "T>G": "A>C",
	}

	for _, py := range PyrimidineTypes {
		pu, ok := py.Complement()
		require.True(t, ok)
		assert.Equal(t, want[py.String()], pu.String())

		class, ok := pu.Class()
		require.True(t, ok)
		assert.Equal(t, Purine, class)

		back, ok := pu.Complement()
		require.True(t, ok)
		assert.Equal(t, py, back)
		assert.Equal(t, py.Color(), pu.Color())
	}
}

func TestComplementMatchesFlipRule(t *testing.T) {
	for _, s := range All() {
		class, _ := s.Class()
		// A type needs flipping into the other notation, never its own.
		assert.False(t, NeedsFlip(s.Ref, class), s.String())

		other := Purine
		if class == Purine {
			other = Pyrimidine
		}
		assert.True(t, NeedsFlip(s.Ref, other), s.String())
	}
}

func TestAllTypes(t *testing.T) {
	all := All()
	assert.Len(t, all, 12)

	seen := map[Substitution]bool{}
	for _, s := range all {
		assert.NotEqual(t, s.Ref, s.Alt)
		seen[s] = true
	}
	assert.Len(t, seen, 12)
	assert.Equal(t, PurineTypes[:], Types(Purine))
	assert.Equal(t, PyrimidineTypes[:], Types(Pyrimidine))
}

func TestNeedsFlip(t *testing.T) {
	tests := []struct {
		ref      byte
		notation Notation
		want     bool
	}{
		{'G', Pyrimidine, true},
		{'A', Pyrimidine, true},
		{'C', Pyrimidine, false},
		{'T', Pyrimidine, false},
		{'C', Purine, true},
		{'T', Purine, true},
		{'G', Purine, false},
		{'A', Purine, false},
		{'N', Pyrimidine, false},
		{'N', Purine, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref)+"/"+tt.notation.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsFlip(tt.ref, tt.notation))
		})
	}
}

func TestCountsSwap(t *testing.T) {
	c := Counts{1, 2, 3, 4}
	s := c.Swap()
	assert.Equal(t, 4, s.Get('A'))
	assert.Equal(t, 3, s.Get('C'))
	assert.Equal(t, 2, s.Get('G'))
	assert.Equal(t, 1, s.Get('T'))
	assert.Equal(t, c, s.Swap())
}

func TestCountsSwapPreservesTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 100; i++ {
		c := Counts{rng.Intn(1000), rng.Intn(1000), rng.Intn(1000), rng.Intn(1000)}
		assert.Equal(t, c.Total(), c.Swap().Total())
	}
}

func TestCountsSet(t *testing.T) {
	var c Counts
	assert.True(t, c.Set('G', 5))
	assert.False(t, c.Set('N', 5))
	assert.Equal(t, Counts{0, 0, 5, 0}, c)
	assert.Equal(t, 0, c.Get('N'))
}

func TestCanonicalize(t *testing.T) {
	got, err := Canonicalize('G', "AGT", Counts{10, 0, 0, 2}, Pyrimidine)
	require.NoError(t, err)
	assert.True(t, got.Flipped)
	assert.Equal(t, byte('C'), got.Ref)
	assert.Equal(t, "ACT", got.Context)
	assert.Equal(t, Counts{2, 0, 0, 10}, got.Counts)

	got, err = Canonicalize('C', "ACG", Counts{0, 0, 0, 3}, Pyrimidine)
	require.NoError(t, err)
	assert.False(t, got.Flipped)
	assert.Equal(t, "ACG", got.Context)
	assert.Equal(t, Counts{0, 0, 0, 3}, got.Counts)
}

func TestCanonicalizeRejectsUnknownBase(t *testing.T) {
	_, err := Canonicalize('A', "RAY", Counts{}, Pyrimidine)
	require.Error(t, err)
}

func TestRecordConsistent(t *testing.T) {
	r := Record{Ref: 'C', Alt: 'T', Context: "ACG"}
	assert.True(t, r.Consistent())
	assert.Equal(t, Substitution{'C', 'T'}, r.Substitution())

	r.Context = "AGG"
	assert.False(t, r.Consistent())
}
