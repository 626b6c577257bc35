// Package spectrum aggregates mutation records into a mutational spectrum:
// counts over (substitution type, sequence context) cells.
package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ahmetb/go-linq"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/sequence"
)

// MaxK bounds the context length; the cell table grows as 6*4^(k-1).
const MaxK = 9

// Cell is one (type, context) entry of a spectrum.
type Cell struct {
	Type       string  `json:"type"`
	Context    string  `json:"context"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// Spectrum counts records over every canonical substitution type and every
// context of length k centered on the type's reference base.
type Spectrum struct {
	k        int
	notation mutation.Notation
	types    []mutation.Substitution
	cells    map[mutation.Substitution]map[string]int
	total    int
	unplaced int
}

// New returns an empty spectrum with every cell present at zero.
func New(k int, n mutation.Notation) (*Spectrum, error) {
	if _, err := kmer.Mid.Resolve(k); err != nil {
		return nil, err
	}
	if k > MaxK {
		return nil, &kmer.InvalidWindowError{K: k, Center: kmer.Mid, Reason: fmt.Sprintf("spectrum k must be at most %d", MaxK)}
	}

	s := &Spectrum{
		k:        k,
		notation: n,
		types:    mutation.Types(n),
		cells:    make(map[mutation.Substitution]map[string]int, 6),
	}

	flank := (k - 1) / 2
	var flanks []string
	permute(mutation.Bases, "", k-1, &flanks)
	for _, t := range s.types {
		m := make(map[string]int, len(flanks))
		for _, f := range flanks {
			m[f[:flank]+string(t.Ref)+f[flank:]] = 0
		}
		s.cells[t] = m
	}
	return s, nil
}

// permute appends every string of length k over the letters of b to ans.
func permute(b string, s string, k int, ans *[]string) {
	if k == 0 {
		*ans = append(*ans, s)
		return
	}
	for i := 0; i < len(b); i++ {
		permute(b, s+string(b[i]), k-1, ans)
	}
}

// K returns the context length.
func (s *Spectrum) K() int { return s.k }

// Notation returns the canonical frame of the spectrum.
func (s *Spectrum) Notation() mutation.Notation { return s.notation }

// Add counts rec. Records of the complementary class are folded onto their
// canonical type with the context reverse complemented. Records that land
// on no cell are counted as unplaced and Add returns false.
func (s *Spectrum) Add(rec mutation.Record) bool {
	sub := rec.Substitution()
	ctx := strings.ToUpper(rec.Context)

	if class, ok := sub.Class(); ok && class != s.notation {
		sub, _ = sub.Complement()
		rc, err := sequence.ReverseComplement(ctx)
		if err != nil {
			s.unplaced++
			return false
		}
		ctx = rc
	}

	m, ok := s.cells[sub]
	if !ok {
		s.unplaced++
		return false
	}
	if _, ok := m[ctx]; !ok {
		s.unplaced++
		return false
	}
	m[ctx]++
	s.total++
	return true
}

// AddAll counts every record and returns how many were placed.
func (s *Spectrum) AddAll(recs []mutation.Record) int {
	placed := 0
	for _, r := range recs {
		if s.Add(r) {
			placed++
		}
	}
	return placed
}

// Merge adds the counts of other, which must share k and notation.
func (s *Spectrum) Merge(other *Spectrum) error {
	if other.k != s.k || other.notation != s.notation {
		return fmt.Errorf("cannot merge %d-mer %s spectrum into %d-mer %s spectrum",
			other.k, other.notation, s.k, s.notation)
	}
	for t, m := range other.cells {
		for ctx, n := range m {
			s.cells[t][ctx] += n
		}
	}
	s.total += other.total
	s.unplaced += other.unplaced
	return nil
}

// Count returns the count of one cell, or 0 for a cell outside the spectrum.
func (s *Spectrum) Count(sub mutation.Substitution, context string) int {
	return s.cells[sub][strings.ToUpper(context)]
}

// Total returns the number of placed records.
func (s *Spectrum) Total() int { return s.total }

// Unplaced returns the number of records Add could not place.
func (s *Spectrum) Unplaced() int { return s.unplaced }

// TypeTotals sums the cells of each substitution type.
func (s *Spectrum) TypeTotals() map[mutation.Substitution]int {
	out := make(map[mutation.Substitution]int, len(s.types))
	for _, t := range s.types {
		sum := 0
		for _, n := range s.cells[t] {
			sum += n
		}
		out[t] = sum
	}
	return out
}

// Proportions returns each cell's share of the placed records. All
// proportions are zero for an empty spectrum.
func (s *Spectrum) Proportions() map[mutation.Substitution]map[string]float64 {
	out := make(map[mutation.Substitution]map[string]float64, len(s.types))
	for _, t := range s.types {
		m := make(map[string]float64, len(s.cells[t]))
		for ctx, n := range s.cells[t] {
			m[ctx] = s.proportion(n)
		}
		out[t] = m
	}
	return out
}

func (s *Spectrum) proportion(n int) float64 {
	if s.total == 0 {
		return 0
	}
	return float64(n) / float64(s.total)
}

// Cells lists every cell in type-table order, contexts sorted.
func (s *Spectrum) Cells() []Cell {
	out := make([]Cell, 0, len(s.types)*len(s.cells[s.types[0]]))
	for _, t := range s.types {
		contexts := make([]string, 0, len(s.cells[t]))
		for ctx := range s.cells[t] {
			contexts = append(contexts, ctx)
		}
		sort.Strings(contexts)
		for _, ctx := range contexts {
			n := s.cells[t][ctx]
			out = append(out, Cell{Type: t.String(), Context: ctx, Count: n, Proportion: s.proportion(n)})
		}
	}
	return out
}

// MostFrequent returns the n most populated non-empty cells, highest count
// first; ties are broken by type-table order, then context.
func (s *Spectrum) MostFrequent(n int) []Cell {
	rank := make(map[string]int, len(s.types))
	for i, t := range s.types {
		rank[t.String()] = i
	}

	var top []Cell
	linq.From(s.Cells()).
		WhereT(func(c Cell) bool { return c.Count > 0 }).
		OrderByDescendingT(func(c Cell) int { return c.Count }).
		ThenByT(func(c Cell) int { return rank[c.Type] }).
		ThenByT(func(c Cell) string { return c.Context }).
		Take(n).
		ToSlice(&top)
	return top
}

// WriteTSV writes one line per cell: type, context, count, proportion.
func (s *Spectrum) WriteTSV(w io.Writer) error {
	out := bufio.NewWriter(w)
	fmt.Fprintln(out, "type\tcontext\tcount\tproportion")
	for _, c := range s.Cells() {
		fmt.Fprintf(out, "%s\t%s\t%d\t%.6f\n", c.Type, c.Context, c.Count, c.Proportion)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing spectrum: %w", err)
	}
	return nil
}
