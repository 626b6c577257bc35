// Package stats keeps per-run accounting for the parsers and summarises
// loaded references.
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aria-lang/mutspec-go/internal/reference"
)

// SkipReason names an expected, silent reason for dropping an input line
// or allele.
type SkipReason string

const (
	SkipHeader            SkipReason = "header"
	SkipRegion            SkipReason = "region"
	SkipNoMutation        SkipReason = "no_mutation"
	SkipLowDepth          SkipReason = "low_depth"
	SkipOutOfRange        SkipReason = "out_of_range"
	SkipClonality         SkipReason = "clonality"
	SkipUnknownChromosome SkipReason = "unknown_chromosome"
	SkipNotSNV            SkipReason = "not_snv"
	SkipOtherType         SkipReason = "other_type"
	SkipUnknownBase       SkipReason = "unknown_base"
)

// Run counts what happened to the lines of one input file.
type Run struct {
	Lines   int                `json:"lines"`
	Emitted int                `json:"emitted"`
	Skipped map[SkipReason]int `json:"skipped"`
}

// NewRun returns an empty Run.
func NewRun() *Run {
	return &Run{Skipped: make(map[SkipReason]int)}
}

// Line records that one more input line was read.
func (r *Run) Line() {
	r.Lines++
}

// Skip records one skip for reason.
func (r *Run) Skip(reason SkipReason) {
	r.Skipped[reason]++
}

// Emit records n emitted records or context lines.
func (r *Run) Emit(n int) {
	r.Emitted += n
}

// TotalSkipped returns the sum of all skip counters.
func (r *Run) TotalSkipped() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Merge adds the counters of other into r.
func (r *Run) Merge(other *Run) {
	r.Lines += other.Lines
	r.Emitted += other.Emitted
	for k, v := range other.Skipped {
		r.Skipped[k] += v
	}
}

// Fields returns the counters as a flat map, suitable for structured logs.
func (r *Run) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"lines":   r.Lines,
		"emitted": r.Emitted,
		"skipped": r.TotalSkipped(),
	}
	for k, v := range r.Skipped {
		f["skip_"+string(k)] = v
	}
	return f
}

func (r *Run) String() string {
	reasons := make([]string, 0, len(r.Skipped))
	for k := range r.Skipped {
		reasons = append(reasons, string(k))
	}
	sort.Strings(reasons)

	var sb strings.Builder
	fmt.Fprintf(&sb, "lines=%d emitted=%d", r.Lines, r.Emitted)
	for _, k := range reasons {
		fmt.Fprintf(&sb, " %s=%d", k, r.Skipped[SkipReason(k)])
	}
	return sb.String()
}

// ReferenceStats summarises a loaded reference.
type ReferenceStats struct {
	Count          int `json:"count"`
	TotalBases     int `json:"total_bases"`
	MinLength      int `json:"min_length"`
	MaxLength      int `json:"max_length"`
	N50            int `json:"n50"`
	TotalAmbiguous int `json:"total_ambiguous"`
	SoftMasked     int `json:"soft_masked"`
}

// FromReference calculates statistics over every record of idx.
func FromReference(idx *reference.Index) (*ReferenceStats, error) {
	ids := idx.IDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("reference is empty")
	}

	s := &ReferenceStats{Count: len(ids)}
	lengths := make([]int, 0, len(ids))

	for _, id := range ids {
		raw, err := idx.Raw(id)
		if err != nil {
			return nil, err
		}
		lengths = append(lengths, len(raw))
		s.TotalBases += len(raw)
		for i := 0; i < len(raw); i++ {
			switch b := raw[i]; {
			case b == 'N' || b == 'n':
				s.TotalAmbiguous++
				if b == 'n' {
					s.SoftMasked++
				}
			case b >= 'a' && b <= 'z':
				s.SoftMasked++
			}
		}
	}

	sort.Sort(sort.Reverse(sort.IntSlice(lengths)))
	s.MaxLength = lengths[0]
	s.MinLength = lengths[len(lengths)-1]

	// N50: length at which half of all bases sit in records at least that long.
	half := (s.TotalBases + 1) / 2
	running := 0
	for _, l := range lengths {
		running += l
		if running >= half {
			s.N50 = l
			break
		}
	}

	return s, nil
}

func (s *ReferenceStats) String() string {
	return fmt.Sprintf(`ReferenceStats {
  records: %d
  total_bases: %d
  length range: %d - %d
  N50: %d
  ambiguous bases: %d
  soft-masked bases: %d
}`, s.Count, s.TotalBases, s.MinLength, s.MaxLength, s.N50, s.TotalAmbiguous, s.SoftMasked)
}
