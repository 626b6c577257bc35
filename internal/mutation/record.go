package mutation

import "fmt"

// Record is one observed mutant read at a reference position.
type Record struct {
	Ref       byte
	Alt       byte
	Chrom     string
	Position  int // zero-based
	Context   string
	Depth     int
	Clonality float64
}

// Substitution returns Ref>Alt.
func (r *Record) Substitution() Substitution {
	return Substitution{Ref: r.Ref, Alt: r.Alt}
}

// Consistent reports whether Ref matches the center base of Context. An
// empty or even-length context cannot be checked and counts as consistent.
func (r *Record) Consistent() bool {
	if len(r.Context) == 0 || len(r.Context)%2 == 0 {
		return true
	}
	return r.Context[len(r.Context)/2] == r.Ref
}

func (r *Record) String() string {
	return fmt.Sprintf("%s:%d %c>%c %s depth=%d clonality=%.4f",
		r.Chrom, r.Position, r.Ref, r.Alt, r.Context, r.Depth, r.Clonality)
}
