package probe

import "fmt"

// UnknownChromosomeError is returned when no probe covers a chromosome.
// Parsers treat it as a skip, not a failure.
type UnknownChromosomeError struct {
	Chrom string
}

func (e *UnknownChromosomeError) Error() string {
	return fmt.Sprintf("chromosome %q has no probe", e.Chrom)
}

// LabelError is returned for a record label outside the chrom:start-end grammar.
type LabelError struct {
	Label string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("probe label %q: expected <chrom>:<start>-<end>", e.Label)
}

// AmbiguousProbeError is returned when a split is requested for a
// chromosome that does not carry exactly two probes.
type AmbiguousProbeError struct {
	Chrom  string
	Probes int
}

func (e *AmbiguousProbeError) Error() string {
	return fmt.Sprintf("cannot split %s: %d probes, need exactly 2", e.Chrom, e.Probes)
}

// InvalidRuleError is returned for a split rule that does not match the probe set.
type InvalidRuleError struct {
	Rule   SplitRule
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("split rule for %s: %s", e.Rule.Chrom, e.Reason)
}
