// Package probe maps whole-chromosome coordinates onto probe-local
// reference windows.
//
// A probe reference is a FASTA file whose record labels follow the
// "<chrom>:<start>-<end>" grammar. A variant at chrom:pos lies in the probe
// for chrom and sits at offset pos-start in that probe's sequence.
package probe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aria-lang/mutspec-go/internal/reference"
)

// Probe is one targeted reference window.
type Probe struct {
	ID    string
	Chrom string
	Start int
	End   int
}

// SplitRule resolves a chromosome carried by two probes. Positions below
// Threshold map to Below, the rest to AtOrAbove.
type SplitRule struct {
	Chrom     string `yaml:"chrom" json:"chrom"`
	Threshold int    `yaml:"threshold" json:"threshold"`
	Below     string `yaml:"below" json:"below"`
	AtOrAbove string `yaml:"at_or_above" json:"at_or_above"`
}

// Map is an immutable chromosome-to-probe lookup.
type Map struct {
	probes  []Probe
	byID    map[string]int
	byChrom map[string][]int
	rules   map[string]SplitRule
}

// ParseLabel parses a "<chrom>:<start>-<end>" record label. The end
// coordinate is optional.
func ParseLabel(label string) (Probe, error) {
	i := strings.LastIndexByte(label, ':')
	if i <= 0 || i == len(label)-1 {
		return Probe{}, &LabelError{Label: label}
	}
	chrom, span := label[:i], label[i+1:]

	startStr, endStr, hasEnd := strings.Cut(span, "-")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return Probe{}, &LabelError{Label: label}
	}
	p := Probe{ID: label, Chrom: chrom, Start: start}
	if hasEnd {
		end, err := strconv.Atoi(endStr)
		if err != nil || end < start {
			return Probe{}, &LabelError{Label: label}
		}
		p.End = end
	}
	return p, nil
}

// NewMap builds a Map from the labels of a probe reference, in file order.
func NewMap(idx *reference.Index, rules ...SplitRule) (*Map, error) {
	ids := idx.IDs()
	probes := make([]Probe, 0, len(ids))
	for _, id := range ids {
		p, err := ParseLabel(id)
		if err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return FromProbes(probes, rules...)
}

// FromProbes builds a Map from parsed probes. Every rule must name two
// distinct known probes on the rule's chromosome.
func FromProbes(probes []Probe, rules ...SplitRule) (*Map, error) {
	m := &Map{
		probes:  append([]Probe(nil), probes...),
		byID:    make(map[string]int, len(probes)),
		byChrom: make(map[string][]int),
		rules:   make(map[string]SplitRule, len(rules)),
	}
	for i, p := range m.probes {
		if _, dup := m.byID[p.ID]; dup {
			return nil, &LabelError{Label: p.ID}
		}
		m.byID[p.ID] = i
		m.byChrom[p.Chrom] = append(m.byChrom[p.Chrom], i)
	}

	for _, r := range rules {
		if err := m.checkRule(r); err != nil {
			return nil, err
		}
		m.rules[r.Chrom] = r
	}
	return m, nil
}

func (m *Map) checkRule(r SplitRule) error {
	if _, dup := m.rules[r.Chrom]; dup {
		return &InvalidRuleError{Rule: r, Reason: "more than one rule for chromosome"}
	}
	if r.Below == r.AtOrAbove {
		return &InvalidRuleError{Rule: r, Reason: "below and at_or_above must differ"}
	}
	for _, id := range []string{r.Below, r.AtOrAbove} {
		i, ok := m.byID[id]
		if !ok {
			return &InvalidRuleError{Rule: r, Reason: fmt.Sprintf("unknown probe %q", id)}
		}
		if m.probes[i].Chrom != r.Chrom {
			return &InvalidRuleError{Rule: r, Reason: fmt.Sprintf("probe %q is not on %s", id, r.Chrom)}
		}
	}
	return nil
}

// SplitAt derives a rule for chrom from its two probes: the lower-start
// probe takes positions below threshold. Chromosomes with any other number
// of probes are refused.
func SplitAt(m *Map, chrom string, threshold int) (SplitRule, error) {
	on := m.byChrom[chrom]
	if len(on) != 2 {
		return SplitRule{}, &AmbiguousProbeError{Chrom: chrom, Probes: len(on)}
	}
	lo, hi := m.probes[on[0]], m.probes[on[1]]
	if hi.Start < lo.Start {
		lo, hi = hi, lo
	}
	return SplitRule{Chrom: chrom, Threshold: threshold, Below: lo.ID, AtOrAbove: hi.ID}, nil
}

// WithRules returns a copy of m carrying additional split rules.
func (m *Map) WithRules(rules ...SplitRule) (*Map, error) {
	all := append(m.Rules(), rules...)
	return FromProbes(m.probes, all...)
}

// ParseSplit parses a "<chrom>:<threshold>" split rule.
func ParseSplit(s string) (chrom string, threshold int, err error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return "", 0, fmt.Errorf("split %q: expected chrom:threshold", s)
	}
	threshold, err = strconv.Atoi(s[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("split %q: %w", s, err)
	}
	return s[:i], threshold, nil
}

// Remap converts an absolute chrom:pos to a probe label and probe-local
// offset. Without a split rule the first probe on chrom wins.
func (m *Map) Remap(chrom string, pos int) (string, int, error) {
	if r, ok := m.rules[chrom]; ok {
		id := r.AtOrAbove
		if pos < r.Threshold {
			id = r.Below
		}
		p := m.probes[m.byID[id]]
		return p.ID, pos - p.Start, nil
	}

	on, ok := m.byChrom[chrom]
	if !ok {
		return "", 0, &UnknownChromosomeError{Chrom: chrom}
	}
	p := m.probes[on[0]]
	return p.ID, pos - p.Start, nil
}

// Probes returns the probes in reference order.
func (m *Map) Probes() []Probe {
	return append([]Probe(nil), m.probes...)
}

// Rules returns the split rules sorted by chromosome.
func (m *Map) Rules() []SplitRule {
	out := make([]SplitRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chrom < out[j].Chrom })
	return out
}

// Chromosomes returns the distinct probe chromosomes in first-seen order.
func (m *Map) Chromosomes() []string {
	out := make([]string, 0, len(m.byChrom))
	seen := make(map[string]bool, len(m.byChrom))
	for _, p := range m.probes {
		if !seen[p.Chrom] {
			seen[p.Chrom] = true
			out = append(out, p.Chrom)
		}
	}
	return out
}
