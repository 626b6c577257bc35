package mutfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/probe"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

const probeFASTA = `>chr2:100-110
AACCGGTTAC
>chr1:1000-1010
GGGCAGGGGG
`

func testProbes(t *testing.T) (*reference.Index, *probe.Map) {
	t.Helper()
	idx, err := reference.Parse(strings.NewReader(probeFASTA))
	require.NoError(t, err)
	m, err := probe.NewMap(idx)
	require.NoError(t, err)
	return idx, m
}

func mutRow(contig, start, varType, ref, alt, context string) string {
	return strings.Join([]string{
		contig, start, start, "S1", varType, ref, alt, "1", "100", "0", ref + ">" + alt, context,
	}, "\t")
}

func lines(rows ...string) string {
	return strings.Join(rows, "\n") + "\n"
}

func TestExtractContexts(t *testing.T) {
	idx, probes := testProbes(t)
	logger, hook := logtest.NewNullLogger()

	input := lines(
		strings.Join(Header[:12], "\t"),
		mutRow("chr2", "103", "snv", "C", "T", "CCG"),
		mutRow("chr2", "104", "snv", "g", "a", "CGG"),
		mutRow("chr2", "106", "snv", "T", "C", "GTT"),
		mutRow("chr2", "103", "indel", "C", "CT", "CCG"),
		mutRow("chr9", "5", "snv", "C", "T", "ACA"),
		mutRow("chr2", "109", "snv", "C", "T", "AC"),
		mutRow("chr1", "1003", "snv", "C", "T", "GCA"),
	)

	var out bytes.Buffer
	run, err := ExtractContexts(strings.NewReader(input), &out, probes, idx, ContextOptions{
		Target: mutation.Substitution{Ref: 'C', Alt: 'T'},
		Flank:  1,
		Logger: logger,
	})
	require.NoError(t, err)

	assert.Equal(t, "CCG\nCCG\nGCA\n", out.String())
	assert.Equal(t, 8, run.Lines)
	assert.Equal(t, 3, run.Emitted)
	assert.Equal(t, 1, run.Skipped[stats.SkipHeader])
	assert.Equal(t, 1, run.Skipped[stats.SkipOtherType])
	assert.Equal(t, 1, run.Skipped[stats.SkipNotSNV])
	assert.Equal(t, 1, run.Skipped[stats.SkipUnknownChromosome])
	assert.Equal(t, 1, run.Skipped[stats.SkipOutOfRange])

	var warnings []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e)
		}
	}
	require.Len(t, warnings, 1)
	assert.Equal(t, "chr9", warnings[0].Data["chrom"])
	assert.Equal(t, 6, warnings[0].Data["line"])
}

func TestExtractContextsWiderFlank(t *testing.T) {
	idx, probes := testProbes(t)

	var out bytes.Buffer
	_, err := ExtractContexts(strings.NewReader(lines(mutRow("chr2", "104", "snv", "G", "A", "CGG"))), &out, probes, idx, ContextOptions{
		Target: mutation.Substitution{Ref: 'C', Alt: 'T'},
		Flank:  2,
	})
	require.NoError(t, err)
	// window CCGGT, reverse complemented
	assert.Equal(t, "ACCGG\n", out.String())
}

func TestExtractContextsSplitRule(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr1:10-20\nAACAAAAAAA\n>chr1:500-510\nGGGGGCGGGG\n"))
	require.NoError(t, err)
	m, err := probe.NewMap(idx)
	require.NoError(t, err)
	rule, err := probe.SplitAt(m, "chr1", 100)
	require.NoError(t, err)
	m, err = m.WithRules(rule)
	require.NoError(t, err)

	input := lines(
		mutRow("chr1", "12", "snv", "C", "T", "ACA"),
		mutRow("chr1", "505", "snv", "C", "T", "GCG"),
	)
	var out bytes.Buffer
	run, err := ExtractContexts(strings.NewReader(input), &out, m, idx, ContextOptions{
		Target: mutation.Substitution{Ref: 'C', Alt: 'T'},
		Flank:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, "ACA\nGCG\n", out.String())
	assert.Equal(t, 2, run.Emitted)
}

func TestExtractContextsMalformed(t *testing.T) {
	idx, probes := testProbes(t)
	target := mutation.Substitution{Ref: 'C', Alt: 'T'}

	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", lines("", "chr2\t103\t104\tS1\tsnv\tC\tT")},
		{"start not integer", lines("", mutRow("chr2", "1e2", "snv", "C", "T", "CCG"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := ExtractContexts(strings.NewReader(tt.input), &out, probes, idx, ContextOptions{Target: target, Flank: 1})
			var mre *mutation.MalformedRecordError
			require.True(t, errors.As(err, &mre), "got %v", err)
			assert.Equal(t, 2, mre.Line)
		})
	}
}

func TestExtractContextsInvalidTarget(t *testing.T) {
	idx, probes := testProbes(t)
	_, err := ExtractContexts(strings.NewReader(""), &bytes.Buffer{}, probes, idx, ContextOptions{
		Target: mutation.Substitution{Ref: 'G', Alt: 'G'},
		Flank:  1,
	})
	var ise *mutation.InvalidSubstitutionError
	assert.True(t, errors.As(err, &ise))
}

func TestTableToMut(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr2\nAACCGGTTAC\n"))
	require.NoError(t, err)

	input := lines(
		"CHROM\tPOS\tREF\tALT\tFILTER",
		"chr2\t4\tc\tt\tPASS",
		"chr2\t4\tAT\tA\tPASS",
		"chr2\t1\tA\tG\tPASS",
		"chr2\t5\tG\tA\tLowQual",
	)
	var out bytes.Buffer
	run, err := TableToMut(strings.NewReader(input), &out, idx, TableOptions{})
	require.NoError(t, err)

	want := lines(
		"contig\tstart\tend\tsample\tvar_type\tref\talt\talt_depth\tdepth\tN\tsubtype\tcontext\tfilter",
		"chr2\t4\t5\tJME\tsnv\tC\tT\t1\t100\t0\tC>T\tCCG\tPASS",
		"chr2\t5\t6\tJME\tsnv\tG\tA\t1\t100\t0\tG>A\tCGG\tLowQual",
	)
	assert.Equal(t, want, out.String())
	assert.Equal(t, 2, run.Emitted)
	assert.Equal(t, 1, run.Skipped[stats.SkipNotSNV])
	assert.Equal(t, 1, run.Skipped[stats.SkipOutOfRange])
}

func TestTableToMutSkipsMultiBase(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr2\nAACCGGTTAC\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	run, err := TableToMut(strings.NewReader("chr2\t4\tAT\tA\tPASS\n"), &out, idx, TableOptions{Sample: "S9"})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(Header, "\t")+"\n", out.String())
	assert.Zero(t, run.Emitted)
}

func TestTableToMutOutputIsConsistent(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr2\nAACCGGTTAC\n"))
	require.NoError(t, err)

	input := lines("chr2\t3\tC\tA\t.", "chr2\t6\tG\tT\t.", "chr2\t8\tT\tC\t.")
	var mut bytes.Buffer
	_, err = TableToMut(strings.NewReader(input), &mut, idx, TableOptions{Sample: "S9"})
	require.NoError(t, err)
	assert.Contains(t, mut.String(), "\tS9\t")

	found, run, err := CheckIntegrity(&mut, nil)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 3, run.Emitted)
}

func TestTableToMutUnknownChromosome(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr2\nAACCGGTTAC\n"))
	require.NoError(t, err)

	_, err = TableToMut(strings.NewReader("chr7\t4\tC\tT\tPASS\n"), &bytes.Buffer{}, idx, TableOptions{})
	var unknown *reference.UnknownSequenceError
	assert.True(t, errors.As(err, &unknown))
}

func TestTableToMutProgress(t *testing.T) {
	idx, err := reference.Parse(strings.NewReader(">chr2\nAACCGGTTAC\n"))
	require.NoError(t, err)
	logger, hook := logtest.NewNullLogger()

	var sb strings.Builder
	for i := 0; i < 2500; i++ {
		sb.WriteString("chr2\t4\tC\tT\tPASS\n")
	}
	_, err = TableToMut(strings.NewReader(sb.String()), &bytes.Buffer{}, idx, TableOptions{Logger: logger})
	require.NoError(t, err)

	var progress []int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			progress = append(progress, e.Data["converted"].(int))
		}
	}
	assert.Equal(t, []int{1000, 2000}, progress)
}

func TestCheckIntegrity(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	input := lines(
		strings.Join(Header, "\t"),
		mutRow("chr2", "3", "snv", "C", "T", "CCG"),
		mutRow("chr2", "4", "snv", "A", "T", "CCG"),
		mutRow("chr2", "5", "snv", "G", "T", "cgg"),
		mutRow("chr2", "6", "snv", "G", "T", "GG"),
	)

	found, run, err := CheckIntegrity(strings.NewReader(input), logger)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, Discrepancy{Line: 3, Contig: "chr2", Start: 4, Ref: "A", Context: "CCG"}, found[0])
	assert.Equal(t, 5, found[1].Line)
	assert.Equal(t, 4, run.Emitted)
	assert.Len(t, hook.AllEntries(), 2)
}

func TestCheckIntegrityMalformed(t *testing.T) {
	_, _, err := CheckIntegrity(strings.NewReader("chr2\t3\n"), nil)
	var mre *mutation.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Line)
}
