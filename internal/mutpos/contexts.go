package mutpos

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/internal/kmer"
	"github.com/aria-lang/mutspec-go/internal/mutation"
	"github.com/aria-lang/mutspec-go/internal/reference"
	"github.com/aria-lang/mutspec-go/internal/sequence"
	"github.com/aria-lang/mutspec-go/internal/stats"
)

// altPriority decides which base a line reports when more than one mutant
// count is nonzero.
const altPriority = "AGCT"

// ContextOptions configures ExtractContexts.
type ContextOptions struct {
	Format Format
	// Target is the substitution whose contexts are written. Lines carrying
	// its strand complement are written reverse-complemented.
	Target mutation.Substitution
	// Flank is the number of bases on each side of the mutated base.
	Flank  int
	Region Region
	Logger logrus.FieldLogger
}

// ExtractContexts writes one upper-case context per line of r whose
// observed substitution is opts.Target or its complement.
func ExtractContexts(r io.Reader, w io.Writer, idx *reference.Index, opts ContextOptions) (*stats.Run, error) {
	if _, ok := layouts[opts.Format]; !ok {
		return nil, &UnknownFormatError{Value: opts.Format.String()}
	}
	comp, ok := opts.Target.Complement()
	if !ok {
		return nil, &mutation.InvalidSubstitutionError{Value: opts.Target.String()}
	}
	k, err := kmer.WindowLength(opts.Flank)
	if err != nil {
		return nil, err
	}

	out := bufio.NewWriter(w)
	run := stats.NewRun()

	err = eachLine(r, func(num int, text string) error {
		run.Line()

		l, err := parseLine(num, text, opts.Format)
		if err != nil {
			return err
		}
		if !opts.Region.Contains(l.chrom, l.position) {
			run.Skip(stats.SkipRegion)
			return nil
		}
		if l.counts.Total() == 0 {
			run.Skip(stats.SkipNoMutation)
			return nil
		}

		var alt byte
		for i := 0; i < len(altPriority); i++ {
			if l.counts.Get(altPriority[i]) > 0 {
				alt = altPriority[i]
				break
			}
		}
		sub := mutation.Substitution{Ref: l.ref, Alt: alt}
		if sub != opts.Target && sub != comp {
			run.Skip(stats.SkipOtherType)
			return nil
		}

		ctx, ok, err := lineContext(idx, l, k, run)
		if err != nil || !ok {
			return err
		}
		if sub == comp {
			ctx, err = sequence.ReverseComplement(ctx)
			if err != nil {
				run.Skip(stats.SkipUnknownBase)
				return nil
			}
		}

		if _, err := fmt.Fprintln(out, ctx); err != nil {
			return fmt.Errorf("writing context: %w", err)
		}
		run.Emit(1)
		return nil
	})
	if err != nil {
		return run, err
	}
	if err := out.Flush(); err != nil {
		return run, fmt.Errorf("writing context: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields(run.Fields())).
		WithField("target", opts.Target.String()).
		Debug("extracted mutation position contexts")
	return run, nil
}
