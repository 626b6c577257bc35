// Command mutspec builds mutational spectra and sequence contexts from
// mutation-calling outputs.
//
// Usage:
//
//	mutspec [command] [options]
//
// Commands:
//
//	spectrum      Build a spectrum from per-position count files
//	contexts      Extract contexts of one type from a per-position count file
//	mut-contexts  Extract contexts of one type from a .mut file
//	table-to-mut  Convert a mutation table to a .mut file
//	check         Check a .mut file for reference/context mismatches
//	background    Count reference k-mers around every base
//	kmer          Show the window around one reference position
//	version       Show version information
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/internal/config"
	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "spectrum":
		err = spectrumCmd(os.Args[2:])
	case "contexts":
		err = contextsCmd(os.Args[2:])
	case "mut-contexts":
		err = mutContextsCmd(os.Args[2:])
	case "table-to-mut":
		err = tableToMutCmd(os.Args[2:])
	case "check":
		err = checkCmd(os.Args[2:])
	case "background":
		err = backgroundCmd(os.Args[2:])
	case "kmer":
		err = kmerCmd(os.Args[2:])
	case "version":
		fmt.Println(mutspec.Info())
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mutspec - Mutational Spectrum Toolkit

Usage:
  mutspec <command> [options]

Commands:
  spectrum      Build a spectrum from per-position count files
  contexts      Extract contexts of one type from a per-position count file
  mut-contexts  Extract contexts of one type from a .mut file
  table-to-mut  Convert a mutation table to a .mut file
  check         Check a .mut file for reference/context mismatches
  background    Count reference k-mers around every base
  kmer          Show the window around one reference position
  version       Show version information
  help          Show this help message

Every command accepts -config, -ref, -log-level and -cpuprofile.
Settings are read from the config file, then MUTSPEC_* environment
variables, then flags.

Use "mutspec <command> -h" for more information about a command.`)
}

// command is a flag set with the options shared by every subcommand.
// Flags that override configuration are applied after the config loads.
type command struct {
	fs         *flag.FlagSet
	configPath *string
	cpuprofile *string
	pending    []func(*config.Config) error
}

func newCommand(name string) *command {
	c := &command{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	c.configPath = c.fs.String("config", "", "YAML config file")
	c.cpuprofile = c.fs.String("cpuprofile", "", "Write a CPU profile to this directory")
	c.setting("ref", "FASTA reference", func(cfg *config.Config, v string) error {
		cfg.Reference = v
		return nil
	})
	c.setting("log-level", "Log level (debug, info, warn, error)", func(cfg *config.Config, v string) error {
		cfg.LogLevel = v
		return nil
	})
	return c
}

// setting registers a flag that overrides a configuration value.
func (c *command) setting(name, usage string, apply func(*config.Config, string) error) {
	c.fs.Func(name, usage, func(v string) error {
		c.pending = append(c.pending, func(cfg *config.Config) error {
			if err := apply(cfg, v); err != nil {
				return fmt.Errorf("-%s: %w", name, err)
			}
			return nil
		})
		return nil
	})
}

func (c *command) intSetting(name, usage string, dst func(*config.Config) *int) {
	c.setting(name, usage, func(cfg *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(cfg) = n
		return nil
	})
}

func (c *command) floatSetting(name, usage string, dst func(*config.Config) *float64) {
	c.setting(name, usage, func(cfg *config.Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(cfg) = f
		return nil
	})
}

// session is the state of one command run.
type session struct {
	cfg    *config.Config
	logger *logrus.Entry
	stop   func()
}

// start parses args, loads configuration and starts logging and profiling.
func (c *command) start(args []string) (*session, error) {
	c.fs.Parse(args)

	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	for _, apply := range c.pending {
		if err := apply(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetOutput(os.Stderr)
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	base.SetLevel(level)
	logger := base.WithField("run", uuid.New().String())

	stop := func() {}
	if *c.cpuprofile != "" {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath(*c.cpuprofile), profile.Quiet)
		stop = p.Stop
	}

	logger.WithField("command", c.fs.Name()).Debug("starting")
	return &session{cfg: cfg, logger: logger, stop: stop}, nil
}

func (s *session) reference() (*mutspec.Reference, error) {
	if s.cfg.Reference == "" {
		return nil, fmt.Errorf("a reference is required (-ref or MUTSPEC_REFERENCE)")
	}
	ref, err := mutspec.LoadReference(s.cfg.Reference)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"reference": s.cfg.Reference,
		"records":   ref.Size(),
	}).Info("loaded reference")
	return ref, nil
}

func (s *session) report(run *mutspec.Run, msg string) {
	if run == nil {
		return
	}
	s.logger.WithFields(logrus.Fields(run.Fields())).Info(msg)
}

func parseFlags(c *command) {
	c.setting("format", "Count file format (essigmann, wesdirect, loeb)", func(cfg *config.Config, v string) error {
		cfg.Format = v
		return nil
	})
	c.setting("notation", "Strand notation (pyrimidine, purine)", func(cfg *config.Config, v string) error {
		cfg.Notation = v
		return nil
	})
	c.intSetting("k", "Context length (odd)", func(cfg *config.Config) *int { return &cfg.K })
	c.intSetting("min-depth", "Minimum read depth", func(cfg *config.Config) *int { return &cfg.MinDepth })
	c.floatSetting("clonality-min", "Lower clonality bound", func(cfg *config.Config) *float64 { return &cfg.ClonalityMin })
	c.floatSetting("clonality-max", "Upper clonality bound", func(cfg *config.Config) *float64 { return &cfg.ClonalityMax })
	regionFlag(c)
}

func regionFlag(c *command) {
	c.setting("region", "Restrict to chrom or chrom:start-end (zero-based, end exclusive)", func(cfg *config.Config, v string) error {
		cfg.Region = v
		return nil
	})
}

func spectrumCmd(args []string) error {
	c := newCommand("spectrum")
	parseFlags(c)
	c.intSetting("jobs", "Files processed in parallel", func(cfg *config.Config) *int { return &cfg.Jobs })
	out := c.fs.String("out", "", "Output TSV (default: stdout)")
	top := c.fs.Int("top", 0, "Print only the N most frequent cells")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	files := c.fs.Args()
	if len(files) == 0 {
		c.fs.Usage()
		return fmt.Errorf("at least one count file is required")
	}

	ref, err := s.reference()
	if err != nil {
		return err
	}
	opts, err := s.cfg.ParseOptions(s.logger)
	if err != nil {
		return err
	}

	results, err := mutspec.BatchSpectra(context.Background(), ref, files, opts, s.cfg.Jobs)
	if err != nil {
		return err
	}
	for _, r := range results {
		s.logger.WithField("file", r.Path).WithFields(logrus.Fields(r.Run.Fields())).Info("parsed count file")
	}
	spec, run, err := mutspec.Merge(results)
	if err != nil {
		return err
	}
	s.report(run, "spectrum built")

	w, closeOut, err := output(*out)
	if err != nil {
		return err
	}
	defer closeOut()

	if *top > 0 {
		fmt.Fprintf(w, "Top %d cells of %d placed mutations:\n", *top, spec.Total())
		for i, cell := range spec.MostFrequent(*top) {
			fmt.Fprintf(w, "%2d. %s %s: %d (%.2f%%)\n", i+1, cell.Type, cell.Context, cell.Count, cell.Proportion*100)
		}
		return nil
	}
	return spec.WriteTSV(w)
}

func contextsCmd(args []string) error {
	c := newCommand("contexts")
	c.setting("format", "Count file format (essigmann, wesdirect, loeb)", func(cfg *config.Config, v string) error {
		cfg.Format = v
		return nil
	})
	in := c.fs.String("in", "", "Per-position count file")
	out := c.fs.String("out", "", "Output file, one context per line")
	typ := c.fs.String("type", "C>T", "Substitution type")
	window := c.fs.Int("window", 1, "Flanking bases on each side")
	regionFlag(c)
	c.fs.Lookup("format").DefValue = "loeb"

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	if *in == "" || *out == "" {
		c.fs.Usage()
		return fmt.Errorf("-in and -out are required")
	}
	format := mutspec.Loeb
	if formatSet(c.fs) {
		if format, err = s.cfg.ParsedFormat(); err != nil {
			return err
		}
	}
	target, err := mutspec.ParseSubstitution(*typ)
	if err != nil {
		return err
	}
	reg, err := s.cfg.ParsedRegion()
	if err != nil {
		return err
	}
	ref, err := s.reference()
	if err != nil {
		return err
	}

	run, err := mutspec.ExtractMutposContexts(*in, *out, ref, mutspec.ContextOptions{
		Format: format,
		Target: target,
		Flank:  *window,
		Region: reg,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}
	s.report(run, "contexts written")
	return nil
}

func mutContextsCmd(args []string) error {
	c := newCommand("mut-contexts")
	c.setting("split", "Split a two-probe chromosome at chrom:threshold", func(cfg *config.Config, v string) error {
		cfg.Splits = append(cfg.Splits, v)
		return nil
	})
	in := c.fs.String("in", "", ".mut file")
	out := c.fs.String("out", "", "Output file, one context per line")
	typ := c.fs.String("type", "C>T", "Substitution type")
	window := c.fs.Int("window", 1, "Flanking bases on each side")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	if *in == "" || *out == "" {
		c.fs.Usage()
		return fmt.Errorf("-in and -out are required")
	}
	target, err := mutspec.ParseSubstitution(*typ)
	if err != nil {
		return err
	}
	ref, err := s.reference()
	if err != nil {
		return err
	}
	probes, err := mutspec.LoadProbes(ref)
	if err != nil {
		return err
	}
	if probes, err = s.cfg.ProbeMap(probes); err != nil {
		return err
	}

	run, err := mutspec.ExtractMutContexts(*in, *out, probes, ref, mutspec.MutOptions{
		Target: target,
		Flank:  *window,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}
	s.report(run, "contexts written")
	return nil
}

func tableToMutCmd(args []string) error {
	c := newCommand("table-to-mut")
	c.setting("sample", "Sample tag written to every row", func(cfg *config.Config, v string) error {
		cfg.Sample = v
		return nil
	})
	in := c.fs.String("in", "", "Mutation table (chrom, pos, ref, alt, filter)")
	out := c.fs.String("out", "", "Output .mut file")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	if *in == "" || *out == "" {
		c.fs.Usage()
		return fmt.Errorf("-in and -out are required")
	}
	ref, err := s.reference()
	if err != nil {
		return err
	}

	run, err := mutspec.TableToMut(*in, *out, ref, mutspec.TableOptions{
		Sample: s.cfg.Sample,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}
	s.report(run, "table converted")
	return nil
}

func checkCmd(args []string) error {
	c := newCommand("check")
	in := c.fs.String("in", "", ".mut file")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	if *in == "" {
		c.fs.Usage()
		return fmt.Errorf("-in is required")
	}

	found, run, err := mutspec.CheckMutIntegrity(*in, s.logger)
	if err != nil {
		return err
	}
	s.report(run, "integrity check done")

	if len(found) == 0 {
		fmt.Println("No discrepancies found")
		return nil
	}
	fmt.Printf("%d discrepancies:\n", len(found))
	for _, d := range found {
		fmt.Println(d)
	}
	return nil
}

func backgroundCmd(args []string) error {
	c := newCommand("background")
	c.setting("notation", "Strand notation (pyrimidine, purine)", func(cfg *config.Config, v string) error {
		cfg.Notation = v
		return nil
	})
	c.intSetting("k", "Context length (odd)", func(cfg *config.Config) *int { return &cfg.K })
	out := c.fs.String("out", "", "Output TSV (default: stdout)")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	ref, err := s.reference()
	if err != nil {
		return err
	}
	n, err := s.cfg.ParsedNotation()
	if err != nil {
		return err
	}
	counter, err := mutspec.Background(ref, s.cfg.K, n)
	if err != nil {
		return err
	}

	w, closeOut, err := output(*out)
	if err != nil {
		return err
	}
	defer closeOut()

	fmt.Fprintln(w, "kmer\tcount\tfrequency")
	for _, kc := range counter.Sorted() {
		freq, err := counter.Frequency(kc.KMer)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.6f\n", kc.KMer, kc.Count, freq)
	}
	return nil
}

func kmerCmd(args []string) error {
	c := newCommand("kmer")
	id := c.fs.String("id", "", "Reference record id")
	pos := c.fs.Int("pos", 0, "Zero-based position")
	k := c.fs.Int("k", 3, "Window length")
	offset := c.fs.Int("offset", -1, "Index of pos inside the window (default: centered)")

	s, err := c.start(args)
	if err != nil {
		return err
	}
	defer s.stop()

	if *id == "" {
		c.fs.Usage()
		return fmt.Errorf("-id is required")
	}
	ref, err := s.reference()
	if err != nil {
		return err
	}

	var (
		window string
		ok     bool
	)
	if *offset >= 0 {
		window, ok, err = mutspec.ExtractKMerAt(ref, *id, *pos, *k, *offset)
	} else {
		window, ok, err = mutspec.ExtractKMer(ref, *id, *pos, *k)
	}
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("OUT_OF_RANGE")
		return nil
	}
	fmt.Println(window)
	return nil
}

func formatSet(fs *flag.FlagSet) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "format" {
			set = true
		}
	})
	return set
}

func output(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
