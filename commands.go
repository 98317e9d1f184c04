package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmccarv/substsolve/internal/cipher"
	"github.com/jmccarv/substsolve/internal/config"
	"github.com/jmccarv/substsolve/internal/ngram"
)

// flagValues holds command line flags. They override the config file and
// environment only when set explicitly.
type flagValues struct {
	configFile string
	corpus     string
	floor      float64
	topNgrams  int
	exactMean  bool
	logLevel   string

	maxRuntime       time.Duration
	topN             int
	workers          int
	seed             uint64
	patience         int
	reportEvery      uint64
	progressInterval time.Duration
	maxRestarts      uint64
	maxAttempts      uint64
	metricsAddr      string
	cpuprofile       string
	memprofile       string

	statsTop int
	ngramLen int
	key      string
}

func newRootCmd() *cobra.Command {
	f := &flagValues{}

	rootCmd := &cobra.Command{
		Use:   "substsolve [flags] [CIPHERTEXT FILE]",
		Short: "Recover the key of a simple substitution cipher",
		Long: `Read a ciphertext from CIPHERTEXT FILE or stdin and search for the
substitution key that makes it read most like English. The search runs until
interrupted, --max-runtime passes, or a restart/attempt budget is used up.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args, f)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "YAML configuration file")
	pf.StringVarP(&f.corpus, "corpus", "f", "english_quadgrams.txt", "n-gram frequency list")
	pf.Float64Var(&f.floor, "floor", 0.01, "count assumed for n-grams missing from the corpus")
	pf.IntVar(&f.topNgrams, "top-ngrams", 826, "number of most common n-grams forming the reference mean")
	pf.BoolVar(&f.exactMean, "exact-mean", false, "divide by the number of windows rather than one less")
	pf.StringVar(&f.logLevel, "log-level", "warn", "off, error, warn, info or debug")

	fl := rootCmd.Flags()
	fl.DurationVarP(&f.maxRuntime, "max-runtime", "r", 0, "quit after this amount of time. Ex: 30s or 1m")
	fl.IntVar(&f.topN, "topn", 3, "display the top N solutions when done")
	fl.IntVarP(&f.workers, "workers", "p", 1, "number of restarts to run in parallel")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed, 0 picks one from the clock")
	fl.IntVar(&f.patience, "patience", 1000, "rejected swaps in a row before restarting")
	fl.Uint64Var(&f.reportEvery, "report-every", 50000, "attempts between progress reports")
	fl.DurationVar(&f.progressInterval, "progress-interval", 0, "minimum time between progress reports")
	fl.Uint64Var(&f.maxRestarts, "max-restarts", 0, "stop after this many restarts, 0 for no limit")
	fl.Uint64Var(&f.maxAttempts, "max-attempts", 0, "stop after this many attempts, 0 for no limit")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	fl.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	fl.StringVar(&f.memprofile, "memprofile", "", "write memory profile to `file`")

	rootCmd.AddCommand(newStatsCmd(f), newCorpusCmd(f), newDecryptCmd(f), newEncryptCmd(f))
	return rootCmd
}

func newStatsCmd(f *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise an n-gram corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			scorer, err := loadScorer(cfg)
			if err != nil {
				return err
			}
			dispStats(cmd.OutOrStdout(), scorer, f.statsTop)
			return nil
		},
	}
	cmd.Flags().IntVar(&f.statsTop, "top", 10, "number of most common n-grams to list")
	return cmd
}

func newCorpusCmd(f *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus [TEXT FILE]",
		Short: "Build an n-gram frequency list from English text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			counts, err := ngram.Count(in, f.ngramLen)
			if err != nil {
				return err
			}
			_, err = counts.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().IntVarP(&f.ngramLen, "length", "n", 4, "n-gram length")
	return cmd
}

func newDecryptCmd(f *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt --key KEY [FILE]",
		Short: "Decrypt a ciphertext with a known key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyKey(cmd, args, f.key, cipher.Decrypt)
		},
	}
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "26 letter key or CIPHER=PLAIN mappings")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newEncryptCmd(f *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt --key KEY [FILE]",
		Short: "Encrypt a plaintext with a key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyKey(cmd, args, f.key, cipher.Encrypt)
		},
	}
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "26 letter key or CIPHER=PLAIN mappings")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func applyKey(cmd *cobra.Command, args []string, keyStr string, fn func(string, cipher.Key) (string, error)) error {
	key, err := cipher.ParseKey(keyStr)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	text, err := cipher.ReadCiphertext(in)
	if err != nil {
		return err
	}
	out, err := fn(text, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// openInput opens the file named by args[0], or stdin when there is none.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) > 0 {
		return os.Open(args[0])
	}
	return io.NopCloser(cmd.InOrStdin()), nil
}

// loadConfig layers explicitly set flags over the file and environment
// configuration and validates the result.
func loadConfig(cmd *cobra.Command, f *flagValues) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	var ferr error
	set := func(name string, apply func() error) {
		if ferr == nil && fl.Changed(name) {
			if err := apply(); err != nil {
				ferr = fmt.Errorf("--%s: %w", name, err)
			}
		}
	}

	set("corpus", func() error { cfg.Corpus = f.corpus; return nil })
	set("floor", func() error { cfg.FloorPercentage = f.floor; return nil })
	set("top-ngrams", func() error { cfg.TopNgrams = f.topNgrams; return nil })
	set("exact-mean", func() error { cfg.ExactMean = f.exactMean; return nil })
	set("log-level", func() error { return cfg.LogLevel.UnmarshalText([]byte(f.logLevel)) })
	set("max-runtime", func() error { cfg.MaxRuntime = f.maxRuntime; return nil })
	set("topn", func() error { cfg.TopN = f.topN; return nil })
	set("workers", func() error { cfg.Workers = f.workers; return nil })
	set("seed", func() error { cfg.Seed = f.seed; return nil })
	set("patience", func() error { cfg.Patience = f.patience; return nil })
	set("report-every", func() error { cfg.ReportEvery = f.reportEvery; return nil })
	set("progress-interval", func() error { cfg.ProgressInterval = f.progressInterval; return nil })
	set("max-restarts", func() error { cfg.MaxRestarts = f.maxRestarts; return nil })
	set("max-attempts", func() error { cfg.MaxAttempts = f.maxAttempts; return nil })
	set("metrics-addr", func() error { cfg.MetricsAddr = f.metricsAddr; return nil })
	if ferr != nil {
		return nil, ferr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadScorer(cfg *config.Config) (*ngram.Scorer, error) {
	tbl, err := ngram.LoadFile(cfg.Corpus)
	if err != nil {
		return nil, err
	}
	return ngram.NewScorer(tbl,
		ngram.WithFloorPercentage(cfg.FloorPercentage),
		ngram.WithTopNgrams(cfg.TopNgrams),
		ngram.WithExactMean(cfg.ExactMean),
	)
}
