package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"simjoin/pkg/join"
	"simjoin/pkg/logging"
	"simjoin/pkg/relation"
	"simjoin/pkg/similarity"
	"simjoin/pkg/tokenize"
)

// joinFlags carries every flag shared by the join commands. Values are
// resolved through viper, so each flag can also come from a config file or
// a SIMJOIN_-prefixed environment variable.
type joinFlags struct {
	left      string
	right     string
	leftKey   string
	rightKey  string
	leftJoin  string
	rightJoin string

	threshold float64
	compOp    string

	tokenizer string
	qgramSize int
	noPadding bool
	delims    string

	allowEmpty   bool
	allowMissing bool
	leftOut      []string
	rightOut     []string
	leftPrefix   string
	rightPrefix  string
	noScore      bool

	jobs       int
	quiet      bool
	out        string
	scratchDir string
	flushAfter int

	configFile string
	logLevel   string
	logFile    string
	logFormat  string
}

func registerJoinFlags(cmd *cobra.Command, f *joinFlags) {
	fs := cmd.Flags()

	fs.StringVar(&f.left, "left", "", "Path to the left input CSV")
	fs.StringVar(&f.right, "right", "", "Path to the right input CSV")
	fs.StringVar(&f.leftKey, "left-key", "", "Key attribute of the left table")
	fs.StringVar(&f.rightKey, "right-key", "", "Key attribute of the right table")
	fs.StringVar(&f.leftJoin, "left-join", "", "Join attribute of the left table")
	fs.StringVar(&f.rightJoin, "right-join", "", "Join attribute of the right table")

	fs.Float64Var(&f.threshold, "threshold", 0, "Similarity threshold in (0, 1]")
	fs.StringVar(&f.compOp, "comp-op", ">=", "Comparison between score and threshold (>=, > or =)")

	fs.StringVar(&f.tokenizer, "tokenizer", "ws", "Tokenizer: ws, qgram, alnum or delim")
	fs.IntVar(&f.qgramSize, "qgram", 2, "Gram length for the qgram tokenizer")
	fs.BoolVar(&f.noPadding, "no-padding", false, "Disable qgram padding")
	fs.StringVar(&f.delims, "delims", ",", "Delimiter characters for the delim tokenizer")

	fs.BoolVar(&f.allowEmpty, "allow-empty", true, "Include pairs whose token sets are both empty")
	fs.BoolVar(&f.allowMissing, "allow-missing", false, "Pair rows with a missing join attribute against every other row")
	fs.StringSliceVar(&f.leftOut, "left-out", nil, "Left attributes to carry into the output")
	fs.StringSliceVar(&f.rightOut, "right-out", nil, "Right attributes to carry into the output")
	fs.StringVar(&f.leftPrefix, "left-prefix", "l_", "Prefix for left-sourced output columns")
	fs.StringVar(&f.rightPrefix, "right-prefix", "r_", "Prefix for right-sourced output columns")
	fs.BoolVar(&f.noScore, "no-score", false, "Omit the similarity score column")

	fs.IntVar(&f.jobs, "jobs", 1, "Parallel jobs; negative means NumCPU+1+jobs")
	fs.BoolVar(&f.quiet, "quiet", false, "Suppress progress log lines")
	fs.StringVar(&f.out, "out", "", "Write the result to this CSV file instead of stdout")
	fs.StringVar(&f.scratchDir, "scratch-dir", "", "Directory for temporary spool files")
	fs.IntVar(&f.flushAfter, "flush-after", 10, "Buffered rows per spool flush")

	fs.StringVar(&f.configFile, "config", "", "Optional config file with flag defaults")
	fs.StringVar(&f.logLevel, "log-level", "INFO", "Log level: DEBUG, INFO, WARN or ERROR")
	fs.StringVar(&f.logFile, "log-file", "", "Log destination file; empty means stderr")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")

}

// checkRequired validates the inputs a run cannot proceed without. They are
// checked after config resolution so a config file can supply them.
func checkRequired(f *joinFlags) error {
	missing := []string{}
	for _, in := range []struct {
		name  string
		value string
	}{
		{"left", f.left}, {"right", f.right},
		{"left-key", f.leftKey}, {"right-key", f.rightKey},
		{"left-join", f.leftJoin}, {"right-join", f.rightJoin},
	} {
		if in.value == "" {
			missing = append(missing, "--"+in.name)
		}
	}
	if f.threshold == 0 {
		missing = append(missing, "--threshold")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

// resolveConfig layers a config file and SIMJOIN_ environment variables
// under the command's flags. Explicitly set flags win; for the rest, any
// value found by viper replaces the flag default.
func resolveConfig(cmd *cobra.Command, f *joinFlags) error {
	v := viper.New()
	v.SetEnvPrefix("SIMJOIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if f.configFile != "" {
		v.SetConfigFile(f.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", f.configFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || !v.IsSet(flag.Name) {
			return
		}
		if err := flag.Value.Set(v.GetString(flag.Name)); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("config value for --%s: %w", flag.Name, err)
		}
	})
	return bindErr
}

func buildTokenizer(f *joinFlags) (tokenize.Tokenizer, error) {
	switch f.tokenizer {
	case "ws", "whitespace":
		return tokenize.NewWhitespace(true), nil
	case "qgram":
		return tokenize.NewQGram(f.qgramSize, !f.noPadding, true), nil
	case "alnum", "alphanumeric":
		return tokenize.NewAlphanumeric(true), nil
	case "delim", "delimiter":
		return tokenize.NewDelimiter(f.delims, true), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q; expected ws, qgram, alnum or delim", f.tokenizer)
	}
}

func buildOptions(f *joinFlags) (*join.Options, error) {
	op, err := similarity.ParseCompOp(f.compOp)
	if err != nil {
		return nil, err
	}

	opts := join.DefaultOptions()
	opts.CompOp = op
	opts.AllowEmpty = f.allowEmpty
	opts.AllowMissing = f.allowMissing
	opts.LOutAttrs = f.leftOut
	opts.ROutAttrs = f.rightOut
	opts.LOutPrefix = f.leftPrefix
	opts.ROutPrefix = f.rightPrefix
	opts.OutSimScore = !f.noScore
	opts.NJobs = f.jobs
	opts.ShowProgress = !f.quiet
	opts.OutputFile = f.out
	opts.ScratchDir = f.scratchDir
	opts.FlushAfter = f.flushAfter
	return opts, nil
}

func runJoin(cmd *cobra.Command, f *joinFlags, measure similarity.Measure) error {
	if err := resolveConfig(cmd, f); err != nil {
		return err
	}
	if err := checkRequired(f); err != nil {
		return err
	}
	if err := logging.Init(logging.Config{
		Level:      logging.LogLevel(strings.ToUpper(f.logLevel)),
		OutputPath: f.logFile,
		Format:     f.logFormat,
	}); err != nil {
		return err
	}

	tk, err := buildTokenizer(f)
	if err != nil {
		return err
	}
	opts, err := buildOptions(f)
	if err != nil {
		return err
	}

	ltable, err := relation.ReadCSV(f.left)
	if err != nil {
		return fmt.Errorf("read left table: %w", err)
	}
	rtable, err := relation.ReadCSV(f.right)
	if err != nil {
		return fmt.Errorf("read right table: %w", err)
	}

	result, err := join.SetSim(ltable, rtable,
		f.leftKey, f.rightKey, f.leftJoin, f.rightJoin,
		tk, measure, f.threshold, opts)
	if err != nil {
		return err
	}

	if opts.OutputFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.OutputFile)
		return nil
	}
	return relation.WriteCSVTo(result, cmd.OutOrStdout())
}

func newJaccardCmd() *cobra.Command {
	f := &joinFlags{}
	cmd := &cobra.Command{
		Use:   "jaccard",
		Short: "Jaccard set-similarity join of two CSV tables",
		Example: `  simjoin jaccard --left a.csv --right b.csv \
    --left-key id --right-key id --left-join name --right-join name \
    --threshold 0.7 --out pairs.csv --jobs -1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, f, similarity.Jaccard)
		},
	}
	registerJoinFlags(cmd, f)
	return cmd
}

func newSetSimCmd() *cobra.Command {
	f := &joinFlags{}
	var measureName string
	cmd := &cobra.Command{
		Use:   "setsim",
		Short: "Set-similarity join with a selectable measure",
		RunE: func(cmd *cobra.Command, args []string) error {
			measure, err := similarity.ParseMeasure(measureName)
			if err != nil {
				return err
			}
			return runJoin(cmd, f, measure)
		},
	}
	registerJoinFlags(cmd, f)
	cmd.Flags().StringVar(&measureName, "measure", "jaccard", "Similarity measure: jaccard, dice or cosine")
	return cmd
}
