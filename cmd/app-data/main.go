// Command app-data produces league tables from DfE apprenticeship data
// exports: starts by provider, region, funding type and month, plus
// current vacancies.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/foundersandcoders/app-data/internal/config"
	"github.com/foundersandcoders/app-data/internal/discover"
	"github.com/foundersandcoders/app-data/internal/records"
	"github.com/foundersandcoders/app-data/internal/render"
	"github.com/foundersandcoders/app-data/internal/report"
	"github.com/foundersandcoders/app-data/internal/watch"
)

var (
	flagFormat  string
	flagConfig  string
	flagVerbose bool

	flagLondonSME bool
)

var rootCmd = &cobra.Command{
	Use:   "app-data",
	Short: "League tables from DfE apprenticeship data",
	Long: `app-data turns the DfE apprenticeship CSV exports into compact
league tables: a dimension (provider, region, funding type, standard,
month) on rows and academic years on columns, with the most recent year
broken down into quarters where the data supports it.

Input files are found automatically in the working directory and in
apprenticeships_*/supporting-files/ folders, newest first; pass an
explicit file to override.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, discover.ErrNotFound) {
			fmt.Fprintln(os.Stderr, "Error: no matching data files found in apprenticeships_* folders")
			fmt.Fprintln(os.Stderr, "Please ensure you have downloaded apprenticeship data from the DfE website")
		} else if errors.Is(err, records.ErrBadContent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintln(os.Stderr, "The data file could not be parsed; re-download it and try again")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "markdown",
		"output format: markdown, csv, tsv or table")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	startsCmd.Flags().BoolVar(&flagLondonSME, "london-sme", false,
		"restrict to London SME employers")

	rootCmd.AddCommand(startsCmd, regionsCmd, fundingCmd, combinedCmd,
		monthlyCmd, providerCmd, londonSMECmd, vacanciesCmd, watchCmd)
}

var startsCmd = &cobra.Command{
	Use:   "starts [standard_code] [input_file]",
	Short: "Starts by provider and year",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.Starts, args, true)
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions [standard_code] [input_file]",
	Short: "Starts by learner home region and year",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.Regions, args, true)
	},
}

var fundingCmd = &cobra.Command{
	Use:   "funding [standard_code] [input_file]",
	Short: "Starts by employer size (funding type) and year",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.Funding, args, true)
	},
}

var combinedCmd = &cobra.Command{
	Use:   "combined [standard_code] [input_file]",
	Short: "Starts by major region and employer size",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.Combined, args, true)
	},
}

var monthlyCmd = &cobra.Command{
	Use:   "monthly [standard_code] [input_file]",
	Short: "Starts by calendar month and year",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.Monthly, args, true)
	},
}

var providerCmd = &cobra.Command{
	Use:   "provider [provider_name] [input_file]",
	Short: "One provider's starts by standard and year",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, req, err := buildRun()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			req.Provider = args[0]
		}
		if len(args) > 1 {
			req.InputFile = args[1]
		}
		return report.Provider(env, req, os.Stdout)
	},
}

var londonSMECmd = &cobra.Command{
	Use:   "london-sme [standard_code] [input_file]",
	Short: "London SME starts by provider, with manual corrections",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(report.LondonSME, args, true)
	},
}

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies [input_file]",
	Short: "Currently advertised Software Developer vacancies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, req, err := buildRun()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			req.InputFile = args[0]
		}
		return report.Vacancies(env, req, os.Stdout)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate configured reports whenever data files change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, _, err := buildRun()
		if err != nil {
			return err
		}
		if !flagVerbose {
			log, err := newLogger(false, zapcore.InfoLevel)
			if err != nil {
				return err
			}
			env.Log = log
		}
		err = watch.New(env).Run(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func runReport(run report.Runner, args []string, takesStandard bool) error {
	env, req, err := buildRun()
	if err != nil {
		return err
	}
	applyPositionals(&req, args, takesStandard)
	req.LondonSME = flagLondonSME
	return run(env, req, os.Stdout)
}

// applyPositionals follows the long-standing argument convention: a
// first argument shaped like a standard code (ST....) selects the
// standard, anything else is an input file.
func applyPositionals(req *report.Request, args []string, takesStandard bool) {
	if len(args) == 0 {
		return
	}
	if takesStandard && looksLikeStandardCode(args[0]) {
		req.StandardCode = args[0]
		if len(args) > 1 {
			req.InputFile = args[1]
		}
		return
	}
	req.InputFile = args[0]
}

func looksLikeStandardCode(arg string) bool {
	return strings.HasPrefix(strings.ToUpper(arg), "ST") && len(arg) >= 5
}

func buildRun() (report.Env, report.Request, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return report.Env{}, report.Request{}, err
	}
	format, err := render.ParseFormat(flagFormat)
	if err != nil {
		return report.Env{}, report.Request{}, err
	}
	log, err := newLogger(flagVerbose, zapcore.WarnLevel)
	if err != nil {
		return report.Env{}, report.Request{}, err
	}
	env := report.Env{Config: cfg, Log: log}
	return env, report.Request{Format: format}, nil
}

// newLogger writes diagnostics to stderr so tables on stdout stay
// machine-readable.
func newLogger(verbose bool, base zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(base)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
