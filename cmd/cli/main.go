package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"goexp/app"
	"goexp/domain/experiment"
	"goexp/internal"
	"goexp/internal/analysis/effect"
	"goexp/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	metric     string
	confidence float64
	asJSON     bool
	logLevel   string
	testName   string
	metricName string
	currency   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "goexp-cli",
		Short:         "A/B test planning and significance testing from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.metric, "metric", string(experiment.FamilyRate), "Metric family: rate or magnitude")
	pf.Float64Var(&opts.confidence, "confidence", 95, "Confidence level in percent")
	pf.BoolVar(&opts.asJSON, "json", false, "Print raw results as JSON instead of a Markdown summary")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	pf.StringVar(&opts.testName, "test-name", "", "Title used in summaries")
	pf.StringVar(&opts.metricName, "metric-name", "", "Metric label used in magnitude summaries")
	pf.StringVar(&opts.currency, "currency", "", "Currency symbol used in magnitude summaries")

	rootCmd.AddCommand(
		newSampleSizeCmd(opts),
		newAnalyzeCmd(opts),
		newAnalyzeMultiCmd(opts),
		newIntervalCmd(opts),
		newWorkbookCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) family() (experiment.MetricFamily, error) {
	switch f := experiment.MetricFamily(strings.ToLower(o.metric)); f {
	case experiment.FamilyRate, experiment.FamilyMagnitude:
		return f, nil
	default:
		return "", fmt.Errorf("unknown metric %q (want rate or magnitude)", o.metric)
	}
}

func (o *rootOptions) service(cmd *cobra.Command, concurrency int) *app.ExperimentService {
	return app.NewExperimentService(internal.NewLogger(o.logLevel, "text", cmd.ErrOrStderr()), nil, concurrency)
}

func (o *rootOptions) reportOptions() report.Options {
	return report.Options{TestName: o.testName, MetricName: o.metricName, Currency: o.currency}
}

// emit prints v as indented JSON under --json, otherwise the Markdown text
func (o *rootOptions) emit(cmd *cobra.Command, v any, md string) error {
	if o.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), md)
	return err
}

func newSampleSizeCmd(opts *rootOptions) *cobra.Command {
	var baseline, std, lift, power float64
	var variants, daily int

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Visitors needed per variant to detect a given lift",
		Long: `Compute the per-variant sample size for a planned test.

Examples:
  goexp-cli sample-size --baseline 0.05 --lift 10 --daily-visitors 1000
  goexp-cli sample-size --metric magnitude --baseline 50 --std 15 --variants 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := opts.family()
			if err != nil {
				return err
			}
			var dailyVisitors *int
			if cmd.Flags().Changed("daily-visitors") {
				dailyVisitors = &daily
			}
			svc := opts.service(cmd, 1)

			var plan *experiment.SampleSizePlan
			if family == experiment.FamilyMagnitude {
				if !cmd.Flags().Changed("lift") {
					lift = 5
				}
				plan, err = svc.PlanMagnitudes(cmd.Context(), effect.MagnitudeSampleSizeInput{
					BaselineMean:      baseline,
					StandardDeviation: std,
					LiftPercent:       lift,
					Confidence:        opts.confidence,
					Power:             power,
					NumVariants:       variants,
				}, dailyVisitors)
			} else {
				plan, err = svc.PlanRates(cmd.Context(), effect.RateSampleSizeInput{
					BaselineRate: baseline,
					LiftPercent:  lift,
					Confidence:   opts.confidence,
					Power:        power,
					NumVariants:  variants,
				}, dailyVisitors)
			}
			if err != nil {
				return err
			}
			return opts.emit(cmd, plan, report.PlanSummary(plan, opts.reportOptions()))
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "Current conversion rate (rate) or mean (magnitude)")
	cmd.Flags().Float64Var(&std, "std", 0, "Standard deviation of the metric (magnitude only)")
	cmd.Flags().Float64Var(&lift, "lift", 10, "Minimum detectable lift in percent (magnitude default 5)")
	cmd.Flags().Float64Var(&power, "power", 80, "Statistical power in percent")
	cmd.Flags().IntVar(&variants, "variants", 2, "Number of arms including control")
	cmd.Flags().IntVar(&daily, "daily-visitors", 0, "Daily traffic across all arms, enables a duration estimate")
	_ = cmd.MarkFlagRequired("baseline")

	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [control] [variant]",
		Short: "Two-arm significance test",
		Long: `Compare a variant against control.

Arms are written name:visitors:conversions for rates and
name:visitors:mean:std for magnitudes.

Examples:
  goexp-cli analyze control:10000:500 variant:10000:600
  goexp-cli analyze --metric magnitude control:500:50:15 variant:500:55:15`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := opts.family()
			if err != nil {
				return err
			}
			svc := opts.service(cmd, 1)

			if family == experiment.FamilyMagnitude {
				arms, err := parseArms(args, parseMagnitudeArm)
				if err != nil {
					return err
				}
				res, err := svc.AnalyzeMagnitudes(cmd.Context(), arms[0], arms[1], opts.confidence)
				if err != nil {
					return err
				}
				return opts.emit(cmd, res, report.MagnitudeSummary(res, opts.reportOptions()))
			}

			arms, err := parseArms(args, parseRateArm)
			if err != nil {
				return err
			}
			res, err := svc.AnalyzeRates(cmd.Context(), arms[0], arms[1], opts.confidence)
			if err != nil {
				return err
			}
			return opts.emit(cmd, res, report.RateSummary(res, opts.reportOptions()))
		},
	}
	return cmd
}

func newAnalyzeMultiCmd(opts *rootOptions) *cobra.Command {
	var correction string

	cmd := &cobra.Command{
		Use:   "analyze-multi [arm] [arm] [arm...]",
		Short: "Omnibus test across two or more arms with pairwise follow-ups",
		Long: `Run a chi-square (rates) or ANOVA (magnitudes) omnibus test plus every
pairwise comparison, adjusted with the chosen correction.

Example: goexp-cli analyze-multi control:10000:500 a:10000:550 b:10000:600 --correction bonferroni`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := opts.family()
			if err != nil {
				return err
			}
			corr, err := experiment.ParseCorrection(correction)
			if err != nil {
				return err
			}
			svc := opts.service(cmd, 1)

			if family == experiment.FamilyMagnitude {
				arms, err := parseArms(args, parseMagnitudeArm)
				if err != nil {
					return err
				}
				res, err := svc.AnalyzeMagnitudesMulti(cmd.Context(), arms, opts.confidence, corr)
				if err != nil {
					return err
				}
				return opts.emit(cmd, res, report.MagnitudeMultiSummary(res, opts.reportOptions()))
			}

			arms, err := parseArms(args, parseRateArm)
			if err != nil {
				return err
			}
			res, err := svc.AnalyzeRatesMulti(cmd.Context(), arms, opts.confidence, corr)
			if err != nil {
				return err
			}
			return opts.emit(cmd, res, report.RateMultiSummary(res, opts.reportOptions()))
		},
	}

	cmd.Flags().StringVar(&correction, "correction", string(experiment.CorrectionBonferroni), "Multiple-comparison correction: bonferroni or none")
	return cmd
}

func newIntervalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interval [arm]",
		Short: "Confidence interval for a single arm",
		Long: `Wilson score interval for a rate arm, or a t-interval around a magnitude arm's mean.

Example: goexp-cli interval control:1000:50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := opts.family()
			if err != nil {
				return err
			}
			svc := opts.service(cmd, 1)

			var ci *experiment.ConfidenceInterval
			var name string
			if family == experiment.FamilyMagnitude {
				arm, err := parseMagnitudeArm(args[0])
				if err != nil {
					return err
				}
				name = arm.Name
				ci, err = svc.MagnitudeInterval(cmd.Context(), arm.Visitors, arm.Mean, arm.Std, opts.confidence)
				if err != nil {
					return err
				}
			} else {
				arm, err := parseRateArm(args[0])
				if err != nil {
					return err
				}
				name = arm.Name
				ci, err = svc.RateInterval(cmd.Context(), arm.Visitors, arm.Conversions, opts.confidence)
				if err != nil {
					return err
				}
			}

			line := fmt.Sprintf("%s: %.6g [%.6g, %.6g] at %g%% confidence (margin %.6g)",
				name, ci.PointEstimate, ci.Lower, ci.Upper, ci.Confidence, ci.MarginOfError)
			return opts.emit(cmd, ci, line)
		},
	}
	return cmd
}

func newWorkbookCmd(opts *rootOptions) *cobra.Command {
	var correction, out, summary string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "workbook [file]",
		Short: "Evaluate every sheet of an xlsx or csv file as its own experiment",
		Long: `Each sheet holds one experiment: one row per arm with visitors and
conversions (or mean and std), or one row per observation. Every sheet is
analyzed as a multi-arm test; sheets that cannot be parsed are reported
and skipped.

Example: goexp-cli workbook experiments.xlsx --out results.xlsx --summary report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corr, err := experiment.ParseCorrection(correction)
			if err != nil {
				return err
			}
			svc := opts.service(cmd, concurrency)

			rep, err := svc.EvaluateWorkbook(cmd.Context(), args[0], opts.confidence, corr)
			if err != nil {
				return err
			}

			if out != "" {
				if err := app.WriteWorkbookReport(out, rep); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
			}

			md := workbookMarkdown(rep)
			if summary != "" {
				text := md
				if strings.EqualFold(filepath.Ext(summary), ".html") {
					text = report.ToHTML(md)
				}
				if err := os.WriteFile(summary, []byte(text), 0o644); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
			}

			if opts.asJSON {
				return opts.emit(cmd, app.ResultTables(rep), "")
			}
			fmt.Fprintln(cmd.OutOrStdout(), md)
			fmt.Fprintf(cmd.OutOrStdout(), "%d sheet(s) evaluated, %d skipped in %s\n", rep.Succeeded, rep.Failed, rep.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&correction, "correction", string(experiment.CorrectionBonferroni), "Multiple-comparison correction: bonferroni or none")
	cmd.Flags().StringVar(&out, "out", "", "Write overview and pairwise tables to this xlsx file")
	cmd.Flags().StringVar(&summary, "summary", "", "Write the combined summary to this file (.md or .html)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Sheets evaluated in parallel")
	return cmd
}

func workbookMarkdown(rep *app.WorkbookReport) string {
	var b strings.Builder
	for _, o := range rep.Sheets {
		if o.Err != nil {
			fmt.Fprintf(&b, "## %s\n\nSkipped: %v\n\n", o.Sheet, o.Err)
			continue
		}
		b.WriteString(o.Summary)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
