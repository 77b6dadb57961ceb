package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"goexp/adapters/excel"
	"goexp/domain/core"
	"goexp/domain/experiment"
	"goexp/internal/report"
)

// SheetOutcome is the evaluation of one workbook sheet. Err is set instead of
// the results when the sheet could not be parsed or analyzed.
type SheetOutcome struct {
	Sheet  string
	Kind   excel.SheetKind
	Family experiment.MetricFamily
	Arms   int

	Rate      *experiment.MultiVariantResults[experiment.RateArm]
	Magnitude *experiment.MultiVariantResults[experiment.MagnitudeArm]
	Summary   string
	Err       error
}

// Significant reports whether the sheet's omnibus test reached significance
func (o *SheetOutcome) Significant() bool {
	switch {
	case o.Rate != nil:
		return o.Rate.IsSignificant
	case o.Magnitude != nil:
		return o.Magnitude.IsSignificant
	}
	return false
}

// WorkbookReport collects the outcomes of a batch in sheet order
type WorkbookReport struct {
	BatchID    core.BatchID
	Path       string
	Confidence float64
	Correction experiment.Correction
	Sheets     []SheetOutcome
	Succeeded  int
	Failed     int
	Elapsed    time.Duration
}

// EvaluateWorkbook analyzes every sheet of an xlsx or csv file as its own
// experiment. Sheets run concurrently up to the configured limit; a bad
// sheet is recorded on its outcome and never aborts the batch. Only
// file-level failures and cancellation are returned as errors.
func (s *ExperimentService) EvaluateWorkbook(ctx context.Context, path string, confidence float64, correction experiment.Correction) (*WorkbookReport, error) {
	start := time.Now()
	batch := core.NewBatchID()
	log := s.log.WithFields(logrus.Fields{"batch_id": batch.String(), "file": path})

	sheets, err := excel.NewDataReader(path).WithLogger(log).ReadSheets()
	if err != nil {
		log.WithError(err).Warn("workbook unreadable")
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	parser := excel.NewSheetParser(nil)
	outcomes := make([]SheetOutcome, len(sheets))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workbookConcurrency)
	for i, sheet := range sheets {
		i, sheet := i, sheet
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.evaluateSheet(gctx, parser, sheet, confidence, correction)
			if outcomes[i].Err != nil {
				failed.Add(1)
				log.WithFields(logrus.Fields{"sheet": sheet.Name, "error": outcomes[i].Err.Error()}).Info("sheet skipped")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &WorkbookReport{
		BatchID:    batch,
		Path:       path,
		Confidence: confidence,
		Correction: correction,
		Sheets:     outcomes,
		Failed:     int(failed.Load()),
		Elapsed:    time.Since(start),
	}
	rep.Succeeded = len(outcomes) - rep.Failed

	s.metrics.ObserveWorkbookSheets("ok", rep.Succeeded)
	s.metrics.ObserveWorkbookSheets("failed", rep.Failed)
	log.WithFields(logrus.Fields{
		"sheets":    len(outcomes),
		"failed":    rep.Failed,
		"elapsed_s": rep.Elapsed.Seconds(),
	}).Info("workbook evaluated")
	return rep, nil
}

func (s *ExperimentService) evaluateSheet(ctx context.Context, parser *excel.SheetParser, sheet *excel.SheetData, confidence float64, correction experiment.Correction) SheetOutcome {
	out := SheetOutcome{Sheet: sheet.Name}

	parsed, err := parser.Parse(sheet)
	if err != nil {
		out.Err = err
		return out
	}
	out.Kind = parsed.Kind
	out.Family = parsed.Family()
	out.Arms = parsed.ArmCount()

	opts := report.Options{TestName: sheet.Name}
	if out.Family == experiment.FamilyMagnitude {
		res, err := s.AnalyzeMagnitudesMulti(ctx, parsed.MagnitudeArms, confidence, correction)
		if err != nil {
			out.Err = err
			return out
		}
		out.Magnitude = res
		out.Summary = report.MagnitudeMultiSummary(res, opts)
		return out
	}

	res, err := s.AnalyzeRatesMulti(ctx, parsed.RateArms, confidence, correction)
	if err != nil {
		out.Err = err
		return out
	}
	out.Rate = res
	out.Summary = report.RateMultiSummary(res, opts)
	return out
}

// ResultTables lays a report out as two sheets: one row per experiment, and
// one row per pairwise comparison.
func ResultTables(rep *WorkbookReport) []excel.Table {
	overview := excel.Table{
		Name: "overview",
		Headers: []string{"sheet", "family", "arms", "statistic", "df", "p_value", "significant",
			"best_variant", "worst_variant", "error"},
	}
	pairwise := excel.Table{
		Name: "pairwise",
		Headers: []string{"sheet", "variant_a", "variant_b", "estimate_a", "estimate_b", "lift_percent",
			"p_value", "p_value_adjusted", "significant", "ci_lower", "ci_upper"},
	}

	for _, o := range rep.Sheets {
		if o.Err != nil {
			overview.Rows = append(overview.Rows, []any{o.Sheet, string(o.Family), o.Arms, "", "", "", false, "", "", o.Err.Error()})
			continue
		}

		var stat, p float64
		var df int
		var best, worst string
		var pairs []experiment.PairwiseComparison
		switch {
		case o.Rate != nil:
			stat, df, p, best, worst, pairs = o.Rate.Statistic, o.Rate.DegreesOfFreedom, o.Rate.PValue, o.Rate.BestArm, o.Rate.WorstArm, o.Rate.Pairwise
		case o.Magnitude != nil:
			stat, df, p, best, worst, pairs = o.Magnitude.Statistic, o.Magnitude.DegreesOfFreedom, o.Magnitude.PValue, o.Magnitude.BestArm, o.Magnitude.WorstArm, o.Magnitude.Pairwise
		}
		overview.Rows = append(overview.Rows, []any{o.Sheet, string(o.Family), o.Arms, stat, df, p, o.Significant(), best, worst, ""})

		for _, pc := range pairs {
			pairwise.Rows = append(pairwise.Rows, []any{o.Sheet, pc.ArmA, pc.ArmB, pc.EstimateA, pc.EstimateB, pc.LiftPercent,
				pc.PValue, pc.PValueAdjusted, pc.IsSignificant, pc.CILower, pc.CIUpper})
		}
	}
	return []excel.Table{overview, pairwise}
}

// WriteWorkbookReport saves ResultTables to an xlsx file
func WriteWorkbookReport(path string, rep *WorkbookReport) error {
	return excel.WriteWorkbook(path, ResultTables(rep))
}
