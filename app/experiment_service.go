package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"goexp/domain/core"
	"goexp/domain/experiment"
	"goexp/internal/analysis/effect"
	"goexp/internal/errors"
	"goexp/internal/metrics"
)

// Analysis kinds used as metric labels
const (
	KindPlan     = "plan"
	KindTwoArm   = "two_arm"
	KindMultiArm = "multi_arm"
	KindInterval = "interval"
)

// ExperimentService runs the statistics engines on behalf of the API, CLI and
// workbook batch paths. It adds logging, metrics and error classification;
// every number comes from the effect package unchanged.
type ExperimentService struct {
	log                 logrus.FieldLogger
	metrics             metrics.Metrics
	workbookConcurrency int
}

// NewExperimentService wires the service. A nil collector disables metrics.
func NewExperimentService(logger logrus.FieldLogger, m metrics.Metrics, workbookConcurrency int) *ExperimentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if m == nil {
		m = (*metrics.Collector)(nil)
	}
	if workbookConcurrency < 1 {
		workbookConcurrency = 1
	}
	return &ExperimentService{log: logger, metrics: m, workbookConcurrency: workbookConcurrency}
}

// PlanRates sizes a rate-family test. A non-nil dailyVisitors adds a duration estimate.
func (s *ExperimentService) PlanRates(ctx context.Context, in effect.RateSampleSizeInput, dailyVisitors *int) (*experiment.SampleSizePlan, error) {
	plan, err := effect.RateSampleSize(in)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyRate, KindPlan, err)
	}
	return s.finishPlan(ctx, plan, dailyVisitors)
}

// PlanMagnitudes sizes a magnitude-family test.
func (s *ExperimentService) PlanMagnitudes(ctx context.Context, in effect.MagnitudeSampleSizeInput, dailyVisitors *int) (*experiment.SampleSizePlan, error) {
	plan, err := effect.MagnitudeSampleSize(in)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyMagnitude, KindPlan, err)
	}
	return s.finishPlan(ctx, plan, dailyVisitors)
}

func (s *ExperimentService) finishPlan(ctx context.Context, plan *experiment.SampleSizePlan, dailyVisitors *int) (*experiment.SampleSizePlan, error) {
	if dailyVisitors != nil {
		withDays, err := plan.WithDailyTraffic(*dailyVisitors)
		if err != nil {
			return nil, s.fail(ctx, plan.Family, KindPlan, err)
		}
		plan = &withDays
	}

	s.done(ctx, plan.Family, KindPlan, false, logrus.Fields{
		"visitors_per_variant": plan.VisitorsPerVariant,
		"num_variants":         plan.NumVariants,
	})
	return plan, nil
}

// AnalyzeRates runs the two-arm z-test.
func (s *ExperimentService) AnalyzeRates(ctx context.Context, control, variant experiment.RateArm, confidence float64) (*experiment.TestResults[experiment.RateArm], error) {
	res, err := effect.AnalyzeRates(control, variant, confidence)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyRate, KindTwoArm, err)
	}
	s.done(ctx, experiment.FamilyRate, KindTwoArm, res.IsSignificant, logrus.Fields{"p_value": res.PValue, "winner": res.Winner})
	return res, nil
}

// AnalyzeMagnitudes runs the two-arm Welch t-test.
func (s *ExperimentService) AnalyzeMagnitudes(ctx context.Context, control, variant experiment.MagnitudeArm, confidence float64) (*experiment.TestResults[experiment.MagnitudeArm], error) {
	res, err := effect.AnalyzeMagnitudes(control, variant, confidence)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyMagnitude, KindTwoArm, err)
	}
	s.done(ctx, experiment.FamilyMagnitude, KindTwoArm, res.IsSignificant, logrus.Fields{"p_value": res.PValue, "winner": res.Winner})
	return res, nil
}

// AnalyzeRatesMulti runs the chi-square omnibus plus corrected pairwise z-tests.
func (s *ExperimentService) AnalyzeRatesMulti(ctx context.Context, arms []experiment.RateArm, confidence float64, correction experiment.Correction) (*experiment.MultiVariantResults[experiment.RateArm], error) {
	res, err := effect.AnalyzeRatesMulti(arms, confidence, correction)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyRate, KindMultiArm, err)
	}
	s.done(ctx, experiment.FamilyRate, KindMultiArm, res.IsSignificant, multiFields(res.PValue, res.BestArm, len(res.Arms), len(res.SignificantPairs())))
	return res, nil
}

// AnalyzeMagnitudesMulti runs the ANOVA omnibus plus corrected pairwise t-tests.
func (s *ExperimentService) AnalyzeMagnitudesMulti(ctx context.Context, arms []experiment.MagnitudeArm, confidence float64, correction experiment.Correction) (*experiment.MultiVariantResults[experiment.MagnitudeArm], error) {
	res, err := effect.AnalyzeMagnitudesMulti(arms, confidence, correction)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyMagnitude, KindMultiArm, err)
	}
	s.done(ctx, experiment.FamilyMagnitude, KindMultiArm, res.IsSignificant, multiFields(res.PValue, res.BestArm, len(res.Arms), len(res.SignificantPairs())))
	return res, nil
}

// RateInterval returns the Wilson score interval for one arm.
func (s *ExperimentService) RateInterval(ctx context.Context, visitors, conversions int, confidence float64) (*experiment.ConfidenceInterval, error) {
	ci, err := effect.RateInterval(visitors, conversions, confidence)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyRate, KindInterval, err)
	}
	s.done(ctx, experiment.FamilyRate, KindInterval, false, nil)
	return ci, nil
}

// MagnitudeInterval returns the t-interval around one arm's mean.
func (s *ExperimentService) MagnitudeInterval(ctx context.Context, visitors int, mean, std, confidence float64) (*experiment.ConfidenceInterval, error) {
	ci, err := effect.MagnitudeInterval(visitors, mean, std, confidence)
	if err != nil {
		return nil, s.fail(ctx, experiment.FamilyMagnitude, KindInterval, err)
	}
	s.done(ctx, experiment.FamilyMagnitude, KindInterval, false, nil)
	return ci, nil
}

func multiFields(pValue float64, best string, arms, significantPairs int) logrus.Fields {
	return logrus.Fields{"p_value": pValue, "best_variant": best, "arms": arms, "significant_pairs": significantPairs}
}

func (s *ExperimentService) entry(ctx context.Context, family experiment.MetricFamily, kind string) *logrus.Entry {
	e := s.log.WithFields(logrus.Fields{"family": family, "kind": kind})
	if id, ok := RequestIDFrom(ctx); ok {
		e = e.WithField("request_id", id.String())
	}
	return e
}

func (s *ExperimentService) done(ctx context.Context, family experiment.MetricFamily, kind string, significant bool, fields logrus.Fields) {
	s.metrics.IncrementAnalyses(string(family), kind)
	if significant {
		s.metrics.IncrementSignificant(string(family), kind)
	}
	s.entry(ctx, family, kind).WithFields(fields).Debug("analysis complete")
}

// fail classifies err as an AppError. Input rejections are expected traffic
// and log at info; anything else is an internal failure.
func (s *ExperimentService) fail(ctx context.Context, family experiment.MetricFamily, kind string, err error) error {
	appErr := errors.FromDomain(err)
	e := s.entry(ctx, family, kind).WithField("error", err.Error())
	if core.IsValidationError(err) {
		s.metrics.IncrementValidationErrors(string(family))
		e.Info("input rejected")
	} else {
		e.Error("analysis failed")
	}
	return appErr
}
