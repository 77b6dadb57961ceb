package experiment

import (
	"math"
	"strings"

	"goexp/domain/core"
)

// MetricFamily names the statistical model an arm is analyzed under.
type MetricFamily string

const (
	FamilyRate      MetricFamily = "rate"      // binomial proportions, e.g. conversion rate
	FamilyMagnitude MetricFamily = "magnitude" // continuous values summarized by mean and std
)

// Arm is a named treatment group of either family.
type Arm interface {
	ArmName() string
	SampleSize() int
}

// RateArm is a binomial arm: visitors and how many of them converted.
type RateArm struct {
	Name        string `json:"name"`
	Visitors    int    `json:"visitors"`
	Conversions int    `json:"conversions"`
}

func (a RateArm) ArmName() string { return a.Name }
func (a RateArm) SampleSize() int { return a.Visitors }

// Rate returns conversions/visitors, or 0 when the arm has no visitors.
func (a RateArm) Rate() float64 {
	if a.Visitors <= 0 {
		return 0
	}
	return float64(a.Conversions) / float64(a.Visitors)
}

// Validate rejects impossible counts.
func (a RateArm) Validate() error {
	if a.Visitors <= 0 {
		return core.NewValidationError(core.ErrNonPositiveVisitors, "visitors", a.Visitors)
	}
	if a.Conversions < 0 {
		return core.NewValidationError(core.ErrNegativeConversions, "conversions", a.Conversions)
	}
	if a.Conversions > a.Visitors {
		return core.NewValidationError(core.ErrConversionsExceedVisitors, "conversions", a.Conversions)
	}
	return nil
}

// MagnitudeArm is a continuous-metric arm given as summary statistics.
// The engine never sees per-observation values.
type MagnitudeArm struct {
	Name     string  `json:"name"`
	Visitors int     `json:"visitors"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
}

func (a MagnitudeArm) ArmName() string { return a.Name }
func (a MagnitudeArm) SampleSize() int { return a.Visitors }

// Variance returns std².
func (a MagnitudeArm) Variance() float64 { return a.Std * a.Std }

// Validate rejects non-positive sizes, negative spread and non-finite
// summary statistics.
func (a MagnitudeArm) Validate() error {
	if a.Visitors <= 0 {
		return core.NewValidationError(core.ErrNonPositiveVisitors, "visitors", a.Visitors)
	}
	if math.IsNaN(a.Mean) || math.IsInf(a.Mean, 0) {
		return core.NewValidationError(core.ErrNonFiniteValue, "mean", a.Mean)
	}
	if math.IsNaN(a.Std) || math.IsInf(a.Std, 0) {
		return core.NewValidationError(core.ErrNonFiniteValue, "std", a.Std)
	}
	if a.Std < 0 {
		return core.NewValidationError(core.ErrNegativeStd, "std", a.Std)
	}
	return nil
}

// Winner is the two-arm verdict. WinnerNone is an explicit state, never empty.
type Winner string

const (
	WinnerControl Winner = "control"
	WinnerVariant Winner = "variant"
	WinnerNone    Winner = "no winner yet"
)

// Correction is the multiple-comparison policy applied to pairwise p-values.
type Correction string

const (
	CorrectionBonferroni Correction = "bonferroni"
	CorrectionNone       Correction = "none"
)

// ParseCorrection accepts "bonferroni" or "none" (case-insensitive). Empty means bonferroni.
func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CorrectionBonferroni):
		return CorrectionBonferroni, nil
	case string(CorrectionNone):
		return CorrectionNone, nil
	default:
		return "", core.NewValidationError(core.ErrUnknownCorrection, "correction", s)
	}
}

// SampleSizePlan is the output of planning. Baseline/Expected are rates for the
// rate family and means for the magnitude family.
type SampleSizePlan struct {
	Family             MetricFamily `json:"family"`
	VisitorsPerVariant int          `json:"visitors_per_variant"`
	TotalVisitors      int          `json:"total_visitors"`
	NumVariants        int          `json:"num_variants"`
	Baseline           float64      `json:"baseline"`
	Expected           float64      `json:"expected"`
	StandardDeviation  float64      `json:"standard_deviation,omitempty"`
	LiftPercent        float64      `json:"lift_percent"`
	Confidence         float64      `json:"confidence"`
	Power              float64      `json:"power"`
	TestDurationDays   *int         `json:"test_duration_days,omitempty"`
}

// WithDailyTraffic returns a copy of the plan with TestDurationDays set to
// ceil(total/daily). The receiver is left untouched.
func (p SampleSizePlan) WithDailyTraffic(dailyVisitors int) (SampleSizePlan, error) {
	if dailyVisitors <= 0 {
		return p, core.NewValidationError(core.ErrNonPositiveDailyTraffic, "daily_visitors", dailyVisitors)
	}
	days := int(math.Ceil(float64(p.TotalVisitors) / float64(dailyVisitors)))
	p.TestDurationDays = &days
	return p, nil
}

// PairwiseComparison compares ArmB against ArmA (lift is B relative to A).
type PairwiseComparison struct {
	ArmA           string  `json:"variant_a"`
	ArmB           string  `json:"variant_b"`
	EstimateA      float64 `json:"estimate_a"`
	EstimateB      float64 `json:"estimate_b"`
	LiftAbsolute   float64 `json:"lift_absolute"`
	LiftPercent    float64 `json:"lift_percent"`
	Statistic      float64 `json:"statistic"`
	PValue         float64 `json:"p_value"`
	PValueAdjusted float64 `json:"p_value_adjusted"`
	IsSignificant  bool    `json:"is_significant"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
}

// TestResults is the two-arm outcome. Statistic is z for rates and t for
// magnitudes; DegreesOfFreedom is the Welch–Satterthwaite value (0 for z).
type TestResults[A Arm] struct {
	Control          A       `json:"control"`
	Variant          A       `json:"variant"`
	ControlEstimate  float64 `json:"control_estimate"`
	VariantEstimate  float64 `json:"variant_estimate"`
	LiftPercent      float64 `json:"lift_percent"`
	LiftAbsolute     float64 `json:"lift_absolute"`
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	IsSignificant    bool    `json:"is_significant"`
	Confidence       float64 `json:"confidence"`
	CILower          float64 `json:"ci_lower"`
	CIUpper          float64 `json:"ci_upper"`
	Winner           Winner  `json:"winner"`
}

// MultiVariantResults is the k-arm outcome: an omnibus statistic (chi-square
// or F) plus every unordered pairwise comparison. The two are computed
// independently and are allowed to disagree.
type MultiVariantResults[A Arm] struct {
	Arms             []A                  `json:"variants"`
	Statistic        float64              `json:"test_statistic"`
	DegreesOfFreedom int                  `json:"degrees_of_freedom"`
	DFWithin         int                  `json:"df_within,omitempty"`
	PValue           float64              `json:"p_value"`
	IsSignificant    bool                 `json:"is_significant"`
	Confidence       float64              `json:"confidence"`
	Correction       Correction           `json:"correction"`
	BestArm          string               `json:"best_variant"`
	WorstArm         string               `json:"worst_variant"`
	Pairwise         []PairwiseComparison `json:"pairwise_comparisons"`
}

// SignificantPairs returns the comparisons flagged significant, in order.
func (r *MultiVariantResults[A]) SignificantPairs() []PairwiseComparison {
	var out []PairwiseComparison
	for _, p := range r.Pairwise {
		if p.IsSignificant {
			out = append(out, p)
		}
	}
	return out
}

// ConfidenceInterval is an interval around a single arm's rate or mean.
type ConfidenceInterval struct {
	PointEstimate float64 `json:"point_estimate"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Confidence    float64 `json:"confidence"`
	MarginOfError float64 `json:"margin_of_error"`
}
