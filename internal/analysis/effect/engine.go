package effect

import (
	"math"
	"sort"

	"goexp/domain/core"
	"goexp/domain/experiment"
)

// Engine runs pairwise, two-arm and multi-arm analyses for one metric family.
// It holds no mutable state and is safe for concurrent use.
type Engine[A experiment.Arm] struct {
	family Family[A]
	dist   *Distributions
}

// NewEngine creates an engine over the given family.
func NewEngine[A experiment.Arm](family Family[A]) *Engine[A] {
	return &Engine[A]{family: family, dist: NewDistributions()}
}

// Family returns the metric family this engine analyzes.
func (e *Engine[A]) Family() experiment.MetricFamily {
	return e.family.Kind()
}

// Compare tests b against a. Arms must already be validated.
func (e *Engine[A]) Compare(a, b A, confidence float64) experiment.PairwiseComparison {
	estA := e.family.Estimate(a)
	estB := e.family.Estimate(b)
	delta := estB - estA
	alpha := alphaFor(confidence)

	df := e.family.DegreesOfFreedom(a, b)

	// se == 0 is an explicit branch: identical degenerate arms carry no evidence.
	statistic, pValue := 0.0, 1.0
	if se := e.family.TestError(a, b); se > 0 {
		statistic = delta / se
		pValue = e.dist.TwoSidedPValue(statistic, df)
	}

	margin := e.dist.CriticalValue(alpha, df) * e.family.IntervalError(a, b)

	return experiment.PairwiseComparison{
		ArmA:           a.ArmName(),
		ArmB:           b.ArmName(),
		EstimateA:      estA,
		EstimateB:      estB,
		LiftAbsolute:   delta,
		LiftPercent:    liftPercent(estA, estB),
		Statistic:      statistic,
		PValue:         pValue,
		PValueAdjusted: pValue,
		IsSignificant:  pValue < alpha,
		CILower:        delta - margin,
		CIUpper:        delta + margin,
	}
}

// Analyze compares a variant against a control and names a winner.
func (e *Engine[A]) Analyze(control, variant A, confidence float64) (*experiment.TestResults[A], error) {
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}
	if err := e.family.Validate(control); err != nil {
		return nil, core.NewVariantError(err, control.ArmName())
	}
	if err := e.family.Validate(variant); err != nil {
		return nil, core.NewVariantError(err, variant.ArmName())
	}

	cmp := e.Compare(control, variant, confidence)

	df := e.family.DegreesOfFreedom(control, variant)
	if math.IsInf(df, 1) {
		df = 0
	}

	return &experiment.TestResults[A]{
		Control:          control,
		Variant:          variant,
		ControlEstimate:  cmp.EstimateA,
		VariantEstimate:  cmp.EstimateB,
		LiftPercent:      cmp.LiftPercent,
		LiftAbsolute:     cmp.LiftAbsolute,
		Statistic:        cmp.Statistic,
		DegreesOfFreedom: df,
		PValue:           cmp.PValue,
		IsSignificant:    cmp.IsSignificant,
		Confidence:       confidence,
		CILower:          cmp.CILower,
		CIUpper:          cmp.CIUpper,
		Winner:           pickWinner(cmp),
	}, nil
}

// AnalyzeMulti runs the omnibus test across all arms, then every unordered
// pairwise comparison with the requested correction. The omnibus verdict and
// the pairwise verdicts are computed independently and are not reconciled.
func (e *Engine[A]) AnalyzeMulti(arms []A, confidence float64, correction experiment.Correction) (*experiment.MultiVariantResults[A], error) {
	if len(arms) < 2 {
		return nil, core.NewValidationError(core.ErrTooFewVariants, "variants", len(arms))
	}
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}
	if correction != experiment.CorrectionBonferroni && correction != experiment.CorrectionNone {
		return nil, core.NewValidationError(core.ErrUnknownCorrection, "correction", correction)
	}
	for _, arm := range arms {
		if err := e.family.Validate(arm); err != nil {
			return nil, core.NewVariantError(err, arm.ArmName())
		}
	}

	omnibus := e.family.Omnibus(arms, e.dist)
	best, worst := e.rank(arms)

	pairs := make([]experiment.PairwiseComparison, 0, PairCount(len(arms)))
	for i := 0; i < len(arms); i++ {
		for j := i + 1; j < len(arms); j++ {
			pairs = append(pairs, e.Compare(arms[i], arms[j], confidence))
		}
	}

	snapshot := make([]A, len(arms))
	copy(snapshot, arms)

	return &experiment.MultiVariantResults[A]{
		Arms:             snapshot,
		Statistic:        omnibus.Statistic,
		DegreesOfFreedom: omnibus.DF,
		DFWithin:         omnibus.DFWithin,
		PValue:           omnibus.PValue,
		IsSignificant:    omnibus.PValue < alphaFor(confidence),
		Confidence:       confidence,
		Correction:       correction,
		BestArm:          best,
		WorstArm:         worst,
		Pairwise:         ApplyCorrection(pairs, correction, confidence),
	}, nil
}

// rank orders arms by estimate descending; ties keep input order.
func (e *Engine[A]) rank(arms []A) (best, worst string) {
	order := make([]int, len(arms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return e.family.Estimate(arms[order[i]]) > e.family.Estimate(arms[order[j]])
	})
	return arms[order[0]].ArmName(), arms[order[len(order)-1]].ArmName()
}

func pickWinner(cmp experiment.PairwiseComparison) experiment.Winner {
	if !cmp.IsSignificant {
		return experiment.WinnerNone
	}
	if cmp.EstimateB > cmp.EstimateA {
		return experiment.WinnerVariant
	}
	return experiment.WinnerControl
}

// liftPercent is 0 when the baseline is exactly 0; callers must treat it as
// meaningful only for a non-zero baseline.
func liftPercent(base, other float64) float64 {
	if base == 0 {
		return 0
	}
	return (other - base) / base * 100
}

func alphaFor(confidence float64) float64 {
	return 1 - confidence/100
}

func validateConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 100) {
		return core.NewValidationError(core.ErrInvalidConfidence, "confidence", confidence)
	}
	return nil
}

func validatePower(power float64) error {
	if !(power > 0 && power < 100) {
		return core.NewValidationError(core.ErrInvalidPower, "power", power)
	}
	return nil
}
