package effect

import (
	"math"

	"goexp/domain/core"
	"goexp/domain/experiment"
)

// MagnitudeFamily models continuous arms given as (n, mean, std): Welch's
// t-test for pairs and one-way ANOVA for k arms.
type MagnitudeFamily struct{}

func (MagnitudeFamily) Kind() experiment.MetricFamily { return experiment.FamilyMagnitude }

// Validate additionally requires n > 1, since the Welch degrees of freedom
// divide by n−1.
func (MagnitudeFamily) Validate(arm experiment.MagnitudeArm) error {
	if err := arm.Validate(); err != nil {
		return err
	}
	if arm.Visitors < 2 {
		return core.NewValidationError(core.ErrInsufficientSamples, "visitors", arm.Visitors)
	}
	return nil
}

func (MagnitudeFamily) Estimate(arm experiment.MagnitudeArm) float64 { return arm.Mean }

// TestError is √(σ1²/n1 + σ2²/n2).
func (MagnitudeFamily) TestError(a, b experiment.MagnitudeArm) float64 {
	return math.Sqrt(a.Variance()/float64(a.Visitors) + b.Variance()/float64(b.Visitors))
}

// IntervalError is the same Welch standard error.
func (f MagnitudeFamily) IntervalError(a, b experiment.MagnitudeArm) float64 {
	return f.TestError(a, b)
}

// DegreesOfFreedom is the Welch–Satterthwaite approximation, falling back to
// n1+n2−2 when the standard error or the denominator is zero.
func (f MagnitudeFamily) DegreesOfFreedom(a, b experiment.MagnitudeArm) float64 {
	fallback := float64(a.Visitors + b.Visitors - 2)

	se := f.TestError(a, b)
	if se == 0 {
		return fallback
	}

	va := a.Variance() / float64(a.Visitors)
	vb := b.Variance() / float64(b.Visitors)
	denominator := va*va/float64(a.Visitors-1) + vb*vb/float64(b.Visitors-1)
	if denominator <= 0 {
		return fallback
	}
	return math.Pow(se, 4) / denominator
}

// Omnibus runs a one-way ANOVA from the per-arm summaries.
func (MagnitudeFamily) Omnibus(arms []experiment.MagnitudeArm, dist *Distributions) Omnibus {
	k := len(arms)
	n := 0
	weighted := 0.0
	for _, arm := range arms {
		n += arm.Visitors
		weighted += arm.Mean * float64(arm.Visitors)
	}
	grandMean := weighted / float64(n)

	var ssBetween, ssWithin float64
	for _, arm := range arms {
		d := arm.Mean - grandMean
		ssBetween += float64(arm.Visitors) * d * d
		ssWithin += float64(arm.Visitors-1) * arm.Variance()
	}

	dfBetween := k - 1
	dfWithin := n - k

	msBetween := 0.0
	if dfBetween > 0 {
		msBetween = ssBetween / float64(dfBetween)
	}
	msWithin := 1.0
	if dfWithin > 0 {
		msWithin = ssWithin / float64(dfWithin)
	}

	out := Omnibus{DF: dfBetween, DFWithin: dfWithin, PValue: 1.0}
	if msWithin <= 0 {
		return out
	}
	f := msBetween / msWithin
	if f <= 0 {
		return out
	}
	out.Statistic = f
	out.PValue = dist.FTestPValue(f, dfBetween, dfWithin)
	return out
}

var magnitudeEngine = NewEngine[experiment.MagnitudeArm](MagnitudeFamily{})

// AnalyzeMagnitudes runs Welch's t-test of variant against control.
func AnalyzeMagnitudes(control, variant experiment.MagnitudeArm, confidence float64) (*experiment.TestResults[experiment.MagnitudeArm], error) {
	if control.Name == "" {
		control.Name = "control"
	}
	if variant.Name == "" {
		variant.Name = "variant"
	}
	return magnitudeEngine.Analyze(control, variant, confidence)
}

// AnalyzeMagnitudesMulti runs the ANOVA omnibus and corrected pairwise Welch tests.
func AnalyzeMagnitudesMulti(arms []experiment.MagnitudeArm, confidence float64, correction experiment.Correction) (*experiment.MultiVariantResults[experiment.MagnitudeArm], error) {
	return magnitudeEngine.AnalyzeMulti(arms, confidence, correction)
}
