package effect

import (
	"math"

	"goexp/domain/experiment"
)

// RateFamily models binomial arms: a two-proportion z-test for pairs and a
// chi-square test of independence for k arms.
type RateFamily struct{}

func (RateFamily) Kind() experiment.MetricFamily { return experiment.FamilyRate }

func (RateFamily) Validate(arm experiment.RateArm) error { return arm.Validate() }

func (RateFamily) Estimate(arm experiment.RateArm) float64 { return arm.Rate() }

// TestError is the pooled standard error √(p̄(1−p̄)(1/n1+1/n2)).
func (RateFamily) TestError(a, b experiment.RateArm) float64 {
	pooled := float64(a.Conversions+b.Conversions) / float64(a.Visitors+b.Visitors)
	return math.Sqrt(pooled * (1 - pooled) * (1/float64(a.Visitors) + 1/float64(b.Visitors)))
}

// IntervalError is the unpooled standard error √(p1(1−p1)/n1 + p2(1−p2)/n2).
func (RateFamily) IntervalError(a, b experiment.RateArm) float64 {
	p1, p2 := a.Rate(), b.Rate()
	return math.Sqrt(p1*(1-p1)/float64(a.Visitors) + p2*(1-p2)/float64(b.Visitors))
}

func (RateFamily) DegreesOfFreedom(_, _ experiment.RateArm) float64 { return math.Inf(1) }

// Omnibus runs the chi-square test on the k×2 table of (conversions, non-conversions).
func (RateFamily) Omnibus(arms []experiment.RateArm, dist *Distributions) Omnibus {
	table := make([][2]float64, len(arms))
	for i, arm := range arms {
		table[i] = [2]float64{float64(arm.Conversions), float64(arm.Visitors - arm.Conversions)}
	}

	stat, dof, ok := chiSquareIndependence(table)
	if !ok {
		return Omnibus{Statistic: 0, DF: dof, PValue: 1.0}
	}
	return Omnibus{Statistic: stat, DF: dof, PValue: dist.ChiSquarePValue(stat, dof)}
}

var rateEngine = NewEngine[experiment.RateArm](RateFamily{})

// AnalyzeRates runs the two-proportion z-test of variant against control.
func AnalyzeRates(control, variant experiment.RateArm, confidence float64) (*experiment.TestResults[experiment.RateArm], error) {
	if control.Name == "" {
		control.Name = "control"
	}
	if variant.Name == "" {
		variant.Name = "variant"
	}
	return rateEngine.Analyze(control, variant, confidence)
}

// AnalyzeRatesMulti runs the chi-square omnibus and corrected pairwise z-tests.
func AnalyzeRatesMulti(arms []experiment.RateArm, confidence float64, correction experiment.Correction) (*experiment.MultiVariantResults[experiment.RateArm], error) {
	return rateEngine.AnalyzeMulti(arms, confidence, correction)
}
