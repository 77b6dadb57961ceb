package effect

import (
	"goexp/domain/experiment"
)

// Family is the capability a metric family supplies to the generic engine.
// Each family keeps its own variance model; the engine owns the shared shape
// (lift, interval construction, significance, correction, ranking).
type Family[A experiment.Arm] interface {
	Kind() experiment.MetricFamily

	// Validate rejects an arm that cannot enter a test.
	Validate(arm A) error

	// Estimate is the arm's point estimate (rate or mean).
	Estimate(arm A) float64

	// TestError is the standard error of the difference used for the test statistic.
	TestError(a, b A) float64

	// IntervalError is the standard error of the difference used for the confidence
	// interval. For rates it deliberately differs from TestError (unpooled vs pooled).
	IntervalError(a, b A) float64

	// DegreesOfFreedom of the reference distribution; +Inf means standard normal.
	DegreesOfFreedom(a, b A) float64

	// Omnibus runs the k-arm test of any difference.
	Omnibus(arms []A, dist *Distributions) Omnibus
}

// Omnibus is the outcome of a k-arm test. DFWithin is only set for ANOVA.
type Omnibus struct {
	Statistic float64
	DF        int
	DFWithin  int
	PValue    float64
}
