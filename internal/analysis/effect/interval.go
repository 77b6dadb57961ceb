package effect

import (
	"math"

	"goexp/domain/core"
	"goexp/domain/experiment"
)

// RateInterval is the Wilson score interval for conversions/visitors, clamped to [0,1].
func RateInterval(visitors, conversions int, confidence float64) (*experiment.ConfidenceInterval, error) {
	arm := experiment.RateArm{Visitors: visitors, Conversions: conversions}
	if err := arm.Validate(); err != nil {
		return nil, err
	}
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}

	rate := arm.Rate()
	n := float64(visitors)
	z := NewDistributions().CriticalValue(alphaFor(confidence), math.Inf(1))
	z2 := z * z

	denominator := 1 + z2/n
	center := (rate + z2/(2*n)) / denominator
	margin := z * math.Sqrt((rate*(1-rate)+z2/(4*n))/n) / denominator

	return &experiment.ConfidenceInterval{
		PointEstimate: rate,
		Lower:         math.Max(0, center-margin),
		Upper:         math.Min(1, center+margin),
		Confidence:    confidence,
		MarginOfError: margin,
	}, nil
}

// MagnitudeInterval is the t-interval mean ± t(n−1)·std/√n. Requires n > 1.
func MagnitudeInterval(visitors int, mean, std, confidence float64) (*experiment.ConfidenceInterval, error) {
	if visitors <= 1 {
		return nil, core.NewValidationError(core.ErrInsufficientSamples, "visitors", visitors)
	}
	arm := experiment.MagnitudeArm{Visitors: visitors, Mean: mean, Std: std}
	if err := arm.Validate(); err != nil {
		return nil, err
	}
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}

	n := float64(visitors)
	t := NewDistributions().CriticalValue(alphaFor(confidence), n-1)
	margin := t * std / math.Sqrt(n)

	return &experiment.ConfidenceInterval{
		PointEstimate: mean,
		Lower:         mean - margin,
		Upper:         mean + margin,
		Confidence:    confidence,
		MarginOfError: margin,
	}, nil
}
