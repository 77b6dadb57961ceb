package effect

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides the reference distributions the engine draws p-values
// and critical values from. A degrees-of-freedom value of +Inf selects the
// standard normal, anything finite selects Student's t.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// NormalCDF computes the cumulative distribution function of the standard normal
func (d *Distributions) NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormalQuantile computes the quantile function of the standard normal (inverse CDF)
func (d *Distributions) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// TCDF computes the Student's t CDF for possibly non-integer degrees of freedom.
func (d *Distributions) TCDF(t, df float64) float64 {
	return studentsT(df).CDF(t)
}

// TQuantile computes the Student's t inverse CDF.
func (d *Distributions) TQuantile(p, df float64) float64 {
	return studentsT(df).Quantile(p)
}

// TwoSidedPValue returns 2·(1 − CDF(|stat|)) under the reference distribution for df.
func (d *Distributions) TwoSidedPValue(stat, df float64) float64 {
	var cdf float64
	if math.IsInf(df, 1) {
		cdf = d.NormalCDF(math.Abs(stat))
	} else {
		cdf = d.TCDF(math.Abs(stat), df)
	}
	return clampProbability(2 * (1 - cdf))
}

// CriticalValue returns the two-sided critical value for significance level alpha.
func (d *Distributions) CriticalValue(alpha, df float64) float64 {
	if math.IsInf(df, 1) {
		return d.NormalQuantile(1 - alpha/2)
	}
	return d.TQuantile(1-alpha/2, df)
}

// ChiSquarePValue computes the upper-tail p-value of the chi-square distribution
func (d *Distributions) ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 {
		return 1.0
	}

	chiDist := distuv.ChiSquared{K: float64(degreesOfFreedom)}
	return clampProbability(1 - chiDist.CDF(chiSquare))
}

// FTestPValue computes the upper-tail p-value of the F distribution (ANOVA)
func (d *Distributions) FTestPValue(fStatistic float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return clampProbability(1 - fDist.CDF(fStatistic))
}

func studentsT(df float64) distuv.StudentsT {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1.0
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
