package effect

import "math"

// chiSquareIndependence computes Pearson's chi-square for a k×2 contingency
// table. With one degree of freedom (a 2×2 table) the Yates continuity
// correction is applied. ok is false when an expected cell is zero, which
// happens when a whole column is empty (nobody converted, or everybody did).
func chiSquareIndependence(table [][2]float64) (stat float64, dof int, ok bool) {
	k := len(table)
	dof = k - 1
	if k < 2 {
		return 0, 0, false
	}

	rowTotals := make([]float64, k)
	var colTotals [2]float64
	var total float64
	for i, row := range table {
		for j, v := range row {
			rowTotals[i] += v
			colTotals[j] += v
			total += v
		}
	}
	if total == 0 {
		return 0, dof, false
	}

	for i, row := range table {
		for j, observed := range row {
			expected := rowTotals[i] * colTotals[j] / total
			if expected == 0 {
				return 0, dof, false
			}
			if dof == 1 {
				diff := expected - observed
				observed += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			d := observed - expected
			stat += d * d / expected
		}
	}
	return stat, dof, true
}
