package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChiSquareIndependence(t *testing.T) {
	stat, dof, ok := chiSquareIndependence([][2]float64{{500, 9500}, {550, 9450}, {600, 9400}})
	assert.True(t, ok)
	assert.Equal(t, 2, dof)
	assert.InDelta(t, 9.62001, stat, 1e-4)
}

func TestChiSquareIndependence_YatesOnTwoByTwo(t *testing.T) {
	stat, dof, ok := chiSquareIndependence([][2]float64{{500, 9500}, {550, 9450}})
	assert.True(t, ok)
	assert.Equal(t, 1, dof)
	assert.InDelta(t, 2.4133685, stat, 1e-6)

	// Identical rows: the correction never pushes the statistic below zero.
	stat, _, ok = chiSquareIndependence([][2]float64{{10, 90}, {10, 90}})
	assert.True(t, ok)
	assert.Equal(t, 0.0, stat)
}

func TestChiSquareIndependence_ZeroExpectedCell(t *testing.T) {
	_, dof, ok := chiSquareIndependence([][2]float64{{0, 100}, {0, 50}})
	assert.False(t, ok)
	assert.Equal(t, 1, dof)

	_, _, ok = chiSquareIndependence([][2]float64{{100, 0}, {50, 0}, {20, 0}})
	assert.False(t, ok)
}
