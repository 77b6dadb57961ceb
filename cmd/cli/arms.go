package main

import (
	"fmt"
	"strconv"
	"strings"

	"goexp/domain/experiment"
)

// parseRateArm reads "name:visitors:conversions"
func parseRateArm(spec string) (experiment.RateArm, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return experiment.RateArm{}, fmt.Errorf("arm %q: want name:visitors:conversions", spec)
	}
	visitors, err := strconv.Atoi(parts[1])
	if err != nil {
		return experiment.RateArm{}, fmt.Errorf("arm %q: visitors: %w", spec, err)
	}
	conversions, err := strconv.Atoi(parts[2])
	if err != nil {
		return experiment.RateArm{}, fmt.Errorf("arm %q: conversions: %w", spec, err)
	}
	return experiment.RateArm{Name: parts[0], Visitors: visitors, Conversions: conversions}, nil
}

// parseMagnitudeArm reads "name:visitors:mean:std"
func parseMagnitudeArm(spec string) (experiment.MagnitudeArm, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 4 {
		return experiment.MagnitudeArm{}, fmt.Errorf("arm %q: want name:visitors:mean:std", spec)
	}
	visitors, err := strconv.Atoi(parts[1])
	if err != nil {
		return experiment.MagnitudeArm{}, fmt.Errorf("arm %q: visitors: %w", spec, err)
	}
	mean, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return experiment.MagnitudeArm{}, fmt.Errorf("arm %q: mean: %w", spec, err)
	}
	std, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return experiment.MagnitudeArm{}, fmt.Errorf("arm %q: std: %w", spec, err)
	}
	return experiment.MagnitudeArm{Name: parts[0], Visitors: visitors, Mean: mean, Std: std}, nil
}

func parseArms[A any](specs []string, parse func(string) (A, error)) ([]A, error) {
	arms := make([]A, 0, len(specs))
	for _, spec := range specs {
		arm, err := parse(spec)
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm)
	}
	return arms, nil
}
