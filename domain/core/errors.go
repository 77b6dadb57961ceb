package core

import (
	"errors"
	"fmt"
)

// Failure kinds. Every input rejection wraps exactly one of these.
var (
	ErrRangeViolation        = errors.New("range violation")
	ErrDegenerateConfig      = errors.New("degenerate configuration")
	ErrDerivedValueViolation = errors.New("derived value violation")
)

// Range violations
var (
	ErrInvalidBaselineRate       = fmt.Errorf("%w: baseline rate must be strictly between 0 and 1", ErrRangeViolation)
	ErrConversionsExceedVisitors = fmt.Errorf("%w: conversions cannot exceed visitors", ErrRangeViolation)
	ErrNegativeConversions       = fmt.Errorf("%w: conversions cannot be negative", ErrRangeViolation)
	ErrNonPositiveVisitors       = fmt.Errorf("%w: visitors must be positive", ErrRangeViolation)
	ErrNegativeStd               = fmt.Errorf("%w: standard deviation cannot be negative", ErrRangeViolation)
	ErrInvalidConfidence         = fmt.Errorf("%w: confidence must be a percentage strictly between 0 and 100", ErrRangeViolation)
	ErrInvalidPower              = fmt.Errorf("%w: power must be a percentage strictly between 0 and 100", ErrRangeViolation)
	ErrNonPositiveDailyTraffic   = fmt.Errorf("%w: daily visitors must be positive", ErrRangeViolation)
	ErrUnknownCorrection         = fmt.Errorf("%w: correction must be one of bonferroni, none", ErrRangeViolation)
	ErrNonFiniteValue            = fmt.Errorf("%w: value must be a finite number", ErrRangeViolation)
)

// Degenerate configurations
var (
	ErrZeroLift            = fmt.Errorf("%w: lift cannot be zero", ErrDegenerateConfig)
	ErrNonPositiveStd      = fmt.Errorf("%w: standard deviation must be positive", ErrDegenerateConfig)
	ErrTooFewVariants      = fmt.Errorf("%w: at least 2 variants are required", ErrDegenerateConfig)
	ErrInsufficientSamples = fmt.Errorf("%w: visitors must be greater than 1", ErrDegenerateConfig)
)

// Derived value violations
var (
	ErrExpectedRateAboveOne = fmt.Errorf("%w: expected rate exceeds 100%%, lower the lift", ErrDerivedValueViolation)
	ErrExpectedRateNegative = fmt.Errorf("%w: expected rate cannot be negative, check the lift", ErrDerivedValueViolation)
	ErrSampleSizeOverflow   = fmt.Errorf("%w: required sample size is too large, raise the lift or lower the spread", ErrDerivedValueViolation)
)

// NewValidationError attaches the offending field and value to a named failure.
func NewValidationError(err error, field string, value interface{}) error {
	return fmt.Errorf("%w (%s=%v)", err, field, value)
}

// NewVariantError attaches the offending variant name to a named failure.
func NewVariantError(err error, variant string) error {
	return fmt.Errorf("%w for variant '%s'", err, variant)
}

func IsRangeViolation(err error) bool {
	return errors.Is(err, ErrRangeViolation)
}

func IsDegenerateConfig(err error) bool {
	return errors.Is(err, ErrDegenerateConfig)
}

func IsDerivedValueViolation(err error) bool {
	return errors.Is(err, ErrDerivedValueViolation)
}

// IsValidationError reports whether err is any rejection of caller input.
func IsValidationError(err error) bool {
	return IsRangeViolation(err) || IsDegenerateConfig(err) || IsDerivedValueViolation(err)
}
