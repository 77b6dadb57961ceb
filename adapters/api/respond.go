package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"goexp/domain/experiment"
	"goexp/internal/errors"
)

const (
	defaultRateLift      = 10.0
	defaultMagnitudeLift = 5.0
	markdownContentType  = "text/markdown; charset=utf-8"
)

// bind decodes the JSON body, answering 400 itself when binding fails
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.abort(c, errors.Wrap(errors.ValidationError(err.Error()), "invalid request body"))
		return false
	}
	return true
}

func (s *Server) abort(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	c.AbortWithStatusJSON(errors.HTTPStatus(appErr), errorResponse{
		Detail:    appErr.Error(),
		Code:      appErr.Code,
		RequestID: c.GetString(requestIDHeader),
	})
}

func markdown(c *gin.Context, md string) {
	c.Data(http.StatusOK, markdownContentType, []byte(md))
}

func (s *Server) confidence(v *float64) (float64, error) {
	if v == nil {
		return s.cfg.Analysis.DefaultConfidence, nil
	}
	l := s.cfg.Limits
	if *v < l.MinConfidence || *v > l.MaxConfidence {
		return 0, errors.ValidationError(fmt.Sprintf("confidence must be between %g and %g, got %g", l.MinConfidence, l.MaxConfidence, *v))
	}
	return *v, nil
}

func (s *Server) power(v *float64) (float64, error) {
	if v == nil {
		return s.cfg.Analysis.DefaultPower, nil
	}
	l := s.cfg.Limits
	if *v < l.MinPower || *v > l.MaxPower {
		return 0, errors.ValidationError(fmt.Sprintf("power must be between %g and %g, got %g", l.MinPower, l.MaxPower, *v))
	}
	return *v, nil
}

func (s *Server) numVariants(v *int) (int, error) {
	if v == nil {
		return 2, nil
	}
	return *v, s.checkVariantCount(*v)
}

func (s *Server) checkVariantCount(n int) error {
	if n < 2 || n > s.cfg.Limits.MaxVariants {
		return errors.ValidationError(fmt.Sprintf("number of variants must be between 2 and %d, got %d", s.cfg.Limits.MaxVariants, n))
	}
	return nil
}

func (s *Server) correction(v string) (experiment.Correction, error) {
	if v == "" {
		return s.cfg.Analysis.DefaultCorrection, nil
	}
	return experiment.ParseCorrection(v)
}

func lift(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// normalizeRate accepts a baseline given either as a proportion or as a percent
func normalizeRate(r float64) float64 {
	if r > 1 {
		return r / 100
	}
	return r
}
