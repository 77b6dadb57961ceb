package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goexp/domain/experiment"
	"goexp/internal/analysis/effect"
	"goexp/internal/report"
)

func (s *Server) planRates(c *gin.Context) (*experiment.SampleSizePlan, *rateSampleSizeRequest, bool) {
	var req rateSampleSizeRequest
	if !s.bind(c, &req) {
		return nil, nil, false
	}
	conf, err := s.confidence(req.Confidence)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	power, err := s.power(req.Power)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	k, err := s.numVariants(req.NumVariants)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}

	plan, err := s.service.PlanRates(c.Request.Context(), effect.RateSampleSizeInput{
		BaselineRate: normalizeRate(req.CurrentRate),
		LiftPercent:  lift(req.LiftPercent, defaultRateLift),
		Confidence:   conf,
		Power:        power,
		NumVariants:  k,
	}, req.DailyVisitors)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return plan, &req, true
}

// HandleRateSampleSize sizes a conversion test
func (s *Server) HandleRateSampleSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, _, ok := s.planRates(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, rateSampleSizeResponse{
			VisitorsPerVariant: plan.VisitorsPerVariant,
			TotalVisitors:      plan.TotalVisitors,
			NumVariants:        plan.NumVariants,
			CurrentRate:        plan.Baseline,
			ExpectedRate:       plan.Expected,
			LiftPercent:        plan.LiftPercent,
			Confidence:         plan.Confidence,
			Power:              plan.Power,
			TestDurationDays:   plan.TestDurationDays,
		})
	}
}

// HandleRateSampleSizeSummary renders the conversion plan as Markdown
func (s *Server) HandleRateSampleSizeSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, req, ok := s.planRates(c)
		if !ok {
			return
		}
		markdown(c, report.PlanSummary(plan, report.Options{TestName: req.TestName}))
	}
}

func (s *Server) analyzeRates(c *gin.Context) (*experiment.TestResults[experiment.RateArm], *rateAnalyzeRequest, bool) {
	var req rateAnalyzeRequest
	if !s.bind(c, &req) {
		return nil, nil, false
	}
	conf, err := s.confidence(req.Confidence)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}

	res, err := s.service.AnalyzeRates(c.Request.Context(),
		experiment.RateArm{Name: "control", Visitors: req.ControlVisitors, Conversions: *req.ControlConversions},
		experiment.RateArm{Name: "variant", Visitors: req.VariantVisitors, Conversions: *req.VariantConversions},
		conf)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return res, &req, true
}

// HandleRateAnalyze runs the two-arm conversion test
func (s *Server) HandleRateAnalyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, _, ok := s.analyzeRates(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, rateAnalyzeResponse{
			ControlRate:        res.ControlEstimate,
			VariantRate:        res.VariantEstimate,
			LiftPercent:        res.LiftPercent,
			LiftAbsolute:       res.LiftAbsolute,
			ZStatistic:         res.Statistic,
			IsSignificant:      res.IsSignificant,
			Confidence:         res.Confidence,
			PValue:             res.PValue,
			ConfidenceInterval: [2]float64{res.CILower, res.CIUpper},
			Winner:             string(res.Winner),
			Recommendation:     report.RateRecommendation(res),
		})
	}
}

// HandleRateAnalyzeSummary renders the two-arm conversion test as Markdown
func (s *Server) HandleRateAnalyzeSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeRates(c)
		if !ok {
			return
		}
		markdown(c, report.RateSummary(res, report.Options{TestName: req.TestName}))
	}
}

func (s *Server) analyzeRatesMulti(c *gin.Context) (*experiment.MultiVariantResults[experiment.RateArm], *rateMultiAnalyzeRequest, bool) {
	var req rateMultiAnalyzeRequest
	if !s.bind(c, &req) {
		return nil, nil, false
	}
	if err := s.checkVariantCount(len(req.Variants)); err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	conf, err := s.confidence(req.Confidence)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	corr, err := s.correction(req.Correction)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}

	arms := make([]experiment.RateArm, len(req.Variants))
	for i, v := range req.Variants {
		arms[i] = experiment.RateArm{Name: v.Name, Visitors: v.Visitors, Conversions: *v.Conversions}
	}
	res, err := s.service.AnalyzeRatesMulti(c.Request.Context(), arms, conf, corr)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return res, &req, true
}

// HandleRateAnalyzeMulti runs the chi-square omnibus with pairwise follow-ups
func (s *Server) HandleRateAnalyzeMulti() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, _, ok := s.analyzeRatesMulti(c)
		if !ok {
			return
		}

		variants := make([]rateVariantResponse, len(res.Arms))
		for i, a := range res.Arms {
			variants[i] = rateVariantResponse{Name: a.Name, Visitors: a.Visitors, Conversions: a.Conversions, Rate: a.Rate()}
		}
		pairs := make([]ratePairResponse, len(res.Pairwise))
		for i, p := range res.Pairwise {
			pairs[i] = ratePairResponse{
				VariantA:           p.ArmA,
				VariantB:           p.ArmB,
				RateA:              p.EstimateA,
				RateB:              p.EstimateB,
				LiftPercent:        p.LiftPercent,
				LiftAbsolute:       p.LiftAbsolute,
				PValue:             p.PValue,
				PValueAdjusted:     p.PValueAdjusted,
				IsSignificant:      p.IsSignificant,
				ConfidenceInterval: [2]float64{p.CILower, p.CIUpper},
			}
		}

		c.JSON(http.StatusOK, rateMultiAnalyzeResponse{
			IsSignificant:       res.IsSignificant,
			Confidence:          res.Confidence,
			PValue:              res.PValue,
			TestStatistic:       res.Statistic,
			DegreesOfFreedom:    res.DegreesOfFreedom,
			Correction:          string(res.Correction),
			BestVariant:         res.BestArm,
			WorstVariant:        res.WorstArm,
			Variants:            variants,
			PairwiseComparisons: pairs,
			Recommendation:      report.RateMultiRecommendation(res),
		})
	}
}

// HandleRateAnalyzeMultiSummary renders the multi-arm conversion test as Markdown
func (s *Server) HandleRateAnalyzeMultiSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeRatesMulti(c)
		if !ok {
			return
		}
		markdown(c, report.RateMultiSummary(res, report.Options{TestName: req.TestName}))
	}
}

// HandleRateInterval returns the Wilson interval for one arm
func (s *Server) HandleRateInterval() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rateIntervalRequest
		if !s.bind(c, &req) {
			return
		}
		conf, err := s.confidence(req.Confidence)
		if err != nil {
			s.abort(c, err)
			return
		}

		ci, err := s.service.RateInterval(c.Request.Context(), req.Visitors, *req.Conversions, conf)
		if err != nil {
			s.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, rateIntervalResponse{
			Rate:          ci.PointEstimate,
			Lower:         ci.Lower,
			Upper:         ci.Upper,
			Confidence:    ci.Confidence,
			MarginOfError: ci.MarginOfError,
		})
	}
}
