package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goexp/domain/experiment"
	"goexp/internal/analysis/effect"
	"goexp/internal/report"
)

func (s *Server) planMagnitudes(c *gin.Context) (*experiment.SampleSizePlan, *magnitudeSampleSizeRequest, bool) {
	var req magnitudeSampleSizeRequest
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

	plan, err := s.service.PlanMagnitudes(c.Request.Context(), effect.MagnitudeSampleSizeInput{
		BaselineMean:      *req.CurrentMean,
		StandardDeviation: req.CurrentStd,
		LiftPercent:       lift(req.LiftPercent, defaultMagnitudeLift),
		Confidence:        conf,
		Power:             power,
		NumVariants:       k,
	}, req.DailyVisitors)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return plan, &req, true
}

// HandleMagnitudeSampleSize sizes a numeric-metric test
func (s *Server) HandleMagnitudeSampleSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, _, ok := s.planMagnitudes(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, magnitudeSampleSizeResponse{
			VisitorsPerVariant: plan.VisitorsPerVariant,
			TotalVisitors:      plan.TotalVisitors,
			NumVariants:        plan.NumVariants,
			CurrentMean:        plan.Baseline,
			ExpectedMean:       plan.Expected,
			StandardDeviation:  plan.StandardDeviation,
			LiftPercent:        plan.LiftPercent,
			Confidence:         plan.Confidence,
			Power:              plan.Power,
			TestDurationDays:   plan.TestDurationDays,
		})
	}
}

// HandleMagnitudeSampleSizeSummary renders the numeric plan as Markdown
func (s *Server) HandleMagnitudeSampleSizeSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		plan, req, ok := s.planMagnitudes(c)
		if !ok {
			return
		}
		markdown(c, report.PlanSummary(plan, report.Options{TestName: req.TestName, MetricName: req.MetricName, Currency: req.Currency}))
	}
}

func (s *Server) analyzeMagnitudes(c *gin.Context) (*experiment.TestResults[experiment.MagnitudeArm], *magnitudeAnalyzeRequest, bool) {
	var req magnitudeAnalyzeRequest
	if !s.bind(c, &req) {
		return nil, nil, false
	}
	conf, err := s.confidence(req.Confidence)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}

	res, err := s.service.AnalyzeMagnitudes(c.Request.Context(),
		experiment.MagnitudeArm{Name: "control", Visitors: req.ControlVisitors, Mean: *req.ControlMean, Std: *req.ControlStd},
		experiment.MagnitudeArm{Name: "variant", Visitors: req.VariantVisitors, Mean: *req.VariantMean, Std: *req.VariantStd},
		conf)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return res, &req, true
}

// HandleMagnitudeAnalyze runs the two-arm Welch test
func (s *Server) HandleMagnitudeAnalyze() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeMagnitudes(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, magnitudeAnalyzeResponse{
			ControlMean:        res.ControlEstimate,
			VariantMean:        res.VariantEstimate,
			LiftPercent:        res.LiftPercent,
			LiftAbsolute:       res.LiftAbsolute,
			TStatistic:         res.Statistic,
			DegreesOfFreedom:   res.DegreesOfFreedom,
			IsSignificant:      res.IsSignificant,
			Confidence:         res.Confidence,
			PValue:             res.PValue,
			ConfidenceInterval: [2]float64{res.CILower, res.CIUpper},
			Winner:             string(res.Winner),
			Recommendation:     report.MagnitudeRecommendation(res, req.Currency),
		})
	}
}

// HandleMagnitudeAnalyzeSummary renders the two-arm numeric test as Markdown
func (s *Server) HandleMagnitudeAnalyzeSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeMagnitudes(c)
		if !ok {
			return
		}
		markdown(c, report.MagnitudeSummary(res, report.Options{TestName: req.TestName, MetricName: req.MetricName, Currency: req.Currency}))
	}
}

func (s *Server) analyzeMagnitudesMulti(c *gin.Context) (*experiment.MultiVariantResults[experiment.MagnitudeArm], *magnitudeMultiAnalyzeRequest, bool) {
	var req magnitudeMultiAnalyzeRequest
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

	arms := make([]experiment.MagnitudeArm, len(req.Variants))
	for i, v := range req.Variants {
		arms[i] = experiment.MagnitudeArm{Name: v.Name, Visitors: v.Visitors, Mean: *v.Mean, Std: *v.Std}
	}
	res, err := s.service.AnalyzeMagnitudesMulti(c.Request.Context(), arms, conf, corr)
	if err != nil {
		s.abort(c, err)
		return nil, nil, false
	}
	return res, &req, true
}

// HandleMagnitudeAnalyzeMulti runs the ANOVA omnibus with pairwise follow-ups
func (s *Server) HandleMagnitudeAnalyzeMulti() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeMagnitudesMulti(c)
		if !ok {
			return
		}

		variants := make([]magnitudeVariantResponse, len(res.Arms))
		for i, a := range res.Arms {
			variants[i] = magnitudeVariantResponse{Name: a.Name, Visitors: a.Visitors, Mean: a.Mean, Std: a.Std}
		}
		pairs := make([]magnitudePairResponse, len(res.Pairwise))
		for i, p := range res.Pairwise {
			pairs[i] = magnitudePairResponse{
				VariantA:           p.ArmA,
				VariantB:           p.ArmB,
				MeanA:              p.EstimateA,
				MeanB:              p.EstimateB,
				LiftPercent:        p.LiftPercent,
				LiftAbsolute:       p.LiftAbsolute,
				PValue:             p.PValue,
				PValueAdjusted:     p.PValueAdjusted,
				IsSignificant:      p.IsSignificant,
				ConfidenceInterval: [2]float64{p.CILower, p.CIUpper},
			}
		}

		c.JSON(http.StatusOK, magnitudeMultiAnalyzeResponse{
			IsSignificant:       res.IsSignificant,
			Confidence:          res.Confidence,
			PValue:              res.PValue,
			FStatistic:          res.Statistic,
			DFBetween:           res.DegreesOfFreedom,
			DFWithin:            res.DFWithin,
			Correction:          string(res.Correction),
			BestVariant:         res.BestArm,
			WorstVariant:        res.WorstArm,
			Variants:            variants,
			PairwiseComparisons: pairs,
			Recommendation:      report.MagnitudeMultiRecommendation(res, req.Currency),
		})
	}
}

// HandleMagnitudeAnalyzeMultiSummary renders the multi-arm numeric test as Markdown
func (s *Server) HandleMagnitudeAnalyzeMultiSummary() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, req, ok := s.analyzeMagnitudesMulti(c)
		if !ok {
			return
		}
		markdown(c, report.MagnitudeMultiSummary(res, report.Options{TestName: req.TestName, MetricName: req.MetricName, Currency: req.Currency}))
	}
}

// HandleMagnitudeInterval returns the t-interval around one arm's mean
func (s *Server) HandleMagnitudeInterval() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req magnitudeIntervalRequest
		if !s.bind(c, &req) {
			return
		}
		conf, err := s.confidence(req.Confidence)
		if err != nil {
			s.abort(c, err)
			return
		}

		ci, err := s.service.MagnitudeInterval(c.Request.Context(), req.Visitors, *req.Mean, *req.Std, conf)
		if err != nil {
			s.abort(c, err)
			return
		}
		c.JSON(http.StatusOK, magnitudeIntervalResponse{
			Mean:          ci.PointEstimate,
			Lower:         ci.Lower,
			Upper:         ci.Upper,
			Confidence:    ci.Confidence,
			MarginOfError: ci.MarginOfError,
		})
	}
}
