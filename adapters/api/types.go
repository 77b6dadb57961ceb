package api

// Request payloads. Pointer fields are optional (nil takes the configured
// default) or required-but-may-be-zero (binding:"required" checks presence).

type rateSampleSizeRequest struct {
	CurrentRate   float64  `json:"current_rate" binding:"required,gt=0"`
	LiftPercent   *float64 `json:"lift_percent"`
	Confidence    *float64 `json:"confidence"`
	Power         *float64 `json:"power"`
	DailyVisitors *int     `json:"daily_visitors" binding:"omitempty,gt=0"`
	NumVariants   *int     `json:"num_variants"`
	TestName      string   `json:"test_name"`
}

type rateAnalyzeRequest struct {
	ControlVisitors    int      `json:"control_visitors" binding:"required,gt=0"`
	ControlConversions *int     `json:"control_conversions" binding:"required,gte=0"`
	VariantVisitors    int      `json:"variant_visitors" binding:"required,gt=0"`
	VariantConversions *int     `json:"variant_conversions" binding:"required,gte=0"`
	Confidence         *float64 `json:"confidence"`
	TestName           string   `json:"test_name"`
}

type rateVariantRequest struct {
	Name        string `json:"name" binding:"required"`
	Visitors    int    `json:"visitors" binding:"required,gt=0"`
	Conversions *int   `json:"conversions" binding:"required,gte=0"`
}

type rateMultiAnalyzeRequest struct {
	Variants   []rateVariantRequest `json:"variants" binding:"required,min=2,dive"`
	Confidence *float64             `json:"confidence"`
	Correction string               `json:"correction" binding:"omitempty,oneof=bonferroni none"`
	TestName   string               `json:"test_name"`
}

type rateIntervalRequest struct {
	Visitors    int      `json:"visitors" binding:"required,gt=0"`
	Conversions *int     `json:"conversions" binding:"required,gte=0"`
	Confidence  *float64 `json:"confidence"`
}

type magnitudeSampleSizeRequest struct {
	CurrentMean   *float64 `json:"current_mean" binding:"required"`
	CurrentStd    float64  `json:"current_std" binding:"required,gt=0"`
	LiftPercent   *float64 `json:"lift_percent"`
	Confidence    *float64 `json:"confidence"`
	Power         *float64 `json:"power"`
	DailyVisitors *int     `json:"daily_visitors" binding:"omitempty,gt=0"`
	NumVariants   *int     `json:"num_variants"`
	TestName      string   `json:"test_name"`
	MetricName    string   `json:"metric_name"`
	Currency      string   `json:"currency"`
}

type magnitudeAnalyzeRequest struct {
	ControlVisitors int      `json:"control_visitors" binding:"required,gt=0"`
	ControlMean     *float64 `json:"control_mean" binding:"required"`
	ControlStd      *float64 `json:"control_std" binding:"required,gte=0"`
	VariantVisitors int      `json:"variant_visitors" binding:"required,gt=0"`
	VariantMean     *float64 `json:"variant_mean" binding:"required"`
	VariantStd      *float64 `json:"variant_std" binding:"required,gte=0"`
	Confidence      *float64 `json:"confidence"`
	TestName        string   `json:"test_name"`
	MetricName      string   `json:"metric_name"`
	Currency        string   `json:"currency"`
}

type magnitudeVariantRequest struct {
	Name     string   `json:"name" binding:"required"`
	Visitors int      `json:"visitors" binding:"required,gt=0"`
	Mean     *float64 `json:"mean" binding:"required"`
	Std      *float64 `json:"std" binding:"required,gte=0"`
}

type magnitudeMultiAnalyzeRequest struct {
	Variants   []magnitudeVariantRequest `json:"variants" binding:"required,min=2,dive"`
	Confidence *float64                  `json:"confidence"`
	Correction string                    `json:"correction" binding:"omitempty,oneof=bonferroni none"`
	TestName   string                    `json:"test_name"`
	MetricName string                    `json:"metric_name"`
	Currency   string                    `json:"currency"`
}

type magnitudeIntervalRequest struct {
	Visitors   int      `json:"visitors" binding:"required,gt=1"`
	Mean       *float64 `json:"mean" binding:"required"`
	Std        *float64 `json:"std" binding:"required,gte=0"`
	Confidence *float64 `json:"confidence"`
}

// Response payloads

type rateSampleSizeResponse struct {
	VisitorsPerVariant int     `json:"visitors_per_variant"`
	TotalVisitors      int     `json:"total_visitors"`
	NumVariants        int     `json:"num_variants"`
	CurrentRate        float64 `json:"current_rate"`
	ExpectedRate       float64 `json:"expected_rate"`
	LiftPercent        float64 `json:"lift_percent"`
	Confidence         float64 `json:"confidence"`
	Power              float64 `json:"power"`
	TestDurationDays   *int    `json:"test_duration_days"`
}

type magnitudeSampleSizeResponse struct {
	VisitorsPerVariant int     `json:"visitors_per_variant"`
	TotalVisitors      int     `json:"total_visitors"`
	NumVariants        int     `json:"num_variants"`
	CurrentMean        float64 `json:"current_mean"`
	ExpectedMean       float64 `json:"expected_mean"`
	StandardDeviation  float64 `json:"standard_deviation"`
	LiftPercent        float64 `json:"lift_percent"`
	Confidence         float64 `json:"confidence"`
	Power              float64 `json:"power"`
	TestDurationDays   *int    `json:"test_duration_days"`
}

type rateAnalyzeResponse struct {
	ControlRate        float64    `json:"control_rate"`
	VariantRate        float64    `json:"variant_rate"`
	LiftPercent        float64    `json:"lift_percent"`
	LiftAbsolute       float64    `json:"lift_absolute"`
	ZStatistic         float64    `json:"z_statistic"`
	IsSignificant      bool       `json:"is_significant"`
	Confidence         float64    `json:"confidence"`
	PValue             float64    `json:"p_value"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	Winner             string     `json:"winner"`
	Recommendation     string     `json:"recommendation"`
}

type magnitudeAnalyzeResponse struct {
	ControlMean        float64    `json:"control_mean"`
	VariantMean        float64    `json:"variant_mean"`
	LiftPercent        float64    `json:"lift_percent"`
	LiftAbsolute       float64    `json:"lift_absolute"`
	TStatistic         float64    `json:"t_statistic"`
	DegreesOfFreedom   float64    `json:"degrees_of_freedom"`
	IsSignificant      bool       `json:"is_significant"`
	Confidence         float64    `json:"confidence"`
	PValue             float64    `json:"p_value"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	Winner             string     `json:"winner"`
	Recommendation     string     `json:"recommendation"`
}

type rateVariantResponse struct {
	Name        string  `json:"name"`
	Visitors    int     `json:"visitors"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
}

type ratePairResponse struct {
	VariantA           string     `json:"variant_a"`
	VariantB           string     `json:"variant_b"`
	RateA              float64    `json:"rate_a"`
	RateB              float64    `json:"rate_b"`
	LiftPercent        float64    `json:"lift_percent"`
	LiftAbsolute       float64    `json:"lift_absolute"`
	PValue             float64    `json:"p_value"`
	PValueAdjusted     float64    `json:"p_value_adjusted"`
	IsSignificant      bool       `json:"is_significant"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
}

type rateMultiAnalyzeResponse struct {
	IsSignificant       bool                  `json:"is_significant"`
	Confidence          float64               `json:"confidence"`
	PValue              float64               `json:"p_value"`
	TestStatistic       float64               `json:"test_statistic"`
	DegreesOfFreedom    int                   `json:"degrees_of_freedom"`
	Correction          string                `json:"correction"`
	BestVariant         string                `json:"best_variant"`
	WorstVariant        string                `json:"worst_variant"`
	Variants            []rateVariantResponse `json:"variants"`
	PairwiseComparisons []ratePairResponse    `json:"pairwise_comparisons"`
	Recommendation      string                `json:"recommendation"`
}

type magnitudeVariantResponse struct {
	Name     string  `json:"name"`
	Visitors int     `json:"visitors"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
}

type magnitudePairResponse struct {
	VariantA           string     `json:"variant_a"`
	VariantB           string     `json:"variant_b"`
	MeanA              float64    `json:"mean_a"`
	MeanB              float64    `json:"mean_b"`
	LiftPercent        float64    `json:"lift_percent"`
	LiftAbsolute       float64    `json:"lift_absolute"`
	PValue             float64    `json:"p_value"`
	PValueAdjusted     float64    `json:"p_value_adjusted"`
	IsSignificant      bool       `json:"is_significant"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
}

type magnitudeMultiAnalyzeResponse struct {
	IsSignificant       bool                       `json:"is_significant"`
	Confidence          float64                    `json:"confidence"`
	PValue              float64                    `json:"p_value"`
	FStatistic          float64                    `json:"f_statistic"`
	DFBetween           int                        `json:"df_between"`
	DFWithin            int                        `json:"df_within"`
	Correction          string                     `json:"correction"`
	BestVariant         string                     `json:"best_variant"`
	WorstVariant        string                     `json:"worst_variant"`
	Variants            []magnitudeVariantResponse `json:"variants"`
	PairwiseComparisons []magnitudePairResponse    `json:"pairwise_comparisons"`
	Recommendation      string                     `json:"recommendation"`
}

type rateIntervalResponse struct {
	Rate          float64 `json:"rate"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Confidence    float64 `json:"confidence"`
	MarginOfError float64 `json:"margin_of_error"`
}

type magnitudeIntervalResponse struct {
	Mean          float64 `json:"mean"`
	Lower         float64 `json:"lower"`
	Upper         float64 `json:"upper"`
	Confidence    float64 `json:"confidence"`
	MarginOfError float64 `json:"margin_of_error"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
