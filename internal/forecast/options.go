package forecast

import "fmt"

// Seasonality modes.
const (
	SeasonalityAuto = "auto"
	SeasonalityOn   = "on"
	SeasonalityOff  = "off"
)

// DefaultHorizon is the number of days predicted past the last observation.
const DefaultHorizon = 365

// Options tunes the additive model. Zero values are replaced by defaults
// in Normalize, so a negative ChangepointCount is how a trend without
// changepoints is requested.
type Options struct {
	ChangepointCount      int     `yaml:"changepoint_count"`
	ChangepointRange      float64 `yaml:"changepoint_range"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale"`
	Yearly                string  `yaml:"yearly"`
	Weekly                string  `yaml:"weekly"`
	YearlyOrder           int     `yaml:"yearly_order"`
	WeeklyOrder           int     `yaml:"weekly_order"`
	IntervalWidth         float64 `yaml:"interval_width"`
}

// DefaultOptions mirrors the usual additive-model defaults.
func DefaultOptions() Options {
	return Options{
		ChangepointCount:      25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		Yearly:                SeasonalityAuto,
		Weekly:                SeasonalityAuto,
		YearlyOrder:           10,
		WeeklyOrder:           3,
		IntervalWidth:         0.8,
	}
}

// Normalize fills unset fields with defaults.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.ChangepointCount == 0 {
		o.ChangepointCount = d.ChangepointCount
	}
	if o.ChangepointRange == 0 {
		o.ChangepointRange = d.ChangepointRange
	}
	if o.ChangepointPriorScale == 0 {
		o.ChangepointPriorScale = d.ChangepointPriorScale
	}
	if o.SeasonalityPriorScale == 0 {
		o.SeasonalityPriorScale = d.SeasonalityPriorScale
	}
	if o.Yearly == "" {
		o.Yearly = d.Yearly
	}
	if o.Weekly == "" {
		o.Weekly = d.Weekly
	}
	if o.YearlyOrder == 0 {
		o.YearlyOrder = d.YearlyOrder
	}
	if o.WeeklyOrder == 0 {
		o.WeeklyOrder = d.WeeklyOrder
	}
	if o.IntervalWidth == 0 {
		o.IntervalWidth = d.IntervalWidth
	}
	return o
}

// Validate checks ranges after Normalize.
func (o Options) Validate() error {
	if o.ChangepointRange <= 0 || o.ChangepointRange > 1 {
		return fmt.Errorf("changepoint_range must be in (0, 1]")
	}
	if o.ChangepointPriorScale <= 0 || o.SeasonalityPriorScale <= 0 {
		return fmt.Errorf("prior scales must be positive")
	}
	if o.IntervalWidth <= 0 || o.IntervalWidth >= 1 {
		return fmt.Errorf("interval_width must be in (0, 1)")
	}
	for _, m := range []string{o.Yearly, o.Weekly} {
		switch m {
		case SeasonalityAuto, SeasonalityOn, SeasonalityOff:
		default:
			return fmt.Errorf("unknown seasonality mode %q", m)
		}
	}
	if o.YearlyOrder < 0 || o.WeeklyOrder < 0 {
		return fmt.Errorf("fourier orders must be >= 0")
	}
	return nil
}
