package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"StockForecast/internal/model"
)

var (
	ErrInsufficientData = errors.New("need at least 2 distinct days of history")
	ErrFitFailed        = errors.New("model fit failed")
	ErrNotFitted        = errors.New("model is not fitted")
)

const (
	yearlyPeriod  = 365.25
	weeklyPeriod  = 7.0
	secondsPerDay = 86400.0

	// trend intercept/slope prior: N(0, 5)
	trendPrior = 5.0
)

// Model is an additive trend + seasonality regression:
//
//	y(t) = k*t + m + sum_j delta_j*(t - s_j)+ + yearly(t) + weekly(t)
//
// t is history-scaled to [0,1]; y is scaled by max |y|.
type Model struct {
	opts Options

	start        time.Time
	span         float64 // days between first and last observation
	yScale       float64
	changepoints []float64
	yearly       bool
	weekly       bool

	beta    []float64
	sigma   float64
	z       float64
	history []time.Time
}

// New creates an unfitted model.
func New(opts Options) *Model {
	return &Model{opts: opts.Normalize()}
}

// Fit estimates the model from a daily series. Values for a repeated day
// keep the last occurrence.
func (m *Model) Fit(dates []time.Time, values []float64) error {
	if len(dates) != len(values) {
		return fmt.Errorf("fit: %d dates but %d values", len(dates), len(values))
	}
	if err := m.opts.Validate(); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	days, y := dedupe(dates, values)
	n := len(days)
	if n < 2 {
		return ErrInsufficientData
	}

	m.start = days[0]
	m.span = daysBetween(days[0], days[n-1])
	m.history = days

	m.yScale = 0
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in series", ErrFitFailed)
		}
		m.yScale = math.Max(m.yScale, math.Abs(v))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	m.yearly = enabled(m.opts.Yearly, m.opts.YearlyOrder, m.span >= 2*yearlyPeriod)
	m.weekly = enabled(m.opts.Weekly, m.opts.WeeklyOrder, m.span >= 2*weeklyPeriod &&
		minSpacing(days) < weeklyPeriod &&
		weekdayPhases(days) >= min(2*m.opts.WeeklyOrder+1, 7))
	m.changepoints = placeChangepoints(days, m.opts.ChangepointCount, m.opts.ChangepointRange, m.start, m.span)

	p := m.width()
	x := mat.NewDense(n, p, nil)
	row := make([]float64, p)
	ys := make([]float64, n)
	for i, d := range days {
		m.features(d, row)
		x.SetRow(i, row)
		ys[i] = y[i] / m.yScale
	}
	yv := mat.NewVecDense(n, ys)

	// First pass assumes unit noise; the second rescales the priors by the
	// observed residual variance.
	beta, err := m.solve(x, yv, 1)
	if err != nil {
		return err
	}
	resid := residuals(x, yv, beta)
	noise := stat.Variance(resid, nil)
	if noise <= 0 || math.IsNaN(noise) {
		noise = 1e-12
	}
	beta, err = m.solve(x, yv, noise)
	if err != nil {
		return err
	}
	m.beta = beta

	resid = residuals(x, yv, beta)
	m.sigma = stat.StdDev(resid, nil) * m.yScale
	if math.IsNaN(m.sigma) {
		m.sigma = 0
	}
	m.z = distuv.UnitNormal.Quantile(0.5 + m.opts.IntervalWidth/2)
	return nil
}

// N returns the number of distinct observed days.
func (m *Model) N() int { return len(m.history) }

// Seasonalities reports which seasonal components the fit used.
func (m *Model) Seasonalities() (yearly, weekly bool) { return m.yearly, m.weekly }

// FutureDates returns every observed day followed by periods consecutive
// calendar days after the last one.
func (m *Model) FutureDates(periods int) []time.Time {
	if periods < 0 {
		periods = 0
	}
	out := make([]time.Time, 0, len(m.history)+periods)
	out = append(out, m.history...)
	if len(m.history) == 0 {
		return out
	}
	last := m.history[len(m.history)-1]
	for i := 1; i <= periods; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

// Predict evaluates the fitted model at each date.
func (m *Model) Predict(dates []time.Time) ([]model.ForecastPoint, error) {
	if m.beta == nil {
		return nil, ErrNotFitted
	}
	last := m.history[len(m.history)-1]
	n := float64(len(m.history))
	row := make([]float64, m.width())
	bv := mat.NewVecDense(len(m.beta), m.beta)

	out := make([]model.ForecastPoint, len(dates))
	for i, raw := range dates {
		d := day(raw)
		m.features(d, row)
		yhat := mat.Dot(mat.NewVecDense(len(row), row), bv) * m.yScale

		ahead := math.Max(0, daysBetween(last, d))
		half := m.z * m.sigma * math.Sqrt(1+ahead/n)
		out[i] = model.ForecastPoint{Date: d, Yhat: yhat, Lower: yhat - half, Upper: yhat + half}
	}
	return out, nil
}

// Run fits quotes and predicts history plus horizon days.
func Run(symbol string, quotes []model.Quote, horizon int, opts Options) (*model.Forecast, error) {
	dates := make([]time.Time, len(quotes))
	values := make([]float64, len(quotes))
	for i, q := range quotes {
		dates[i] = q.Date
		values[i] = q.ClosePrice()
	}

	m := New(opts)
	if err := m.Fit(dates, values); err != nil {
		return nil, err
	}
	points, err := m.Predict(m.FutureDates(horizon))
	if err != nil {
		return nil, err
	}
	return &model.Forecast{
		Symbol:     symbol,
		Points:     points,
		HistoryLen: m.N(),
		Horizon:    horizon,
	}, nil
}

func (m *Model) width() int {
	p := 2 + len(m.changepoints)
	if m.yearly {
		p += 2 * m.opts.YearlyOrder
	}
	if m.weekly {
		p += 2 * m.opts.WeeklyOrder
	}
	return p
}

// features writes the design row for d into dst.
func (m *Model) features(d time.Time, dst []float64) {
	t := daysBetween(m.start, d) / m.span
	dst[0] = 1
	dst[1] = t
	i := 2
	for _, s := range m.changepoints {
		dst[i] = math.Max(0, t-s)
		i++
	}
	abs := float64(d.Unix()) / secondsPerDay
	if m.yearly {
		i = fourier(abs, yearlyPeriod, m.opts.YearlyOrder, dst, i)
	}
	if m.weekly {
		fourier(abs, weeklyPeriod, m.opts.WeeklyOrder, dst, i)
	}
}

// solve returns the ridge (MAP) estimate with priors scaled by noise.
func (m *Model) solve(x *mat.Dense, y *mat.VecDense, noise float64) ([]float64, error) {
	_, p := x.Dims()

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	penalties := m.penalties(p)
	for j := 0; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+noise*penalties[j])
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fmt.Errorf("%w: normal equations are not positive definite", ErrFitFailed)
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}
	out := make([]float64, p)
	for j := range out {
		out[j] = beta.AtVec(j)
		if math.IsNaN(out[j]) {
			return nil, fmt.Errorf("%w: coefficient %d is NaN", ErrFitFailed, j)
		}
	}
	return out, nil
}

// penalties maps Gaussian/Laplace prior scales to ridge weights 1/(2*s^2).
func (m *Model) penalties(p int) []float64 {
	out := make([]float64, p)
	out[0] = 1 / (2 * trendPrior * trendPrior)
	out[1] = out[0]
	i := 2
	cp := 1 / (2 * m.opts.ChangepointPriorScale * m.opts.ChangepointPriorScale)
	for range m.changepoints {
		out[i] = cp
		i++
	}
	season := 1 / (2 * m.opts.SeasonalityPriorScale * m.opts.SeasonalityPriorScale)
	for ; i < p; i++ {
		out[i] = season
	}
	return out
}

func residuals(x *mat.Dense, y *mat.VecDense, beta []float64) []float64 {
	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(len(beta), beta))
	out := make([]float64, y.Len())
	for i := range out {
		out[i] = y.AtVec(i) - fitted.AtVec(i)
	}
	return out
}

func fourier(t, period float64, order int, dst []float64, i int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * t / period
		dst[i] = math.Sin(x)
		dst[i+1] = math.Cos(x)
		i += 2
	}
	return i
}

// placeChangepoints spreads count changepoints over the first frac of the
// observations, in scaled time.
func placeChangepoints(days []time.Time, count int, frac float64, start time.Time, span float64) []float64 {
	histSize := int(math.Floor(float64(len(days)) * frac))
	if count > histSize-1 {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}
	out := make([]float64, 0, count)
	step := float64(histSize-1) / float64(count)
	for j := 1; j <= count; j++ {
		idx := int(math.Round(float64(j) * step))
		out = append(out, daysBetween(start, days[idx])/span)
	}
	return out
}

func enabled(mode string, order int, auto bool) bool {
	if order <= 0 {
		return false
	}
	switch mode {
	case SeasonalityOn:
		return true
	case SeasonalityOff:
		return false
	default:
		return auto
	}
}

func dedupe(dates []time.Time, values []float64) ([]time.Time, []float64) {
	type obs struct {
		d time.Time
		v float64
	}
	all := make([]obs, len(dates))
	for i := range dates {
		all[i] = obs{d: day(dates[i]), v: values[i]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].d.Before(all[b].d) })

	days := make([]time.Time, 0, len(all))
	vals := make([]float64, 0, len(all))
	for _, o := range all {
		if n := len(days); n > 0 && days[n-1].Equal(o.d) {
			vals[n-1] = o.v
			continue
		}
		days = append(days, o.d)
		vals = append(vals, o.v)
	}
	return days, vals
}

// weekdayPhases counts the distinct weekdays present. Trading-day history
// has five, which leaves weekend values of the weekly terms unconstrained.
func weekdayPhases(days []time.Time) int {
	var seen [7]bool
	n := 0
	for _, d := range days {
		if wd := d.Weekday(); !seen[wd] {
			seen[wd] = true
			n++
		}
	}
	return n
}

func minSpacing(days []time.Time) float64 {
	best := math.Inf(1)
	for i := 1; i < len(days); i++ {
		best = math.Min(best, daysBetween(days[i-1], days[i]))
	}
	return best
}

func day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
