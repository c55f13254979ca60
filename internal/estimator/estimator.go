package estimator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/metrics"
	"github.com/san-kum/dimerfit/internal/models"
	"github.com/san-kum/dimerfit/internal/optim"
	"github.com/san-kum/dimerfit/internal/stats"
)

type state int

const (
	stateConstructed state = iota
	stateRunning
	stateReady
	stateFailed
)

// Estimator owns one dataset, its point-estimate fit and its bootstrap
// ensemble.
type Estimator struct {
	cfg    Config
	model  models.Model
	bounds optim.Bounds
	p0     []float64

	x, y   []float64
	group  []int
	labels []string
	unipol []bool

	rng      *rand.Rand
	progress func(done, total int)

	state  state
	result *Result
}

type Option func(*Estimator)

// WithRand replaces the source seeded from Config.Seed.
func WithRand(rng *rand.Rand) Option {
	return func(e *Estimator) { e.rng = rng }
}

// WithProgress registers a callback invoked after each bootstrap refit.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Estimator) { e.progress = fn }
}

// New validates cfg and ms and prepares the fit. The measurements are
// copied; later changes to ms do not affect the estimator.
func New(ms []dataset.Measurement, cfg Config, opts ...Option) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dataset.Validate(ms, cfg.Region); err != nil {
		return nil, err
	}

	model, err := cfg.Model()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	bounds, err := cfg.Bounds()
	if err != nil {
		return nil, err
	}

	labels, group, err := resolveGroups(ms, cfg)
	if err != nil {
		return nil, err
	}
	if len(ms) < len(model.ParamNames()) {
		return nil, fmt.Errorf("%w: %d rows for %d parameters", ErrInsufficientData, len(ms), len(model.ParamNames()))
	}

	e := &Estimator{
		cfg:    cfg.clone(),
		model:  model,
		bounds: bounds,
		p0:     cfg.InitialGuess(),
		x:      make([]float64, len(ms)),
		y:      make([]float64, len(ms)),
		group:  group,
		labels: labels,
		unipol: make([]bool, len(ms)),
	}
	for i, m := range ms {
		e.x[i], e.y[i] = m.Cyt, m.Membrane(cfg.Region)
		if cfg.Log {
			e.x[i], e.y[i] = math.Log10(e.x[i]), math.Log10(e.y[i])
		}
		e.unipol[i] = m.UniPol
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return e, nil
}

// resolveGroups maps genotype labels to group indices. Unpaired analyses
// put every row in group 0.
func resolveGroups(ms []dataset.Measurement, cfg Config) ([]string, []int, error) {
	group := make([]int, len(ms))
	if !cfg.Kind.Paired() {
		if len(ms) == 0 {
			return nil, nil, fmt.Errorf("%w: no rows", ErrInsufficientData)
		}
		return []string{"all"}, group, nil
	}

	labels := slices.Clone(cfg.Groups)
	if len(labels) == 0 {
		for _, m := range ms {
			if !slices.Contains(labels, m.Genotype) {
				labels = append(labels, m.Genotype)
			}
		}
		slices.Sort(labels)
		if len(labels) != 2 {
			return nil, nil, fmt.Errorf("%w: paired analysis needs exactly two genotypes, found %q", ErrInvalidConfig, labels)
		}
	}

	counts := make([]int, len(labels))
	for i, m := range ms {
		g := slices.Index(labels, m.Genotype)
		if g < 0 {
			return nil, nil, fmt.Errorf("%w: row %d has genotype %q, want one of %q", ErrInvalidConfig, i+1, m.Genotype, labels)
		}
		group[i] = g
		counts[g]++
	}
	for g, n := range counts {
		if n == 0 {
			return nil, nil, fmt.Errorf("%w for group %q", ErrInsufficientData, labels[g])
		}
	}
	return labels, group, nil
}

// Config returns a copy of the configuration.
func (e *Estimator) Config() Config { return e.cfg.clone() }

// Model returns the selected model variant.
func (e *Estimator) Model() models.Model { return e.model }

// Groups returns the group labels in index order.
func (e *Estimator) Groups() []string { return slices.Clone(e.labels) }

// UniPol returns the per-row unipolar flags. They are not used in fitting.
func (e *Estimator) UniPol() []bool { return slices.Clone(e.unipol) }

// Result returns the result of a successful Run, or nil.
func (e *Estimator) Result() *Result {
	if e.state != stateReady {
		return nil
	}
	return e.result
}

// Run fits the full dataset, bootstraps it and reduces the ensemble to
// bands. It may be called once.
func (e *Estimator) Run(ctx context.Context) (*Result, error) {
	if e.state != stateConstructed {
		return nil, ErrAlreadyRun
	}
	e.state = stateRunning

	res, err := e.run(ctx)
	if err != nil {
		e.state = stateFailed
		return nil, err
	}
	e.result = res
	e.state = stateReady
	return res, nil
}

func (e *Estimator) run(ctx context.Context) (*Result, error) {
	in := models.Inputs{X: e.x, Group: e.group}
	full, err := e.fit(in, e.y)
	if err != nil {
		return nil, fmt.Errorf("full fit: %w", err)
	}
	p := full.Params

	res := &Result{
		Model:      e.model.Name(),
		ParamNames: e.model.ParamNames(),
		Params:     p,
		Interval:   e.cfg.Interval,
		LogSpace:   e.cfg.Log,
		Evals:      full.Evals,
		Metrics:    metrics.Evaluate(e.model.Predict(in, p), e.y, metrics.Default()...),
	}
	for g, label := range e.labels {
		res.Curves = append(res.Curves, e.pointCurve(g, label, p))
	}

	engine := bootstrap.NewEngine(e.rng,
		bootstrap.WithIterations(e.cfg.Iterations),
		bootstrap.WithWorkers(e.cfg.Workers),
		bootstrap.WithProgress(e.progress),
	)
	ensemble, err := bootstrap.Run(ctx, engine, func(rng *rand.Rand, i int) ([]float64, error) {
		idx, err := e.resample(rng)
		if err != nil {
			return nil, &FitError{Iteration: i, Wrapped: err}
		}
		sample := models.Inputs{X: bootstrap.Take(e.x, idx), Group: bootstrap.Take(e.group, idx)}
		r, err := e.fit(sample, bootstrap.Take(e.y, idx))
		if err != nil {
			return nil, &FitError{Iteration: i, Wrapped: err}
		}
		return r.Params, nil
	})
	if err != nil {
		return nil, err
	}
	res.Ensemble = ensemble

	for g := range res.Curves {
		if err := e.reduce(&res.Curves[g], ensemble); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (e *Estimator) fit(in models.Inputs, y []float64) (*optim.Result, error) {
	f := func(p []float64) []float64 { return e.model.Predict(in, p) }
	return optim.CurveFit(f, y, e.p0, e.bounds, e.cfg.Fit)
}

func (e *Estimator) resample(rng *rand.Rand) ([]int, error) {
	if e.cfg.Kind.Paired() {
		return bootstrap.ResampleGroups(rng, e.group, len(e.labels))
	}
	return bootstrap.Indices(rng, len(e.x)), nil
}

// affinity returns the index of group g's affinity in the parameter vector.
func (e *Estimator) affinity(g int) int {
	if e.cfg.Kind.Paired() {
		return g
	}
	return 0
}

func (e *Estimator) pointCurve(g int, label string, p []float64) GroupCurve {
	var obsX, obsY []float64
	for i, gi := range e.group {
		if gi == g {
			obsX = append(obsX, e.x[i])
			obsY = append(obsY, e.y[i])
		}
	}

	grid := floats.Span(make([]float64, e.cfg.GridPoints), floats.Min(obsX), floats.Max(obsX))
	fit := e.model.Predict(models.Constant(grid, g), p)
	ka := p[e.affinity(g)]

	return GroupCurve{
		Group:    g,
		Label:    label,
		ObsX:     obsX,
		ObsY:     obsY,
		X:        grid,
		Affinity: ka,
		Fit:      fit,
		CytDimer: models.DimerPercent(e.linear(grid), ka),
		MemDimer: models.DimerPercent(e.linear(fit), ka),
	}
}

// reduce re-evaluates every ensemble member on the curve's grid and stores
// the percentile bands. Membrane dimer fractions use the point-estimate
// membrane curve with each member's own affinity.
func (e *Estimator) reduce(c *GroupCurve, ensemble [][]float64) error {
	n := len(ensemble)
	fits := make([][]float64, n)
	cyt := make([][]float64, n)
	mem := make([][]float64, n)

	in := models.Constant(c.X, c.Group)
	cytConc := e.linear(c.X)
	memConc := e.linear(c.Fit)
	for j, p := range ensemble {
		ka := p[e.affinity(c.Group)]
		fits[j] = e.model.Predict(in, p)
		cyt[j] = models.DimerPercent(cytConc, ka)
		mem[j] = models.DimerPercent(memConc, ka)
	}

	var err error
	if c.FitLower, c.FitUpper, err = stats.Bands(fits, e.cfg.Interval); err != nil {
		return err
	}
	if c.CytDimerLower, c.CytDimerUpper, err = stats.Bands(cyt, e.cfg.Interval); err != nil {
		return err
	}
	if c.MemDimerLower, c.MemDimerUpper, err = stats.Bands(mem, e.cfg.Interval); err != nil {
		return err
	}
	return nil
}

// linear undoes the log10 transform of log-space analyses.
func (e *Estimator) linear(xs []float64) []float64 {
	if !e.cfg.Log {
		return xs
	}
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Pow(10, v)
	}
	return out
}
