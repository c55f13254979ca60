package estimator_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/estimator"
	"github.com/san-kum/dimerfit/internal/models"
	"github.com/san-kum/dimerfit/internal/optim"
)

const (
	trueKa = 1.0
	trueKm = 0.5
)

func within(x, lo, hi, tol float64) bool {
	return x >= lo-tol && x <= hi+tol
}

var _ = Describe("Estimator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("unpaired fit on synthetic data", func() {
		var (
			est *estimator.Estimator
			res *estimator.Result
		)

		BeforeEach(func() {
			ms := synthetic(rand.New(rand.NewSource(7)), "wt", 50, trueKa, trueKm, 0.002)
			cfg := estimator.DefaultConfig(models.KindUnpaired).WithGuess(0.5, 0.2)
			cfg.Iterations = 200
			cfg.GridPoints = 40

			var err error
			est, err = estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err = est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("recovers the generating parameters", func() {
			ka, err := res.Param("ka")
			Expect(err).NotTo(HaveOccurred())
			km, err := res.Param("km")
			Expect(err).NotTo(HaveOccurred())

			Expect(ka).To(BeNumerically("~", trueKa, 0.05))
			Expect(km).To(BeNumerically("~", trueKm, 0.05))
		})

		It("keeps one ensemble member per iteration", func() {
			Expect(res.Ensemble).To(HaveLen(200))
			for _, p := range res.Ensemble {
				Expect(p).To(HaveLen(2))
			}
		})

		It("spans the concentration range of the data", func() {
			Expect(res.Curves).To(HaveLen(1))
			c := res.Curves[0]
			Expect(c.X).To(HaveLen(40))
			Expect(c.X[0]).To(BeNumerically("~", 0.05, 1e-12))
			Expect(c.X[39]).To(BeNumerically("~", 5, 1e-12))
		})

		It("orders lower, point and upper bands", func() {
			c := res.Curves[0]
			inside := 0
			for i := range c.X {
				Expect(c.FitLower[i]).To(BeNumerically("<=", c.FitUpper[i]))
				Expect(c.CytDimerLower[i]).To(BeNumerically("<=", c.CytDimerUpper[i]))
				Expect(c.MemDimerLower[i]).To(BeNumerically("<=", c.MemDimerUpper[i]))
				if within(c.Fit[i], c.FitLower[i], c.FitUpper[i], 1e-9) {
					inside++
				}
			}
			Expect(float64(inside) / float64(len(c.X))).To(BeNumerically(">=", 0.9))
		})

		It("reports dimer percentages in range", func() {
			c := res.Curves[0]
			for i := range c.X {
				Expect(c.CytDimer[i]).To(BeNumerically(">=", 0))
				Expect(c.CytDimer[i]).To(BeNumerically("<", 100))
				Expect(c.MemDimer[i]).To(BeNumerically(">=", 0))
				Expect(c.MemDimer[i]).To(BeNumerically("<", 100))
			}
			Expect(c.CytDimer[len(c.CytDimer)-1]).To(BeNumerically(">", c.CytDimer[0]))
		})

		It("reports fit metrics", func() {
			Expect(res.Metrics).To(HaveKey("sse"))
			Expect(res.Metrics).To(HaveKey("rmse"))
			Expect(res.Metrics["r2"]).To(BeNumerically(">", 0.95))
		})

		It("gives a parameter interval around the point estimate", func() {
			lo, hi, err := res.ParamInterval("ka")
			Expect(err).NotTo(HaveOccurred())
			Expect(lo).To(BeNumerically("<", hi))

			_, err = res.Param("D")
			Expect(err).To(HaveOccurred())
		})

		It("refuses a second run", func() {
			_, err := est.Run(ctx)
			Expect(err).To(MatchError(estimator.ErrAlreadyRun))
			Expect(est.Result()).To(BeIdenticalTo(res))
		})
	})

	Describe("band coverage", func() {
		It("contains the true curve at most grid points", func() {
			ms := replicates(rand.New(rand.NewSource(7)), "wt", 25, trueKa, trueKm, 0.01)
			cfg := estimator.DefaultConfig(models.KindUnpaired).WithGuess(0.5, 0.2)
			cfg.Iterations = 200
			cfg.GridPoints = 40

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			c := res.Curves[0]
			covered := 0
			for i, x := range c.X {
				truth := models.MembraneFromCytoplasm(math.Pow(10, trueKa), math.Pow(10, trueKm), x)
				if c.FitLower[i] <= truth && truth <= c.FitUpper[i] {
					covered++
				}
			}
			Expect(float64(covered) / float64(len(c.X))).To(BeNumerically(">=", 0.9))
		})
	})

	Describe("default guess", func() {
		It("converges from the saturated starting point", func() {
			ms := synthetic(rand.New(rand.NewSource(7)), "wt", 50, trueKa, trueKm, 0.002)
			cfg := estimator.DefaultConfig(models.KindUnpaired)
			Expect(cfg.InitialGuess()).To(Equal(estimator.DefaultGuess(models.KindUnpaired)))
			cfg.Iterations = 50

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Params[0]).To(BeNumerically("~", trueKa, 0.05))
			Expect(res.Params[1]).To(BeNumerically("~", trueKm, 0.05))
			Expect(res.Ensemble).To(HaveLen(50))
		})

		It("converges for the paired model", func() {
			rng := rand.New(rand.NewSource(11))
			ms := append(synthetic(rng, "wt", 30, trueKa, trueKm, 0.002),
				synthetic(rng, "mut", 30, 0.0, trueKm, 0.002)...)
			cfg := estimator.DefaultConfig(models.KindPaired)
			cfg.Groups = []string{"wt", "mut"}
			cfg.Iterations = 20

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Params[0]).To(BeNumerically("~", trueKa, 0.1))
			Expect(res.Params[1]).To(BeNumerically("~", 0.0, 0.1))
			Expect(res.Params[2]).To(BeNumerically("~", trueKm, 0.1))
		})
	})

	Describe("paired fit", func() {
		var ms []dataset.Measurement

		BeforeEach(func() {
			rng := rand.New(rand.NewSource(11))
			ms = append(synthetic(rng, "wt", 30, trueKa, trueKm, 0.002),
				synthetic(rng, "mut", 30, 0.0, trueKm, 0.002)...)
		})

		It("fits one affinity per group", func() {
			cfg := estimator.DefaultConfig(models.KindPaired).WithGuess(0.5, 0.3, 0.2)
			cfg.Groups = []string{"wt", "mut"}
			cfg.Iterations = 50

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(est.Groups()).To(Equal([]string{"wt", "mut"}))

			res, err := est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.ParamNames).To(Equal([]string{"ka1", "ka2", "km"}))
			Expect(res.Params[0]).To(BeNumerically("~", trueKa, 0.1))
			Expect(res.Params[1]).To(BeNumerically("~", 0.0, 0.1))
			Expect(res.Params[2]).To(BeNumerically("~", trueKm, 0.1))

			Expect(res.Curves).To(HaveLen(2))
			mut, ok := res.Curve("mut")
			Expect(ok).To(BeTrue())
			Expect(mut.Affinity).To(Equal(res.Params[1]))
			Expect(mut.ObsX).To(HaveLen(30))
		})

		It("holds a fixed affinity across the whole ensemble", func() {
			cfg := estimator.DefaultConfig(models.KindPaired).WithGuess(trueKa, 0.3, 0.2).Fix("ka1")
			cfg.Groups = []string{"wt", "mut"}
			cfg.Iterations = 50

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			res, err := est.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Params[0]).To(BeNumerically("~", trueKa, optim.FixEpsilon))
			for _, p := range res.Ensemble {
				Expect(p[0]).To(BeNumerically("~", trueKa, optim.FixEpsilon))
			}
		})

		It("resolves groups from sorted genotype labels", func() {
			cfg := estimator.DefaultConfig(models.KindPaired)
			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(est.Groups()).To(Equal([]string{"mut", "wt"}))
		})

		It("gives the same ensemble for any worker count", func() {
			cfg := estimator.DefaultConfig(models.KindPaired).WithGuess(0.5, 0.3, 0.2)
			cfg.Iterations = 20

			cfg.Workers = 1
			a, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			ra, err := a.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			cfg.Workers = 4
			b, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			rb, err := b.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(rb.Ensemble).To(Equal(ra.Ensemble))
		})
	})

	Describe("construction errors", func() {
		var ms []dataset.Measurement

		BeforeEach(func() {
			ms = synthetic(rand.New(rand.NewSource(3)), "wt", 10, trueKa, trueKm, 0.01)
		})

		It("rejects an unknown region eagerly", func() {
			cfg := estimator.DefaultConfig(models.KindUnpaired)
			cfg.Region = "anterior"
			_, err := estimator.New(ms, cfg)
			Expect(err).To(MatchError(estimator.ErrInvalidConfig))
			Expect(errors.Is(err, dataset.ErrUnknownRegion)).To(BeTrue())
		})

		It("fails on a group with no rows", func() {
			cfg := estimator.DefaultConfig(models.KindPaired)
			cfg.Groups = []string{"wt", "mut"}
			_, err := estimator.New(ms, cfg)
			Expect(err).To(MatchError(estimator.ErrInsufficientData))
			Expect(err.Error()).To(ContainSubstring(`group "mut"`))
		})

		It("rejects a single genotype without explicit groups", func() {
			_, err := estimator.New(ms, estimator.DefaultConfig(models.KindPaired))
			Expect(err).To(MatchError(estimator.ErrInvalidConfig))
		})

		It("rejects NaN measurements", func() {
			ms[3].MemPost = math.NaN()
			_, err := estimator.New(ms, estimator.DefaultConfig(models.KindUnpaired))
			Expect(err).To(MatchError(dataset.ErrInvalidValue))
		})

		It("ignores the region it does not analyse", func() {
			ms[3].MemTot = math.NaN()
			_, err := estimator.New(ms, estimator.DefaultConfig(models.KindUnpaired))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects fixing an unknown parameter", func() {
			cfg := estimator.DefaultConfig(models.KindUnpaired).Fix("ka2")
			_, err := estimator.New(ms, cfg)
			Expect(err).To(MatchError(estimator.ErrInvalidConfig))
		})

		It("rejects a guess of the wrong length", func() {
			cfg := estimator.DefaultConfig(models.KindPairedScaled).WithGuess(1, 2, 3)
			Expect(cfg.Validate()).To(MatchError(estimator.ErrInvalidConfig))
		})

		It("rejects fewer rows than parameters", func() {
			_, err := estimator.New(ms[:1], estimator.DefaultConfig(models.KindUnpaired))
			Expect(err).To(MatchError(estimator.ErrInsufficientData))
		})
	})

	Describe("non-convergence", func() {
		It("propagates from the full fit", func() {
			ms := synthetic(rand.New(rand.NewSource(5)), "wt", 20, trueKa, trueKm, 0.02)
			cfg := estimator.DefaultConfig(models.KindUnpaired).WithGuess(0.5, 0.2)
			cfg.Fit.MaxEvals = 2
			cfg.Iterations = 5

			est, err := estimator.New(ms, cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = est.Run(ctx)
			Expect(err).To(MatchError(optim.ErrNoConvergence))
			Expect(est.Result()).To(BeNil())

			_, err = est.Run(ctx)
			Expect(err).To(MatchError(estimator.ErrAlreadyRun))
		})

		It("names the failing bootstrap iteration", func() {
			err := error(&estimator.FitError{Iteration: 17, Wrapped: optim.ErrNoConvergence})
			var fe *estimator.FitError
			Expect(errors.As(err, &fe)).To(BeTrue())
			Expect(fe.Iteration).To(Equal(17))
			Expect(err).To(MatchError(optim.ErrNoConvergence))
			Expect(err.Error()).To(ContainSubstring("iteration 17"))
		})
	})

	Describe("config", func() {
		It("returns modified copies", func() {
			base := estimator.DefaultConfig(models.KindPaired)
			fixed := base.FixAffinity(1)
			Expect(base.Fixed).To(BeEmpty())
			Expect(fixed.Fixed).To(Equal([]string{"ka2"}))
			Expect(fixed.Fix("ka2").Fixed).To(HaveLen(1))
		})

		It("derives default guesses per kind", func() {
			Expect(estimator.DefaultConfig(models.KindUnpaired).InitialGuess()).To(Equal([]float64{15, 5}))
			Expect(estimator.DefaultConfig(models.KindPaired).InitialGuess()).To(Equal([]float64{15, 15, 5}))
			Expect(estimator.DefaultConfig(models.KindPairedScaled).InitialGuess()).To(Equal([]float64{15, 15, 5, 0}))
		})

		It("collapses bounds around fixed parameters", func() {
			b, err := estimator.DefaultConfig(models.KindPaired).Fix("km").Bounds()
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Lower[2]).To(BeNumerically("~", 5-optim.FixEpsilon, 1e-12))
			Expect(b.Upper[2]).To(BeNumerically("~", 5+optim.FixEpsilon, 1e-12))
			Expect(math.IsInf(b.Lower[0], -1)).To(BeTrue())
		})
	})
	Describe("guess search", func() {
		var ms []dataset.Measurement

		BeforeEach(func() {
			ms = synthetic(rand.New(rand.NewSource(3)), "wt", 30, trueKa, trueKm, 0.002)
		})

		It("lands near the generating parameters", func() {
			cfg, err := estimator.SearchGuess(ctx, ms, estimator.DefaultConfig(models.KindUnpaired), -1, 3, 41)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Guess).To(HaveLen(2))
			Expect(cfg.Guess[0]).To(BeNumerically("~", trueKa, 0.15))
			Expect(cfg.Guess[1]).To(BeNumerically("~", trueKm, 0.15))
		})

		It("leaves fixed parameters at their guess", func() {
			base := estimator.DefaultConfig(models.KindUnpaired).WithGuess(0.5, 0.2).Fix("km")
			cfg, err := estimator.SearchGuess(ctx, ms, base, -1, 3, 21)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Guess[1]).To(Equal(0.2))
			Expect(cfg.Fixed).To(Equal([]string{"km"}))
		})

		It("rejects an empty grid", func() {
			_, err := estimator.SearchGuess(ctx, ms, estimator.DefaultConfig(models.KindUnpaired), 1, 1, 5)
			Expect(err).To(MatchError(estimator.ErrInvalidConfig))
		})
	})
})
