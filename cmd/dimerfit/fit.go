package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/estimator"
	"github.com/san-kum/dimerfit/internal/storage"
	"github.com/san-kum/dimerfit/internal/tui"
	"github.com/san-kum/dimerfit/internal/viz"
)

// minGroupRows is the group size below which percentile bands get coarse.
const minGroupRows = 10

var (
	guessSearch bool
	guessLo     float64
	guessHi     float64
	guessPoints int
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadMeasurements(path string) ([]dataset.Measurement, error) {
	ms, err := dataset.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if unipolOnly {
		before := len(ms)
		ms = dataset.Filter(ms, func(m dataset.Measurement) bool { return m.UniPol })
		if len(ms) == 0 {
			return nil, fmt.Errorf("no unipolar rows in %s", path)
		}
		if len(ms) < before {
			fmt.Printf("kept %d of %d rows (unipolar)\n", len(ms), before)
		}
	}
	return ms, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ecfg, err := cfg.Estimator()
	if err != nil {
		return err
	}
	codec, err := storage.CodecByName(cfg.Storage.Codec)
	if err != nil {
		return err
	}

	theme, err := resolveTheme(themeName)
	if err != nil {
		return err
	}

	var qty viz.Quantity
	if fitPlot != "" {
		if qty, err = viz.ParseQuantity(fitPlot); err != nil {
			return err
		}
	}

	ms, err := loadMeasurements(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if guessSearch {
		ecfg, err = estimator.SearchGuess(ctx, ms, ecfg, guessLo, guessHi, guessPoints)
		if err != nil {
			return err
		}
		fmt.Printf("initial guess: %v\n", ecfg.Guess)
	}

	res, est, err := estimate(ctx, ms, ecfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}

	for _, c := range res.Curves {
		if n := len(c.ObsX); n < minGroupRows {
			warnf(os.Stderr, "group %d (%s) has only %d rows", c.Group, c.Label, n)
		}
	}
	if len(res.Ensemble) < est.Config().Iterations {
		warnf(os.Stderr, "ensemble holds %d of %d iterations", len(res.Ensemble), est.Config().Iterations)
	}

	fmt.Println(viz.Summary(res, theme))

	if qty != "" {
		for i := range res.Curves {
			fmt.Println(viz.BandPlot(&res.Curves[i], qty, res.Interval))
			fmt.Println()
		}
	}

	if noSave {
		return nil
	}
	store := storage.New(dataDir, storage.WithCodec(codec))
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	runID, err := store.Save(args[0], ecfg, res)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func estimate(ctx context.Context, ms []dataset.Measurement, cfg estimator.Config) (*estimator.Result, *estimator.Estimator, error) {
	if !progress {
		est, err := estimator.New(ms, cfg)
		if err != nil {
			return nil, nil, err
		}
		res, err := est.Run(ctx)
		return res, est, err
	}

	var (
		est *estimator.Estimator
		res *estimator.Result
	)
	err := tui.RunWithProgress(ctx, "bootstrapping "+cfg.Kind.String(), func(ctx context.Context, report func(done, total int)) error {
		var err error
		est, err = estimator.New(ms, cfg, estimator.WithProgress(report))
		if err != nil {
			return err
		}
		res, err = est.Run(ctx)
		return err
	})
	return res, est, err
}
