package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimerfit/internal/bootstrap"
	"github.com/san-kum/dimerfit/internal/dataset"
	"github.com/san-kum/dimerfit/internal/regression"
	"github.com/san-kum/dimerfit/internal/stats"
	"github.com/san-kum/dimerfit/internal/statstable"
)

var (
	xMin, xMax float64

	groupCol   string
	valueCol   string
	sampleA    string
	sampleB    string
	statsTable string
	figure     string
	panel      string
	measure    string
	key        string
)

func runExponent(cmd *cobra.Command, args []string) error {
	r, err := dataset.ParseRegion(region)
	if err != nil {
		return err
	}
	ms, err := loadMeasurements(args[0])
	if err != nil {
		return err
	}

	cfg := regression.DefaultConfig()
	cfg.Region = r
	cfg.Interval = interval
	cfg.GridPoints = gridPoints
	if cmd.Flags().Changed("xmin") {
		cfg.XMin = xMin
	}
	if cmd.Flags().Changed("xmax") {
		cfg.XMax = xMax
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := bootstrap.NewSeeded(seed,
		bootstrap.WithIterations(iterations),
		bootstrap.WithWorkers(workers),
	)
	res, err := regression.Estimate(ctx, engine, ms, cfg)
	if err != nil {
		return err
	}

	lo, hi := res.ExponentInterval()
	fmt.Printf("rows:      %d\n", len(ms))
	fmt.Printf("exponent:  %.4f  [%.4f, %.4f] (%g%%)\n", res.Line.Slope, lo, hi, res.Interval)
	fmt.Printf("intercept: %.4f\n", res.Line.Intercept)
	if lo <= 1 && 1 <= hi {
		fmt.Println("interval includes 1: consistent with linear recruitment")
	}
	return nil
}

func runEffect(cmd *cobra.Command, args []string) error {
	tbl, err := dataset.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := bootstrap.NewSeeded(seed, bootstrap.WithIterations(iterations))
	es, err := stats.EffectSizeFromTable(ctx, engine, tbl, groupCol, valueCol, sampleA, sampleB, interval)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s (n=%d) vs %s (n=%d)\n", valueCol, sampleA, es.NA, sampleB, es.NB)
	fmt.Printf("mean difference: %.4g  [%.4g, %.4g] (%g%%)\n", es.Point, es.Lower, es.Upper, es.Interval)
	if es.NA < minGroupRows || es.NB < minGroupRows {
		warnf(os.Stderr, "small samples, interval may be unreliable")
	}
	if math.IsNaN(es.Lower) {
		warnf(os.Stderr, "no bootstrap interval")
	}

	if statsTable == "" {
		return nil
	}
	if key == "" {
		key = fmt.Sprintf("%s_%s_%s_%s_%s", figure, panel, sampleA, sampleB, valueCol)
	}
	if measure == "" {
		measure = valueCol
	}
	row := statstable.FromEffect(figure, panel, sampleA, sampleB, measure, key, es)
	if err := statstable.UpsertRow(statsTable, row); err != nil {
		return fmt.Errorf("failed to update stats table: %w", err)
	}
	fmt.Printf("updated %s (key %s)\n", statsTable, key)
	return nil
}
