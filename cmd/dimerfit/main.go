package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimerfit/internal/config"
	"github.com/san-kum/dimerfit/internal/viz"
)

var (
	dataDir string
	quiet   bool

	// Analysis parameters
	modelName  string
	region     string
	logSpace   bool
	guess      []float64
	fixed      []string
	groups     []string
	iterations int
	interval   float64
	gridPoints int
	seed       int64
	workers    int
	maxEvals   int
	codecName  string
	// Config file
	configFile string
	// Preset name, model/preset
	preset string

	unipolOnly bool
	progress   bool
	noSave     bool
	fitPlot    string
	plotQty    string
	themeName  string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dimerfit",
		Short:         "dimerization model fits with bootstrap confidence bands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dimerfit", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress warnings")

	fitCmd := &cobra.Command{
		Use:   "fit [quantification.csv]",
		Short: "fit a model and bootstrap its confidence bands",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&modelName, "model", "paired", "model: unpaired, paired, paired_scaled")
	fitCmd.Flags().StringVar(&region, "region", "post", "membrane region: post or whole")
	fitCmd.Flags().BoolVar(&logSpace, "log", false, "fit in log10 space")
	fitCmd.Flags().Float64SliceVar(&guess, "guess", nil, "initial parameter guess")
	fitCmd.Flags().StringSliceVar(&fixed, "fix", nil, "parameters held at their initial guess")
	fitCmd.Flags().StringSliceVar(&groups, "groups", nil, "genotype labels of group 0 and group 1")
	fitCmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "bootstrap iterations")
	fitCmd.Flags().Float64Var(&interval, "interval", config.DefaultInterval, "confidence interval width in percent")
	fitCmd.Flags().IntVar(&gridPoints, "grid", config.DefaultGridPoints, "prediction grid points per group")
	fitCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	fitCmd.Flags().IntVar(&workers, "workers", 1, "parallel bootstrap workers")
	fitCmd.Flags().IntVar(&maxEvals, "max-evals", 0, "function evaluation budget per fit")
	fitCmd.Flags().StringVar(&codecName, "codec", config.DefaultCodec, "ensemble compression: none, zstd, lz4")
	fitCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration (model/name)")
	fitCmd.Flags().BoolVar(&unipolOnly, "unipol", false, "only use unipolar embryos")
	fitCmd.Flags().BoolVar(&progress, "progress", false, "show bootstrap progress")
	fitCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	fitCmd.Flags().StringVar(&fitPlot, "plot", "", "plot a band after fitting: fit, cyt_dimer, mem_dimer")
	fitCmd.Flags().StringVar(&themeName, "theme", "paper", themeUsage)
	fitCmd.Flags().BoolVar(&guessSearch, "search-guess", false, "grid-search the initial guess before fitting")
	fitCmd.Flags().Float64Var(&guessLo, "search-lo", -2, "lower end of the guess grid")
	fitCmd.Flags().Float64Var(&guessHi, "search-hi", 18, "upper end of the guess grid")
	fitCmd.Flags().IntVar(&guessPoints, "search-points", 11, "guess grid points per parameter")

	exponentCmd := &cobra.Command{
		Use:   "exponent [quantification.csv]",
		Short: "power-law exponent of membrane against cytoplasm",
		Args:  cobra.ExactArgs(1),
		RunE:  runExponent,
	}
	exponentCmd.Flags().StringVar(&region, "region", "post", "membrane region: post or whole")
	exponentCmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "bootstrap iterations")
	exponentCmd.Flags().Float64Var(&interval, "interval", config.DefaultInterval, "confidence interval width in percent")
	exponentCmd.Flags().IntVar(&gridPoints, "grid", config.DefaultGridPoints, "prediction grid points")
	exponentCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	exponentCmd.Flags().IntVar(&workers, "workers", 1, "parallel bootstrap workers")
	exponentCmd.Flags().Float64Var(&xMin, "xmin", 0, "lower end of the log10 grid")
	exponentCmd.Flags().Float64Var(&xMax, "xmax", 0, "upper end of the log10 grid")
	exponentCmd.Flags().BoolVar(&unipolOnly, "unipol", false, "only use unipolar embryos")

	effectCmd := &cobra.Command{
		Use:   "effect [table.csv]",
		Short: "bootstrap effect size between two groups",
		Args:  cobra.ExactArgs(1),
		RunE:  runEffect,
	}
	effectCmd.Flags().StringVar(&groupCol, "group-col", "Genotype", "categorical column")
	effectCmd.Flags().StringVar(&valueCol, "value-col", "", "continuous column")
	effectCmd.Flags().StringVar(&sampleA, "a", "", "label of sample A")
	effectCmd.Flags().StringVar(&sampleB, "b", "", "label of sample B")
	effectCmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "bootstrap iterations")
	effectCmd.Flags().Float64Var(&interval, "interval", config.DefaultInterval, "confidence interval width in percent")
	effectCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	effectCmd.Flags().StringVar(&statsTable, "stats-table", "", "upsert the result into this stats table")
	effectCmd.Flags().StringVar(&figure, "figure", "", "figure label for the stats table")
	effectCmd.Flags().StringVar(&panel, "panel", "", "panel label for the stats table")
	effectCmd.Flags().StringVar(&measure, "measure", "", "measure name for the stats table")
	effectCmd.Flags().StringVar(&key, "key", "", "unique stats table key")
	effectCmd.MarkFlagRequired("value-col")
	effectCmd.MarkFlagRequired("a")
	effectCmd.MarkFlagRequired("b")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarise a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&plotQty, "plot", "fit", "band to plot: fit, cyt_dimer, mem_dimer")
	showCmd.Flags().StringVar(&histParam, "hist", "", "plot the bootstrap distribution of a parameter")
	showCmd.Flags().StringVar(&themeName, "theme", "paper", themeUsage)

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run results to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportJSONCmd.Flags().BoolVar(&withEnsemble, "ensemble", false, "include the bootstrap ensemble")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export confidence bands as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>_<quantity>.svg)")
	exportSVGCmd.Flags().StringVar(&plotQty, "plot", "fit", "band to draw: fit, cyt_dimer, mem_dimer")
	exportSVGCmd.Flags().StringVar(&themeName, "theme", "paper", themeUsage)
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s/%s\n", args[0], p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(fitCmd, exponentCmd, effectCmd, listCmd, showCmd, exportJSONCmd, exportSVGCmd, presetsCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var themeUsage = "colour theme: " + strings.Join(viz.ThemeNames(), ", ")

// resolveTheme rejects names GetTheme would silently replace.
func resolveTheme(name string) (viz.Theme, error) {
	if !slices.Contains(viz.ThemeNames(), name) {
		return viz.Theme{}, fmt.Errorf("unknown theme %q (available: %s)", name, strings.Join(viz.ThemeNames(), ", "))
	}
	return viz.GetTheme(name), nil
}

func warnf(dst io.Writer, format string, a ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(dst, "WARN: "+format+"\n", a...)
}

// loadConfig applies preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		model, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be model/name, got %q", preset)
		}
		p := config.GetPreset(model, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") || (preset == "" && configFile == "") {
		cfg.Model = modelName
	}
	if flags.Changed("region") {
		cfg.Region = region
	}
	if flags.Changed("log") {
		cfg.Log = logSpace
	}
	if flags.Changed("guess") {
		cfg.Guess = guess
	}
	if flags.Changed("fix") {
		cfg.Fixed = fixed
	}
	if flags.Changed("groups") {
		cfg.Groups = groups
	}
	if flags.Changed("iterations") {
		cfg.Bootstrap.Iterations = iterations
	}
	if flags.Changed("interval") {
		cfg.Bootstrap.Interval = interval
	}
	if flags.Changed("grid") {
		cfg.Bootstrap.GridPoints = gridPoints
	}
	if flags.Changed("workers") {
		cfg.Bootstrap.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("max-evals") {
		cfg.Fit.MaxEvals = maxEvals
	}
	if flags.Changed("codec") {
		cfg.Storage.Codec = codecName
	}
	return cfg, nil
}
