package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimerfit/internal/export"
	"github.com/san-kum/dimerfit/internal/storage"
	"github.com/san-kum/dimerfit/internal/viz"
)

var (
	histParam    string
	outPath      string
	withEnsemble bool
	svgWidth     int
	svgHeight    int
)

const histBins = 30

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tMODEL\tREGION\tGROUPS\tITERATIONS\tSOURCE\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Region,
			strings.Join(run.Groups, ","),
			run.Iterations,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	qty, err := viz.ParseQuantity(plotQty)
	if err != nil {
		return err
	}
	theme, err := resolveTheme(themeName)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	meta, res, err := store.LoadResult(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	fmt.Printf("run %s  source %s  region %s  seed %d  codec %s\n\n",
		meta.ID, meta.Source, meta.Region, meta.Seed, meta.Codec)
	fmt.Println(viz.Summary(res, theme))

	for i := range res.Curves {
		fmt.Println(viz.BandPlot(&res.Curves[i], qty, res.Interval))
		fmt.Println()
	}

	if histParam != "" {
		samples, err := res.ParamSamples(histParam)
		if err != nil {
			return err
		}
		lo, hi, _ := res.ParamInterval(histParam)
		caption := fmt.Sprintf("%s bootstrap distribution, %g%% interval [%.4g, %.4g]", histParam, res.Interval, lo, hi)
		fmt.Println(viz.Histogram(samples, histBins, caption))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	_, res, err := store.LoadResult(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteJSON(w, args[0], res, withEnsemble); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Printf("exported to %s\n", outPath)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	qty, err := viz.ParseQuantity(plotQty)
	if err != nil {
		return err
	}
	theme, err := resolveTheme(themeName)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	_, res, err := store.LoadResult(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	svg, err := export.BandsToSVG(res, qty, theme, svgWidth, svgHeight)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = fmt.Sprintf("%s_%s.svg", args[0], qty)
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}
