package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/dimerfit/internal/config"
	"github.com/san-kum/dimerfit/internal/viz"
)

func fitCommand(t *testing.T) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	cmd, _, err := newRootCmd().Find([]string{"fit"})
	if err != nil {
		t.Fatalf("find fit: %v", err)
	}
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd := fitCommand(t)
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Model != "paired" {
		t.Errorf("expected paired, got %s", cfg.Model)
	}
	if cfg.Bootstrap.Iterations != config.DefaultIterations {
		t.Errorf("expected %d iterations, got %d", config.DefaultIterations, cfg.Bootstrap.Iterations)
	}
}

func TestLoadConfigPresetThenFlags(t *testing.T) {
	cmd := fitCommand(t)
	preset = "paired/whole"
	if err := cmd.Flags().Set("iterations", "50"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Region != "whole" {
		t.Errorf("expected preset region whole, got %s", cfg.Region)
	}
	if cfg.Bootstrap.Iterations != 50 {
		t.Errorf("expected flag to override iterations, got %d", cfg.Bootstrap.Iterations)
	}
	if len(cfg.Groups) != 2 {
		t.Errorf("expected preset groups, got %v", cfg.Groups)
	}
}

func TestLoadConfigFileOverridesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fit.yaml")
	file := config.DefaultConfig()
	file.Model = "unpaired"
	file.Seed = 7
	if err := config.Save(path, file); err != nil {
		t.Fatal(err)
	}

	cmd := fitCommand(t)
	preset = "paired/log"
	configFile = path
	if err := cmd.Flags().Set("seed", "9"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Model != "unpaired" {
		t.Errorf("expected config file model, got %s", cfg.Model)
	}
	if cfg.Seed != 9 {
		t.Errorf("expected seed flag 9, got %d", cfg.Seed)
	}
}

func TestLoadConfigBadPreset(t *testing.T) {
	cmd := fitCommand(t)
	for _, p := range []string{"paired", "paired/nope"} {
		preset = p
		if _, err := loadConfig(cmd); err == nil {
			t.Errorf("expected error for preset %q", p)
		}
	}
}

func TestPlotDefaultsPerCommand(t *testing.T) {
	root := newRootCmd()
	if fitPlot != "" {
		t.Errorf("expected fit to plot nothing by default, got %q", fitPlot)
	}
	if plotQty != "fit" {
		t.Errorf("expected show/export-svg default fit, got %q", plotQty)
	}
	for _, name := range []string{"fit", "show", "export-svg"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil {
			t.Fatalf("find %s: %v", name, err)
		}
		if cmd.Flags().Lookup("plot") == nil {
			t.Errorf("%s has no --plot flag", name)
		}
	}
}

func TestResolveTheme(t *testing.T) {
	for _, name := range viz.ThemeNames() {
		th, err := resolveTheme(name)
		if err != nil {
			t.Errorf("theme %s: %v", name, err)
		}
		if th.Name != name {
			t.Errorf("expected %s, got %s", name, th.Name)
		}
	}
	if _, err := resolveTheme("neon"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestWarnfQuiet(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "warn")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	quiet = true
	warnf(f, "hidden %d", 1)
	quiet = false
	warnf(f, "shown %d", 2)

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "WARN: shown 2\n" {
		t.Errorf("unexpected output %q", data)
	}
}
