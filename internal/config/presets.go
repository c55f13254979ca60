package config

// Paired presets label the wild type as group 0.
var pairedGroups = []string{"WT", "L109R"}

var Presets = map[string]map[string]*Config{
	"paired": {
		"post":      paired(func(c *Config) {}),
		"whole":     paired(func(c *Config) { c.Region = "whole" }),
		"fixed_wt":  paired(func(c *Config) { c.Fixed = []string{"ka1"} }),
		"fixed_mut": paired(func(c *Config) { c.Fixed = []string{"ka2"} }),
		"log":       paired(func(c *Config) { c.Log = true }),
		"scaled": paired(func(c *Config) {
			c.Model = "paired_scaled"
			c.Log = true
		}),
	},
	"unpaired": {
		"post":  unpaired(func(c *Config) {}),
		"whole": unpaired(func(c *Config) { c.Region = "whole" }),
		"log":   unpaired(func(c *Config) { c.Log = true }),
	},
}

func paired(mod func(*Config)) *Config {
	c := DefaultConfig()
	c.Groups = pairedGroups
	mod(c)
	return c
}

func unpaired(mod func(*Config)) *Config {
	c := DefaultConfig()
	c.Model = "unpaired"
	mod(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
