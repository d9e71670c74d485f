package config

import "sort"

// Presets adjust a base config. The CLI applies one to the defaults before
// the config file is read over it.
var Presets = map[string]func(*Config){
	"classic": func(c *Config) {
		c.Background = "#111111"
		c.Antialias = false
		c.Particles.Enabled = false
	},
	"midnight": func(c *Config) {
		c.Background = "#05070f"
		c.Particles.Color = "#6fa8ff"
		c.Particles.Count = 400
		c.Particles.Gravity = 120
	},
	"smooth": func(c *Config) {
		c.Antialias = true
		c.Particles.Size = 4
		c.Particles.Integrator = "verlet"
	},
	"sparse": func(c *Config) {
		c.Particles.Count = 40
		c.Particles.Size = 6
		c.Particles.Speed = 90
	},
	"storm": func(c *Config) {
		c.Background = "#1a1a22"
		c.Particles.Count = 1500
		c.Particles.Gravity = 900
		c.Particles.Speed = 420
		c.Particles.Size = 1.5
		c.Particles.Integrator = "euler"
	},
}

func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
