/*
Package config loads eventchain bus settings from YAML, JSON or TOML.

# Overview

Config wraps a map[string]any and provides typed accessor methods that
return defaults on missing keys or type mismatches. Keys may be dotted
paths that walk nested sections:

	cfg, err := config.FromFile("bus.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	limit := cfg.Int("max_listeners", 10)
	driver := cfg.String("journal.driver", "")

# Settings

Settings decodes and validates the keys the bus understands:

	settings, err := cfg.Settings()
	bus, err := eventchain.NewFromConfig(cfg)

# Type Coercion

Duration accepts strings ("30s"), numbers (seconds) and time.Duration.
Int accepts float64 only when it has no fractional part, which is how
JSON decodes integers. TOML integers decode as int64.
*/
package config
