// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// daemonConfig is fabricd's own process configuration: listen address,
// debug logging, and the numeric knobs passed through to fabric.Config.
// Loaded from YAML with environment overrides — confined entirely to this
// executable, since the core fabric package reads no environment variables
// (spec §6).
type daemonConfig struct {
	ListenAddr               string        `yaml:"listen_addr"`
	Debug                    bool          `yaml:"debug"`
	SignificanceBoost        float64       `yaml:"significance_boost"`
	SignificanceHalfLife     float64       `yaml:"significance_half_life"`
	TickResolution           time.Duration `yaml:"tick_resolution"`
	PartnerReorderThreshold  float64       `yaml:"partner_reorder_threshold"`
	MaxRecursionDepth        int           `yaml:"max_recursion_depth"`
	MaintenanceSweepInterval time.Duration `yaml:"maintenance_sweep_interval"`
	MaintenanceSweepRate     float64       `yaml:"maintenance_sweep_rate"`
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{
		ListenAddr:               ":8080",
		Debug:                    false,
		SignificanceBoost:        1.0,
		SignificanceHalfLife:     600,
		TickResolution:           100 * time.Millisecond,
		PartnerReorderThreshold:  0.05,
		MaxRecursionDepth:        20,
		MaintenanceSweepInterval: 500 * time.Millisecond,
		MaintenanceSweepRate:     200,
	}
}

// loadDaemonConfig reads path (if it exists — a missing config file is not
// an error, matching a daemon meant to run with sane defaults out of the
// box) and applies FABRICD_* environment overrides on top, grounded on
// cmd/aleutian/main.go's yaml.Unmarshal(yamlFile, &config) PersistentPreRun
// step.
func loadDaemonConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *daemonConfig) {
	if v := os.Getenv("FABRICD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("FABRICD_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
	if v := os.Getenv("FABRICD_SIGNIFICANCE_HALF_LIFE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.SignificanceHalfLife = f
		}
	}
	if v := os.Getenv("FABRICD_MAX_RECURSION_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRecursionDepth = n
		}
	}
}
