// Copyright 2020 U.S. Naval Research Laboratory
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dovetail

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/rwails/tempest/pkg/asrel"
	"github.com/rwails/tempest/pkg/private/serrors"
)

// ExperimentConfig tunes the sampling experiments. The zero value is not
// usable; start from DefaultExperimentConfig.
type ExperimentConfig struct {
	// LooseVFASes lists ASes that route loose valley-free. Empty means
	// strict valley-free everywhere.
	LooseVFASes []asrel.ASNumber `toml:"loose_vf_ases"`
	// MaxPaths bounds the number of paths the DFS collects per draw.
	MaxPaths int `toml:"max_paths"`
	// MaxPathScale bounds DFS path length to diameter * MaxPathScale
	// vertices.
	MaxPathScale int `toml:"max_path_scale"`
	// MinDovetailCost is the minimum eligible path cost; it guarantees
	// sampled paths are long enough to carry a dovetail AS.
	MinDovetailCost int `toml:"min_dovetail_cost"`
}

// DefaultExperimentConfig returns the experiment defaults.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		MaxPaths:        20000,
		MaxPathScale:    3,
		MinDovetailCost: 6,
	}
}

// LoadExperimentConfig reads a TOML experiment config, applying the file
// on top of the defaults.
func LoadExperimentConfig(filename string) (ExperimentConfig, error) {
	cfg := DefaultExperimentConfig()
	raw, err := os.ReadFile(filename)
	if err != nil {
		return cfg, serrors.Wrap("reading experiment config", err, "file", filename)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, serrors.Wrap("decoding experiment config", err, "file", filename)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the config bounds.
func (cfg ExperimentConfig) Validate() error {
	if cfg.MaxPaths <= 0 {
		return serrors.New("max_paths must be positive", "value", cfg.MaxPaths)
	}
	if cfg.MaxPathScale <= 0 {
		return serrors.New("max_path_scale must be positive", "value", cfg.MaxPathScale)
	}
	if cfg.MinDovetailCost <= 0 {
		return serrors.New("min_dovetail_cost must be positive",
			"value", cfg.MinDovetailCost)
	}
	return nil
}

// looseVFSet converts the configured list into set form for BuildGraph.
func (cfg ExperimentConfig) looseVFSet() map[asrel.ASNumber]struct{} {
	set := make(map[asrel.ASNumber]struct{}, len(cfg.LooseVFASes))
	for _, asn := range cfg.LooseVFASes {
		set[asn] = struct{}{}
	}
	return set
}
