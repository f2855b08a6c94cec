/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of HPOTC project.
 *
 * HPOTC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package config

const (
	stoveDefaultMinKW    = 1.0
	stoveDefaultMaxKW    = 5.0
	stoveDefaultOnDelta  = 2.0
	stoveDefaultOffDelta = 0.8
	stoveDefaultRate     = 0.05

	sourcesDefaultKWToDegrees = 0.6
	sourcesDefaultBaselineKW  = 0.25
	solarDefaultWindowGain    = 0.8
)

// StoveConfig bounds the secondary-heater learner. The kW-equivalent
// range is per-installation (stove size and placement vary too much
// for a fixed constant).
type StoveConfig struct {
	MinKW    *float64 `yaml:"min_kw"`
	MaxKW    *float64 `yaml:"max_kw"`
	OnDelta  *float64 `yaml:"on_delta"`
	OffDelta *float64 `yaml:"off_delta"`
	Rate     *float64 `yaml:"rate"`
}

func (c *StoveConfig) FillDefaults() {
	if c.MinKW == nil {
		c.MinKW = GetPTR(stoveDefaultMinKW)
	}
	if c.MaxKW == nil {
		c.MaxKW = GetPTR(stoveDefaultMaxKW)
	}
	if c.OnDelta == nil {
		c.OnDelta = GetPTR(stoveDefaultOnDelta)
	}
	if c.OffDelta == nil {
		c.OffDelta = GetPTR(stoveDefaultOffDelta)
	}
	if c.Rate == nil {
		c.Rate = GetPTR(stoveDefaultRate)
	}
}

type SolarConfig struct {
	WindowGain *float64 `yaml:"window_gain"`
}

func (c *SolarConfig) FillDefaults() {
	if c.WindowGain == nil {
		c.WindowGain = GetPTR(solarDefaultWindowGain)
	}
}

type SourcesConfig struct {
	Stove       *StoveConfig `yaml:"stove"`
	Solar       *SolarConfig `yaml:"solar"`
	KWToDegrees *float64     `yaml:"kw_to_degrees"`
	BaselineKW  *float64     `yaml:"baseline_kw"`
}

func NewSourcesConfig() *SourcesConfig {
	cfg := &SourcesConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *SourcesConfig) FillDefaults() {
	if c.Stove == nil {
		c.Stove = &StoveConfig{}
	}
	c.Stove.FillDefaults()
	if c.Solar == nil {
		c.Solar = &SolarConfig{}
	}
	c.Solar.FillDefaults()
	if c.KWToDegrees == nil {
		c.KWToDegrees = GetPTR(sourcesDefaultKWToDegrees)
	}
	if c.BaselineKW == nil {
		c.BaselineKW = GetPTR(sourcesDefaultBaselineKW)
	}
}
