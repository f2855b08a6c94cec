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

const defaultStaleMinutes = 90

// FieldConfig maps one required snapshot field onto a bus topic.
// Payloads are either plain numbers or a JSON object with the value
// under `json_entry`; scale/offset adapt unit mismatches on the bus.
type FieldConfig struct {
	Topic     string   `yaml:"topic"`
	JSONEntry *string  `yaml:"json_entry,omitempty"`
	Offset    *float64 `yaml:"offset"`
	Scale     *float64 `yaml:"scale"`
}

func NewFieldConfig() *FieldConfig {
	cfg := &FieldConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *FieldConfig) FillDefaults() {
	if c.Offset == nil {
		c.Offset = GetPTR(0.0)
	}
	if c.Scale == nil {
		c.Scale = GetPTR(1.0)
	}
}

type SensorsConfig struct {
	Indoor          *FieldConfig `yaml:"indoor"`
	Outdoor         *FieldConfig `yaml:"outdoor"`
	Outlet          *FieldConfig `yaml:"outlet"`
	Target          *FieldConfig `yaml:"target"`
	HeatingMode     *FieldConfig `yaml:"heating_mode"`
	DHW             *FieldConfig `yaml:"dhw"`
	Defrost         *FieldConfig `yaml:"defrost"`
	Disinfect       *FieldConfig `yaml:"disinfect"`
	Boost           *FieldConfig `yaml:"boost"`
	StoveZone       *FieldConfig `yaml:"stove_zone,omitempty"`
	SolarForecast   *FieldConfig `yaml:"solar_forecast,omitempty"`
	OutdoorForecast *FieldConfig `yaml:"outdoor_forecast,omitempty"`
	StaleMinutes    *int         `yaml:"stale_minutes"`
}

func NewSensorsConfig() *SensorsConfig {
	cfg := &SensorsConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *SensorsConfig) FillDefaults() {
	if c.StaleMinutes == nil {
		c.StaleMinutes = GetPTR(defaultStaleMinutes)
	}
	for _, f := range []**FieldConfig{
		&c.Indoor, &c.Outdoor, &c.Outlet, &c.Target, &c.HeatingMode,
		&c.DHW, &c.Defrost, &c.Disinfect, &c.Boost,
	} {
		if *f == nil {
			*f = NewFieldConfig()
		} else {
			(*f).FillDefaults()
		}
	}
	// Optional fields stay nil when unconfigured.
	for _, f := range []*FieldConfig{c.StoveZone, c.SolarForecast, c.OutdoorForecast} {
		if f != nil {
			f.FillDefaults()
		}
	}
}
