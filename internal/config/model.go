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

import "time"

const defaultHorizonHours = 4.0

type ModelConfig struct {
	HorizonHours *float64 `yaml:"horizon_hours"`
}

func NewModelConfig() *ModelConfig {
	cfg := &ModelConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *ModelConfig) FillDefaults() {
	if c.HorizonHours == nil {
		c.HorizonHours = GetPTR(defaultHorizonHours)
	}
}

func (c *ModelConfig) Horizon() time.Duration {
	return time.Duration(*c.HorizonHours * float64(time.Hour))
}
