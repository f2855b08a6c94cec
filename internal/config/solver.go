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
	solverDefaultMinOutlet  = 22.0
	solverDefaultMaxOutlet  = 55.0
	solverDefaultResolution = 0.1
	solverDefaultMaxIter    = 40
	solverDefaultMaxStep    = 3.0
)

// SolverConfig bounds the admissible outlet domain and the per-cycle
// actuation. MinOutlet/MaxOutlet are the absolute safety range of the
// pump, MaxStep the largest change applied in one cycle.
type SolverConfig struct {
	MinOutlet     *float64 `yaml:"min_outlet"`
	MaxOutlet     *float64 `yaml:"max_outlet"`
	Resolution    *float64 `yaml:"resolution"`
	MaxIterations *int     `yaml:"max_iterations"`
	MaxStep       *float64 `yaml:"max_step"`
}

func NewSolverConfig() *SolverConfig {
	cfg := &SolverConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *SolverConfig) FillDefaults() {
	if c.MinOutlet == nil {
		c.MinOutlet = GetPTR(solverDefaultMinOutlet)
	}
	if c.MaxOutlet == nil {
		c.MaxOutlet = GetPTR(solverDefaultMaxOutlet)
	}
	if c.Resolution == nil {
		c.Resolution = GetPTR(solverDefaultResolution)
	}
	if c.MaxIterations == nil {
		c.MaxIterations = GetPTR(solverDefaultMaxIter)
	}
	if c.MaxStep == nil {
		c.MaxStep = GetPTR(solverDefaultMaxStep)
	}
}
