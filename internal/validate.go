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

package internal

import (
	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/solver"
	"github.com/antst/hpotc/internal/thermo_model"
)

// RunValidation exercises the physics model and the solver across a
// synthetic input grid and reports invariant violations. It never
// touches persisted state; the exit count is the number of violations.
func RunValidation(cfg *config.Config) int {
	params := thermo_model.DefaultParameters()
	s := solver.New(cfg.Solver)

	violations := 0
	evaluated := 0

	for outdoor := -20.0; outdoor <= 10.0; outdoor += 5.0 {
		for outlet := 30.0; outlet <= *cfg.Solver.MaxOutlet; outlet += 5.0 {
			for aux := 0.0; aux <= 0.5; aux += 0.5 {
				evaluated++
				if _, err := thermo_model.Equilibrium(outlet, outdoor, aux, params); err != nil {
					violations++
					logger.L().Warnf(
						"Equilibrium violation at outdoor=%.1f outlet=%.1f aux=%.1f: %v",
						outdoor, outlet, aux, err,
					)
				}
			}
		}

		for target := 18.0; target <= 23.0; target += 1.0 {
			evaluated++
			res := s.Solve(solver.Input{
				Indoor:   target - 0.5,
				Outdoor:  outdoor,
				Target:   target,
				Aux:      0,
				Previous: (*cfg.Solver.MinOutlet + *cfg.Solver.MaxOutlet) / 2,
				Params:   params,
			})
			if res.Outlet < *cfg.Solver.MinOutlet || res.Outlet > *cfg.Solver.MaxOutlet {
				violations++
				logger.L().Warnf(
					"Solver left the admissible domain at outdoor=%.1f target=%.1f: %.2f",
					outdoor, target, res.Outlet,
				)
			}
			if !res.Converged {
				violations++
				logger.L().Warnf(
					"Solver failed to converge at outdoor=%.1f target=%.1f (%d iterations)",
					outdoor, target, res.Iterations,
				)
			}
		}
	}

	logger.L().Infof("Validation finished: %d checks, %d violations", evaluated, violations)
	return violations
}
