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

// Package solver searches the admissible outlet-temperature domain for
// the command whose predicted equilibrium lands closest to target, and
// corrects the result against the multi-step forecast trajectory.
package solver

import (
	"math"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/thermo_model"
)

// Input is the feature snapshot a solve runs against. It is captured
// by value once at solve start and reused unchanged for every
// candidate: scoring different candidates against refreshed forecasts
// made earlier searches oscillate without converging.
type Input struct {
	Indoor   float64
	Outdoor  float64
	Target   float64
	Aux      float64
	Previous float64 // previously applied command, used as tie-break
	Params   thermo_model.Parameters
}

type Result struct {
	Outlet          float64
	Predicted       float64 // equilibrium at the chosen outlet
	Iterations      int
	Converged       bool
	IntegrityFaults int
}

type Solver struct {
	cfg *config.SolverConfig
}

func New(cfg *config.SolverConfig) *Solver {
	return &Solver{cfg: cfg}
}

// Solve bisects the outlet domain. The equilibrium is monotone
// non-decreasing in the outlet command, so bisection on predicted
// equilibrium vs target converges; the best candidate seen is kept so
// an iteration-cap hit degrades instead of failing.
func (s *Solver) Solve(in Input) Result {
	lo, hi := *s.cfg.MinOutlet, *s.cfg.MaxOutlet
	res := Result{Outlet: in.Previous}

	bestDist := math.Inf(1)
	score := func(outlet, predicted float64) {
		dist := math.Abs(predicted - in.Target)
		switch {
		case dist < bestDist-1e-9:
		case dist < bestDist+1e-9 &&
			math.Abs(outlet-in.Previous) < math.Abs(res.Outlet-in.Previous):
			// Equal fit: prefer less actuation churn.
		default:
			return
		}
		bestDist = dist
		res.Outlet = outlet
		res.Predicted = predicted
	}

	// Score the clamped previous command first, so a bracket already
	// narrower than the resolution still yields a usable prediction.
	seed := s.Bound(in.Previous)
	predicted, err := thermo_model.Equilibrium(seed, in.Outdoor, in.Aux, in.Params)
	if err != nil {
		res.IntegrityFaults++
	}
	score(seed, predicted)

	for hi-lo > *s.cfg.Resolution && res.Iterations < *s.cfg.MaxIterations {
		mid := (lo + hi) / 2
		predicted, err := thermo_model.Equilibrium(mid, in.Outdoor, in.Aux, in.Params)
		if err != nil {
			// Candidate outside the physical regime; still usable for
			// bracketing, counted for diagnostics.
			res.IntegrityFaults++
		}
		score(mid, predicted)

		if predicted < in.Target {
			lo = mid
		} else {
			hi = mid
		}
		res.Iterations++
	}

	res.Converged = hi-lo <= *s.cfg.Resolution
	if !res.Converged {
		logger.L().Warnf(
			"Outlet search hit iteration cap (%d), using best candidate %.2f",
			res.Iterations, res.Outlet,
		)
	}
	return res
}

// Bound clamps a command to the absolute safety range.
func (s *Solver) Bound(outlet float64) float64 {
	if outlet < *s.cfg.MinOutlet {
		return *s.cfg.MinOutlet
	}
	if outlet > *s.cfg.MaxOutlet {
		return *s.cfg.MaxOutlet
	}
	return outlet
}
