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

// Package thermo_model evaluates the steady-state heat balance of the
// dwelling and its first-order dynamic response. Pure functions of
// state and parameters; all learned mutation happens elsewhere.
package thermo_model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Physical bounds for the learned parameters. Values outside these
// ranges are not physically plausible for a residential hydronic
// system, whatever the optimizer thinks.
const (
	MinTimeConstantHours = 6.0
	MaxTimeConstantHours = 72.0
	MinLossCoefficient   = 0.01
	MaxLossCoefficient   = 0.15
	MinEffectiveness     = 0.3
	MaxEffectiveness     = 1.5
	MinConfidence        = 0.0
	MaxConfidence        = 5.0
)

// TrajectoryStep is the spacing of the dynamic-response samples.
const TrajectoryStep = 30 * time.Minute

const integrityTol = 1e-6

// ErrModelIntegrity reports an equilibrium outside the energy
// conservation bounds. Callers discard the prediction and skip
// learning for the cycle; the value is never silently clamped.
var ErrModelIntegrity = errors.New("equilibrium violates energy-conservation bounds")

// Parameters is the learned state of the physics model. Mutated only
// by the learner, restored at startup from the state store.
type Parameters struct {
	TimeConstantHours float64 `json:"time_constant_hours"`
	LossCoefficient   float64 `json:"loss_coefficient"`
	Effectiveness     float64 `json:"effectiveness"`
	Confidence        float64 `json:"confidence"`
}

func DefaultParameters() Parameters {
	return Parameters{
		TimeConstantHours: 24.0,
		LossCoefficient:   0.06,
		Effectiveness:     0.8,
		Confidence:        0.0,
	}
}

func clampField(v, lo, hi float64) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}

// Clamp forces every field into its physical range and returns the
// names of the fields that were out of bounds.
func (p *Parameters) Clamp() []string {
	var hit []string
	var c bool
	if p.TimeConstantHours, c = clampField(p.TimeConstantHours, MinTimeConstantHours, MaxTimeConstantHours); c {
		hit = append(hit, "time_constant")
	}
	if p.LossCoefficient, c = clampField(p.LossCoefficient, MinLossCoefficient, MaxLossCoefficient); c {
		hit = append(hit, "loss_coefficient")
	}
	if p.Effectiveness, c = clampField(p.Effectiveness, MinEffectiveness, MaxEffectiveness); c {
		hit = append(hit, "effectiveness")
	}
	if p.Confidence, c = clampField(p.Confidence, MinConfidence, MaxConfidence); c {
		hit = append(hit, "confidence")
	}
	return hit
}

// Equilibrium returns the steady-state indoor temperature for the
// given outlet command, outdoor temperature and summed auxiliary
// contribution:
//
//	T_eq = (eff*outlet + loss*outdoor + aux) / (eff + loss)
//
// With aux >= 0 and outlet >= outdoor the result must stay inside
// [outdoor, outlet]; a violation returns ErrModelIntegrity together
// with the raw value.
func Equilibrium(outlet, outdoor, aux float64, p Parameters) (float64, error) {
	den := p.Effectiveness + p.LossCoefficient
	teq := (p.Effectiveness*outlet + p.LossCoefficient*outdoor + aux) / den

	if aux >= 0 && outlet >= outdoor {
		if teq < outdoor-integrityTol || teq > outlet+integrityTol {
			return teq, errors.Wrapf(
				ErrModelIntegrity, "T_eq=%.2f outside [%.2f, %.2f] (aux=%.3f)",
				teq, outdoor, outlet, aux,
			)
		}
	}
	return teq, nil
}

type TrajectoryPoint struct {
	Offset time.Duration
	Indoor float64
}

// Trajectory samples the first-order approach from the current indoor
// temperature toward equilibrium over a bounded horizon. The sequence
// is finite: horizon/TrajectoryStep points, never a stream.
func Trajectory(indoor, outlet, outdoor, aux float64, p Parameters, horizon time.Duration) ([]TrajectoryPoint, error) {
	teq, err := Equilibrium(outlet, outdoor, aux, p)
	if err != nil {
		return nil, err
	}

	tau := p.TimeConstantHours * float64(time.Hour)
	points := make([]TrajectoryPoint, 0, horizon/TrajectoryStep)
	for t := TrajectoryStep; t <= horizon; t += TrajectoryStep {
		f := 1.0 - math.Exp(-float64(t)/tau)
		points = append(points, TrajectoryPoint{Offset: t, Indoor: indoor + (teq-indoor)*f})
	}
	return points, nil
}

// PredictDelta returns the expected indoor-temperature change over dt
// under a fixed outlet command.
func PredictDelta(indoor, outlet, outdoor, aux float64, p Parameters, dt time.Duration) (float64, error) {
	teq, err := Equilibrium(outlet, outdoor, aux, p)
	if err != nil {
		return 0, err
	}
	tau := p.TimeConstantHours * float64(time.Hour)
	return (teq - indoor) * (1.0 - math.Exp(-float64(dt)/tau)), nil
}
