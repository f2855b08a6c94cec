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

package thermo_model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquilibriumStaysWithinEnergyBounds(t *testing.T) {
	p := DefaultParameters()

	for outdoor := -20.0; outdoor <= 10.0; outdoor += 2.5 {
		for outlet := 30.0; outlet <= 55.0; outlet += 2.5 {
			for _, aux := range []float64{0.0, 0.2, 0.5} {
				teq, err := Equilibrium(outlet, outdoor, aux, p)
				require.NoError(t, err, "outdoor=%v outlet=%v aux=%v", outdoor, outlet, aux)
				assert.GreaterOrEqual(t, teq, outdoor-1e-6)
				assert.LessOrEqual(t, teq, outlet+1e-6)
			}
		}
	}
}

func TestEquilibriumReportsIntegrityFault(t *testing.T) {
	p := DefaultParameters()

	// An implausibly large auxiliary input pushes the equilibrium past
	// the outlet temperature; that must be reported, not clamped.
	teq, err := Equilibrium(25.0, 20.0, 5.0, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelIntegrity)
	assert.Greater(t, teq, 25.0, "raw value is still returned for diagnostics")
}

func TestTrajectoryApproachesEquilibrium(t *testing.T) {
	p := DefaultParameters()
	indoor, outlet, outdoor := 19.0, 45.0, 0.0

	teq, err := Equilibrium(outlet, outdoor, 0, p)
	require.NoError(t, err)
	require.Greater(t, teq, indoor)

	traj, err := Trajectory(indoor, outlet, outdoor, 0, p, 4*time.Hour)
	require.NoError(t, err)
	require.Len(t, traj, int(4*time.Hour/TrajectoryStep))

	prev := indoor
	for _, pt := range traj {
		assert.Greater(t, pt.Indoor, prev, "approach is monotone at offset %v", pt.Offset)
		assert.Less(t, pt.Indoor, teq, "never overshoots equilibrium")
		prev = pt.Indoor
	}
}

func TestTrajectoryIsBounded(t *testing.T) {
	p := DefaultParameters()
	traj, err := Trajectory(20.0, 40.0, 5.0, 0, p, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 8, len(traj))
	assert.Equal(t, 4*time.Hour, traj[len(traj)-1].Offset)
}

func TestClampReportsOutOfRangeFields(t *testing.T) {
	p := Parameters{
		TimeConstantHours: 1000.0,
		LossCoefficient:   -1.0,
		Effectiveness:     0.8,
		Confidence:        7.0,
	}

	hit := p.Clamp()

	assert.ElementsMatch(t, []string{"time_constant", "loss_coefficient", "confidence"}, hit)
	assert.Equal(t, MaxTimeConstantHours, p.TimeConstantHours)
	assert.Equal(t, MinLossCoefficient, p.LossCoefficient)
	assert.Equal(t, 0.8, p.Effectiveness)
	assert.Equal(t, MaxConfidence, p.Confidence)
}

func TestPredictDeltaShrinksWithShorterInterval(t *testing.T) {
	p := DefaultParameters()

	long, err := PredictDelta(19.0, 45.0, 0.0, 0, p, 2*time.Hour)
	require.NoError(t, err)
	short, err := PredictDelta(19.0, 45.0, 0.0, 0, p, 20*time.Minute)
	require.NoError(t, err)

	assert.Greater(t, long, short)
	assert.Greater(t, short, 0.0)
}
