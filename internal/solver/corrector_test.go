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

package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/hpotc/internal/thermo_model"
)

// endpoint builds a one-point trajectory landing at the given indoor
// temperature; only the endpoint drives the correction.
func endpoint(indoor float64) []thermo_model.TrajectoryPoint {
	return []thermo_model.TrajectoryPoint{{Indoor: indoor}}
}

func TestCorrectOnTrackIsUntouched(t *testing.T) {
	c := NewCorrector()

	adjusted, correction := c.Correct(35.0, endpoint(21.0), 21.0, 0)

	assert.Equal(t, 35.0, adjusted)
	assert.Equal(t, 0.0, correction)
}

func TestCorrectDeadbandIgnoresNoise(t *testing.T) {
	c := NewCorrector()

	_, correction := c.Correct(35.0, endpoint(21.0-0.03), 21.0, 0)

	assert.Equal(t, 0.0, correction)
}

func TestCorrectMediumBandGain(t *testing.T) {
	c := NewCorrector()

	adjusted, correction := c.Correct(35.0, endpoint(20.4), 21.0, 0)

	assert.InDelta(t, 4.8, correction, 1e-9) // 0.6 degrees short, gain 8
	assert.InDelta(t, 39.8, adjusted, 1e-9)
}

func TestCorrectBandsAreMonotoneAndCapped(t *testing.T) {
	errs := []float64{0.1, 0.3, 0.6, 1.0, 1.2, 2.0}

	prev := 0.0
	for _, e := range errs {
		c := NewCorrector()
		_, correction := c.Correct(35.0, endpoint(21.0-e), 21.0, 0)

		assert.GreaterOrEqual(t, correction, prev, "error %.1f", e)
		assert.LessOrEqual(t, correction, gainLarge*e+1e-9, "error %.1f", e)
		assert.LessOrEqual(t, correction, correctionCap, "error %.1f", e)
		prev = correction
	}
}

func TestCorrectSignFollowsError(t *testing.T) {
	c := NewCorrector()

	// Overshooting trajectory pulls the outlet down.
	adjusted, correction := c.Correct(35.0, endpoint(21.6), 21.0, 0)

	assert.InDelta(t, -4.8, correction, 1e-9)
	assert.Less(t, adjusted, 35.0)
}

func TestCorrectIntegralStaysInsideBand(t *testing.T) {
	// Accumulated error alone never moves the outlet.
	c := NewCorrector()
	_, correction := c.Correct(35.0, endpoint(21.0), 21.0, 1.0)
	assert.Equal(t, 0.0, correction)

	// The integral term cannot push the total past the band gain times
	// the trajectory error.
	c = NewCorrector()
	_, correction = c.Correct(35.0, endpoint(21.0-0.2), 21.0, 3.0)
	assert.InDelta(t, 1.0, correction, 1e-9) // small band, 5 * 0.2

	// An opposing accumulated error pulls the correction back.
	c = NewCorrector()
	_, correction = c.Correct(35.0, endpoint(21.0-0.2), 21.0, -0.5)
	assert.InDelta(t, 0.75, correction, 1e-9)
}

func TestOpenWindowFreezeAndDecay(t *testing.T) {
	c := NewCorrector()
	cold := endpoint(21.0 - 2.0) // demands the capped correction

	// Two high cycles are tolerated as transient.
	_, first := c.Correct(35.0, cold, 21.0, 0)
	assert.InDelta(t, correctionCap, first, 1e-9)
	c.Correct(35.0, cold, 21.0, 0)

	// Third consecutive high cycle freezes the correction.
	_, frozen := c.Correct(35.0, cold, 21.0, 0)
	require.InDelta(t, correctionCap, frozen, 1e-9)

	// While disturbed, an even larger demand no longer moves it.
	_, held := c.Correct(35.0, endpoint(21.0-3.0), 21.0, 0)
	assert.Equal(t, frozen, held)

	// Four clean cycles clear the signature; the frozen value is still
	// returned through the fourth.
	clean := endpoint(21.0)
	for i := 0; i < 4; i++ {
		_, held = c.Correct(35.0, clean, 21.0, 0)
		assert.Equal(t, frozen, held, "clean cycle %d", i)
	}

	// Then it halves every cycle until it settles back to normal.
	want := frozen
	for {
		want *= decayFactor
		if math.Abs(want) < decaySettled {
			break
		}
		_, decayed := c.Correct(35.0, clean, 21.0, 0)
		assert.InDelta(t, want, decayed, 1e-9)
	}

	// Settled: normal operation resumes.
	_, back := c.Correct(35.0, clean, 21.0, 0)
	assert.Equal(t, 0.0, back)
}
