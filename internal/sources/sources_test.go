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

package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/snapshot"
)

func testSnap() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Indoor:    20.0,
		Outdoor:   5.0,
		Target:    21.0,
		HeatingOn: true,
	}
}

func TestMissingForecastDegradesToZero(t *testing.T) {
	c := NewCoordinator(config.NewSourcesConfig(), 2.0)

	cs := c.Contributions(testSnap())

	for _, contrib := range cs {
		if contrib.Source == SourceSolar {
			assert.Equal(t, 0.0, contrib.Degrees)
			assert.Equal(t, 0.0, contrib.Confidence)
		}
	}
}

func TestSolarWeightsNearStepsMore(t *testing.T) {
	c := NewCoordinator(config.NewSourcesConfig(), 2.0)

	snapNear := testSnap()
	snapNear.SolarForecastKW = []float64{2.0, 0, 0, 0}
	snapFar := testSnap()
	snapFar.SolarForecastKW = []float64{0, 0, 0, 2.0}

	near := c.Contributions(snapNear)[1]
	far := c.Contributions(snapFar)[1]

	require.Equal(t, SourceSolar, near.Source)
	assert.Greater(t, near.Degrees, far.Degrees)
	assert.Greater(t, far.Degrees, 0.0)
}

func TestStoveHysteresis(t *testing.T) {
	c := NewCoordinator(config.NewSourcesConfig(), 2.0)

	snap := testSnap()
	snap.HasStove = true

	// Below the activation threshold: nothing.
	snap.StoveTemp = snap.Indoor + 1.5
	c.Contributions(snap)
	assert.False(t, c.StoveActive())

	// Crosses the activation threshold.
	snap.StoveTemp = snap.Indoor + 2.5
	c.Contributions(snap)
	assert.True(t, c.StoveActive())

	// Falls between the two thresholds: hysteresis holds it active.
	snap.StoveTemp = snap.Indoor + 1.2
	cs := c.Contributions(snap)
	assert.True(t, c.StoveActive())
	assert.Greater(t, cs[2].Degrees, 0.0)

	// Falls below the release threshold.
	snap.StoveTemp = snap.Indoor + 0.5
	cs = c.Contributions(snap)
	assert.False(t, c.StoveActive())
	assert.Equal(t, 0.0, cs[2].Degrees)
}

func TestContributionsAreAdditive(t *testing.T) {
	c := NewCoordinator(config.NewSourcesConfig(), 2.0)

	snap := testSnap()
	snap.HasStove = true
	snap.StoveTemp = snap.Indoor + 3.0
	snap.SolarForecastKW = []float64{1.0, 1.0, 1.0, 1.0}

	cs := c.Contributions(snap)
	require.Len(t, cs, 3)

	sum := 0.0
	for _, contrib := range cs {
		sum += contrib.Degrees
	}
	assert.InDelta(t, sum, Total(cs), 1e-12)
	assert.Greater(t, sum, 0.0)
}

func TestStoveCoefficientStaysBounded(t *testing.T) {
	cfg := config.NewSourcesConfig()
	c := NewCoordinator(cfg, 2.0)

	snap := testSnap()
	snap.HasStove = true
	snap.StoveTemp = snap.Indoor + 3.0
	c.Contributions(snap) // activates the stove

	for i := 0; i < 100; i++ {
		c.Learn(0.1, 5.0) // wildly underpredicted response
	}
	assert.Equal(t, *cfg.Stove.MaxKW, c.StoveKW())

	for i := 0; i < 200; i++ {
		c.Learn(0.1, -5.0)
	}
	assert.Equal(t, *cfg.Stove.MinKW, c.StoveKW())
}
