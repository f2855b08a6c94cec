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

package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/hpotc/internal/thermo_model"
)

func record(predicted, actual float64) PredictionRecord {
	return PredictionRecord{
		Time:           time.Date(2024, 11, 10, 12, 0, 0, 0, time.UTC),
		PredictedDelta: predicted,
		ActualDelta:    actual,
		Indoor:         20.0,
		Outlet:         40.0,
		Outdoor:        5.0,
		Aux:            0.2,
	}
}

func TestUpdateNeverLeavesPhysicalBounds(t *testing.T) {
	l := NewLearner(20 * time.Minute)
	history := NewRing[PredictionRecord](PredictionHistoryCap)
	p := thermo_model.DefaultParameters()

	// Adversarial outcomes, alternating sign and absurd magnitude.
	extremes := []float64{50.0, -50.0, 1e6, -1e6, 0.0, 3.0, -3.0}
	for i := 0; i < 200; i++ {
		rec := record(0.1, extremes[i%len(extremes)])
		history.Push(rec)
		p, _, _ = l.Update(p, rec, history)

		require.GreaterOrEqual(t, p.TimeConstantHours, thermo_model.MinTimeConstantHours)
		require.LessOrEqual(t, p.TimeConstantHours, thermo_model.MaxTimeConstantHours)
		require.GreaterOrEqual(t, p.LossCoefficient, thermo_model.MinLossCoefficient)
		require.LessOrEqual(t, p.LossCoefficient, thermo_model.MaxLossCoefficient)
		require.GreaterOrEqual(t, p.Effectiveness, thermo_model.MinEffectiveness)
		require.LessOrEqual(t, p.Effectiveness, thermo_model.MaxEffectiveness)
		require.GreaterOrEqual(t, p.Confidence, thermo_model.MinConfidence)
		require.LessOrEqual(t, p.Confidence, thermo_model.MaxConfidence)
	}
}

func TestConfidenceTracksAccuracy(t *testing.T) {
	l := NewLearner(20 * time.Minute)
	history := NewRing[PredictionRecord](PredictionHistoryCap)
	p := thermo_model.DefaultParameters()

	for i := 0; i < 20; i++ {
		rec := record(0.10, 0.12) // consistently accurate
		history.Push(rec)
		p, _, _ = l.Update(p, rec, history)
	}
	accurate := p.Confidence
	assert.Greater(t, accurate, 0.5)

	for i := 0; i < 20; i++ {
		rec := record(0.10, 1.5) // consistently off
		history.Push(rec)
		p, _, _ = l.Update(p, rec, history)
	}
	assert.Less(t, p.Confidence, accurate)
	assert.GreaterOrEqual(t, p.Confidence, thermo_model.MinConfidence)
}

func TestHigherConfidenceMeansSmallerSteps(t *testing.T) {
	l := NewLearner(20 * time.Minute)

	low := l.adaptiveRate(0.5, 0.0)
	high := l.adaptiveRate(0.5, 4.0)
	assert.Greater(t, low, high)

	calm := l.adaptiveRate(0.05, 1.0)
	wild := l.adaptiveRate(1.5, 1.0)
	assert.Greater(t, wild, calm)
}

func TestRepeatedClampSurfacesWarning(t *testing.T) {
	l := NewLearner(20 * time.Minute)

	var warnings []string
	for i := 0; i < clampWarnStreak; i++ {
		warnings = l.trackClamps([]string{"effectiveness"})
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "effectiveness")

	// A clean cycle resets the streak.
	warnings = l.trackClamps(nil)
	assert.Empty(t, warnings)
}
