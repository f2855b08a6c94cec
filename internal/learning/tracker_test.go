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

	"github.com/antst/hpotc/internal/thermo_model"
)

func TestAssessSignalsStayNormalized(t *testing.T) {
	tr := NewTracker()
	preds := NewRing[PredictionRecord](PredictionHistoryCap)
	upds := NewRing[UpdateRecord](UpdateHistoryCap)

	ts := time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		preds.Push(PredictionRecord{Time: ts, PredictedDelta: 0.1, ActualDelta: 0.12})
		upds.Push(UpdateRecord{Time: ts, DTimeConstant: 0.01, DLossCoefficient: 0.0001, DEffectiveness: 0.001})
		tr.RecordCycle(false)
	}

	p := thermo_model.DefaultParameters()
	p.Confidence = 3.0
	h := tr.Assess(preds, upds, p, 200)

	for name, v := range map[string]float64{
		"parameter_stability":    h.ParameterStability,
		"prediction_consistency": h.PredictionConsistency,
		"physics_alignment":      h.PhysicsAlignment,
		"model_health":           h.ModelHealth,
		"learning_progress":      h.LearningProgress,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 1.0, name)
	}

	assert.Equal(t, 1.0, h.PhysicsAlignment, "no faults recorded")
	assert.Greater(t, h.ParameterStability, 0.9, "uniform small updates mean a settled model")
	assert.Greater(t, h.PredictionConsistency, 0.9, "constant error means consistent predictions")
}

func TestPhysicsAlignmentDropsWithFaults(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 8; i++ {
		tr.RecordCycle(false)
	}
	tr.RecordCycle(true)
	tr.RecordCycle(true)

	assert.InDelta(t, 0.8, tr.physicsAlignment(), 1e-9)
}

func TestLearningProgressGrowsWithConfidenceAndCycles(t *testing.T) {
	tr := NewTracker()
	p := thermo_model.DefaultParameters()

	early := tr.learningProgress(p, 0)
	p.Confidence = 4.0
	late := tr.learningProgress(p, 500)

	assert.Greater(t, late, early)
	assert.LessOrEqual(t, late, 1.0)
}
