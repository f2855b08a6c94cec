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
	"math"

	"github.com/antst/hpotc/internal/thermo_model"
)

const (
	trackerWindow       = 20
	stabilityScale      = 50.0
	consistencyScale    = 4.0
	progressCycleScale  = 100.0
	healthWeightStable  = 0.3
	healthWeightConsist = 0.4
	healthWeightPhysics = 0.3
)

// Health is the reportable trust surface derived from recent history.
// All signals are normalized to [0, 1].
type Health struct {
	ParameterStability    float64 `json:"parameter_stability"`
	PredictionConsistency float64 `json:"prediction_consistency"`
	PhysicsAlignment      float64 `json:"physics_alignment"`
	ModelHealth           float64 `json:"model_health"`
	LearningProgress      float64 `json:"learning_progress"`
}

// Tracker counts physics faults seen since process start; everything
// else it needs lives in the history rings.
type Tracker struct {
	integrityFaults uint64
	observedCycles  uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) RecordCycle(integrityFault bool) {
	t.observedCycles++
	if integrityFault {
		t.integrityFaults++
	}
}

// Assess derives the five health signals.
func (t *Tracker) Assess(
	preds *Ring[PredictionRecord], upds *Ring[UpdateRecord],
	params thermo_model.Parameters, cycles uint64,
) Health {
	h := Health{
		ParameterStability:    t.parameterStability(upds),
		PredictionConsistency: t.predictionConsistency(preds),
		PhysicsAlignment:      t.physicsAlignment(),
		LearningProgress:      t.learningProgress(params, cycles),
	}
	h.ModelHealth = healthWeightStable*h.ParameterStability +
		healthWeightConsist*h.PredictionConsistency +
		healthWeightPhysics*h.PhysicsAlignment
	return h
}

// parameterStability: low variance of recent normalized update
// magnitudes means a settled model.
func (t *Tracker) parameterStability(upds *Ring[UpdateRecord]) float64 {
	recent := upds.Last(trackerWindow)
	if len(recent) < 2 {
		return 0.5
	}
	mags := make([]float64, len(recent))
	for i, u := range recent {
		mags[i] = math.Abs(u.DTimeConstant)/rangeTimeConstant() +
			math.Abs(u.DLossCoefficient)/rangeLoss() +
			math.Abs(u.DEffectiveness)/rangeEffect()
	}
	return 1.0 / (1.0 + stabilityScale*variance(mags))
}

func (t *Tracker) predictionConsistency(preds *Ring[PredictionRecord]) float64 {
	recent := preds.Last(trackerWindow)
	if len(recent) < 2 {
		return 0.5
	}
	errs := make([]float64, len(recent))
	for i, r := range recent {
		errs[i] = r.PredictedDelta - r.ActualDelta
	}
	return 1.0 / (1.0 + consistencyScale*variance(errs))
}

func (t *Tracker) physicsAlignment() float64 {
	if t.observedCycles == 0 {
		return 1.0
	}
	return 1.0 - float64(t.integrityFaults)/float64(t.observedCycles)
}

func (t *Tracker) learningProgress(params thermo_model.Parameters, cycles uint64) float64 {
	conf := params.Confidence / thermo_model.MaxConfidence
	saturation := float64(cycles) / progressCycleScale
	if saturation > 1.0 {
		saturation = 1.0
	}
	return 0.7*conf + 0.3*saturation
}

func variance(vals []float64) float64 {
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(vals))
}
