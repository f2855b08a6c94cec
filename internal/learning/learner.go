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

// Package learning updates the physics-model parameters from
// prediction-vs-outcome feedback and derives trust metrics from the
// rolling history.
package learning

import (
	"fmt"
	"math"
	"time"

	"github.com/antst/hpotc/internal/thermo_model"
)

const (
	// Persisted history capacities; part of the state schema.
	PredictionHistoryCap = 50
	UpdateHistoryCap     = 100

	baseRate = 0.15

	// Finite-difference perturbations, sized to each parameter's range.
	epsTimeConstant = 0.5
	epsLoss         = 0.002
	epsEffect       = 0.01

	// Largest single-cycle move per parameter. Keeps one bad outcome
	// from yanking a converged model.
	maxStepTimeConstant = 1.5
	maxStepLoss         = 0.004
	maxStepEffect       = 0.03

	accuracyWindow    = 10
	accuracyThreshold = 0.15
	confidenceGain    = 0.1
	confidenceDrop    = 0.15

	clampWarnStreak = 3
	errMagCap       = 2.0
)

// PredictionRecord captures one cycle's prediction and its realized
// outcome, plus the context features needed to re-evaluate the model
// with perturbed parameters.
type PredictionRecord struct {
	Time           time.Time `json:"time"`
	PredictedDelta float64   `json:"predicted_delta"`
	ActualDelta    float64   `json:"actual_delta"`
	Indoor         float64   `json:"indoor"`
	Outlet         float64   `json:"outlet"`
	Outdoor        float64   `json:"outdoor"`
	Aux            float64   `json:"aux"`
}

func (r PredictionRecord) AbsError() float64 {
	return math.Abs(r.PredictedDelta - r.ActualDelta)
}

// UpdateRecord is the audit trail of one parameter step. Never
// replayed, only inspected.
type UpdateRecord struct {
	Time            time.Time `json:"time"`
	DTimeConstant   float64   `json:"d_time_constant"`
	DLossCoefficient float64  `json:"d_loss_coefficient"`
	DEffectiveness  float64   `json:"d_effectiveness"`
}

type Learner struct {
	cycle       time.Duration
	clampStreak map[string]int
}

func NewLearner(cycle time.Duration) *Learner {
	return &Learner{cycle: cycle, clampStreak: make(map[string]int)}
}

// Update performs one bounded gradient step. The caller pushes rec
// onto history before calling; the accuracy window for the confidence
// update reads that history. Returned warnings flag repeated clamping,
// they are reportable but never fatal.
func (l *Learner) Update(
	p thermo_model.Parameters, rec PredictionRecord, history *Ring[PredictionRecord],
) (thermo_model.Parameters, UpdateRecord, []string) {
	predErr := rec.PredictedDelta - rec.ActualDelta

	rate := l.adaptiveRate(predErr, p.Confidence)

	gTau := l.gradient(p, rec, predErr, func(q *thermo_model.Parameters) { q.TimeConstantHours += epsTimeConstant }, epsTimeConstant)
	gLoss := l.gradient(p, rec, predErr, func(q *thermo_model.Parameters) { q.LossCoefficient += epsLoss }, epsLoss)
	gEff := l.gradient(p, rec, predErr, func(q *thermo_model.Parameters) { q.Effectiveness += epsEffect }, epsEffect)

	upd := UpdateRecord{
		Time:             rec.Time,
		DTimeConstant:    boundStep(-rate*gTau*rangeTimeConstant(), maxStepTimeConstant),
		DLossCoefficient: boundStep(-rate*gLoss*rangeLoss(), maxStepLoss),
		DEffectiveness:   boundStep(-rate*gEff*rangeEffect(), maxStepEffect),
	}

	p.TimeConstantHours += upd.DTimeConstant
	p.LossCoefficient += upd.DLossCoefficient
	p.Effectiveness += upd.DEffectiveness

	p.Confidence = l.updateConfidence(p.Confidence, history)

	hit := p.Clamp()
	warnings := l.trackClamps(hit)

	return p, upd, warnings
}

// adaptiveRate grows with recent error magnitude and shrinks as
// confidence builds, so a converged model moves gently.
func (l *Learner) adaptiveRate(predErr, confidence float64) float64 {
	errMag := math.Abs(predErr)
	if errMag > errMagCap {
		errMag = errMagCap
	}
	return baseRate * (0.25 + errMag) / (1.0 + confidence)
}

// gradient estimates d(err^2)/d(param) by forward difference,
// re-predicting the recorded cycle with the perturbed parameter.
func (l *Learner) gradient(
	p thermo_model.Parameters, rec PredictionRecord, predErr float64,
	perturb func(*thermo_model.Parameters), eps float64,
) float64 {
	q := p
	perturb(&q)
	predicted, err := thermo_model.PredictDelta(rec.Indoor, rec.Outlet, rec.Outdoor, rec.Aux, q, l.cycle)
	if err != nil {
		// Perturbed model left the physical regime; no gradient signal.
		return 0
	}
	newErr := predicted - rec.ActualDelta
	return (newErr*newErr - predErr*predErr) / eps
}

func (l *Learner) updateConfidence(confidence float64, history *Ring[PredictionRecord]) float64 {
	recent := history.Last(accuracyWindow)
	if len(recent) == 0 {
		return confidence
	}
	sum := 0.0
	for _, r := range recent {
		sum += r.AbsError()
	}
	if sum/float64(len(recent)) < accuracyThreshold {
		confidence += confidenceGain
	} else {
		confidence -= confidenceDrop
	}
	if confidence < thermo_model.MinConfidence {
		confidence = thermo_model.MinConfidence
	}
	if confidence > thermo_model.MaxConfidence {
		confidence = thermo_model.MaxConfidence
	}
	return confidence
}

func (l *Learner) trackClamps(hit []string) []string {
	hitSet := make(map[string]bool, len(hit))
	for _, name := range hit {
		hitSet[name] = true
		l.clampStreak[name]++
	}
	for name := range l.clampStreak {
		if !hitSet[name] {
			delete(l.clampStreak, name)
		}
	}

	var warnings []string
	for name, streak := range l.clampStreak {
		if streak >= clampWarnStreak {
			warnings = append(warnings, fmt.Sprintf("parameter %s clamped %d consecutive cycles", name, streak))
		}
	}
	return warnings
}

func boundStep(step, limit float64) float64 {
	if step > limit {
		return limit
	}
	if step < -limit {
		return -limit
	}
	return step
}

func rangeTimeConstant() float64 {
	return thermo_model.MaxTimeConstantHours - thermo_model.MinTimeConstantHours
}

func rangeLoss() float64 {
	return thermo_model.MaxLossCoefficient - thermo_model.MinLossCoefficient
}

func rangeEffect() float64 {
	return thermo_model.MaxEffectiveness - thermo_model.MinEffectiveness
}
