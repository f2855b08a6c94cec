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

	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/thermo_model"
)

// Severity bands and their degrees-of-outlet-per-degree-of-error
// gains. Correction is strictly additive; the gains replaced an older
// multiplicative scheme that could double the outlet command in one
// cycle.
const (
	bandSmall  = 0.5
	bandMedium = 1.0

	gainSmall  = 5.0
	gainMedium = 8.0
	gainLarge  = 12.0

	correctionDeadband = 0.05
	correctionCap      = 10.0
	integralGain       = 0.5
	integralCap        = 1.0

	openWindowErr  = 1.5
	onsetCycles    = 3
	clearCycles    = 4
	decayFactor    = 0.5
	decaySettled   = 0.1
)

type correctorMode int

const (
	correctorNormal correctorMode = iota
	correctorDisturbed
	correctorDecaying
)

// Corrector reconciles the solver's single-step assumption with the
// multi-step forecast trajectory. It also watches for the open-window
// signature: a sudden, sustained jump in the correction the trajectory
// demands.
type Corrector struct {
	mode        correctorMode
	frozen      float64
	highStreak  int
	cleanStreak int
}

func NewCorrector() *Corrector {
	return &Corrector{}
}

// Correct returns the adjusted outlet and the additive correction
// applied. trajErr is target minus the forecasted trajectory endpoint;
// cumulativeErr is the slow accumulated control error, folded in as a
// small integral term inside the band bound. A matching trajectory
// yields no correction regardless of accumulated error, and the total
// never exceeds the band gain times the trajectory error.
func (c *Corrector) Correct(outlet float64, traj []thermo_model.TrajectoryPoint, target, cumulativeErr float64) (float64, float64) {
	trajErr := 0.0
	if len(traj) > 0 {
		trajErr = target - traj[len(traj)-1].Indoor
	}

	raw := banded(trajErr)
	if raw != 0 {
		mag := math.Abs(trajErr)
		raw = boundAbs(raw+boundAbs(cumulativeErr*integralGain, integralCap), bandGain(mag)*mag)
		raw = boundAbs(raw, correctionCap)
	}

	correction := c.gate(trajErr, raw)
	return outlet + correction, correction
}

func bandGain(mag float64) float64 {
	switch {
	case mag <= bandSmall:
		return gainSmall
	case mag <= bandMedium:
		return gainMedium
	default:
		return gainLarge
	}
}

// banded maps trajectory error to outlet adjustment through the three
// severity bands. Additive only: the output never exceeds the band's
// multiplier times the error.
func banded(trajErr float64) float64 {
	mag := math.Abs(trajErr)
	if mag < correctionDeadband {
		return 0
	}
	return trajErr * bandGain(mag)
}

// gate runs the open-window state machine. A disturbance freezes the
// correction at its onset value instead of chasing an unmodeled heat
// loss; once the signature stays clear long enough, the frozen value
// decays smoothly to zero.
func (c *Corrector) gate(trajErr, raw float64) float64 {
	high := math.Abs(trajErr) >= openWindowErr

	switch c.mode {
	case correctorNormal:
		if high {
			c.highStreak++
			if c.highStreak >= onsetCycles {
				c.mode = correctorDisturbed
				c.frozen = raw
				c.cleanStreak = 0
				logger.L().Warnf("Sustained correction demand %.2f, treating as unmodeled disturbance", trajErr)
			}
		} else {
			c.highStreak = 0
		}
		if c.mode == correctorNormal {
			return raw
		}
		return c.frozen

	case correctorDisturbed:
		if high {
			c.cleanStreak = 0
		} else {
			c.cleanStreak++
			if c.cleanStreak >= clearCycles {
				c.mode = correctorDecaying
				logger.L().Info("Disturbance signature cleared, decaying correction")
			}
		}
		return c.frozen

	default: // correctorDecaying
		c.frozen *= decayFactor
		if math.Abs(c.frozen) < decaySettled {
			c.frozen = 0
			c.mode = correctorNormal
			c.highStreak = 0
			return raw
		}
		return c.frozen
	}
}

func boundAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
