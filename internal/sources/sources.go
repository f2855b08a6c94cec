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

// Package sources computes the additive thermal contributions of the
// auxiliary heat sources. Contributions are independent and summed by
// superposition; no source may couple to another.
package sources

import (
	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/snapshot"
)

const (
	SourceSolar    = "solar"
	SourceStove    = "stove"
	SourceBaseline = "baseline"
)

// Contribution is one source's heat input expressed in the
// degree-equivalent units the equilibrium equation sums.
type Contribution struct {
	Source     string
	Degrees    float64
	Confidence float64
}

func Total(cs []Contribution) float64 {
	sum := 0.0
	for _, c := range cs {
		sum += c.Degrees
	}
	return sum
}

// Coordinator owns the per-source sub-models. The stove coefficient is
// the one adaptive piece and is persisted with the learning state.
type Coordinator struct {
	cfg         *config.SourcesConfig
	stoveActive bool
	stoveKW     float64
}

func NewCoordinator(cfg *config.SourcesConfig, stoveKW float64) *Coordinator {
	c := &Coordinator{cfg: cfg, stoveKW: stoveKW}
	c.stoveKW = clamp(c.stoveKW, *cfg.Stove.MinKW, *cfg.Stove.MaxKW)
	return c
}

// StoveKW exposes the learned coefficient for persistence.
func (c *Coordinator) StoveKW() float64 {
	return c.stoveKW
}

func (c *Coordinator) StoveActive() bool {
	return c.stoveActive
}

func (c *Coordinator) Contributions(s *snapshot.Snapshot) []Contribution {
	return []Contribution{
		c.baseline(),
		c.solar(s),
		c.stove(s),
	}
}

// baseline covers electronics and occupancy, a small constant load.
func (c *Coordinator) baseline() Contribution {
	return Contribution{
		Source:     SourceBaseline,
		Degrees:    *c.cfg.BaselineKW * *c.cfg.KWToDegrees,
		Confidence: 0.9,
	}
}

// solar projects the forecasted generation 1-4 steps ahead, weighting
// near steps more. Missing or stale forecast degrades to zero, never
// fails the cycle.
func (c *Coordinator) solar(s *snapshot.Snapshot) Contribution {
	if len(s.SolarForecastKW) == 0 {
		return Contribution{Source: SourceSolar, Degrees: 0, Confidence: 0}
	}

	kw, weight := 0.0, 0.0
	for i, f := range s.SolarForecastKW {
		if i >= snapshot.ForecastSteps {
			break
		}
		w := 1.0 / float64(i+1)
		kw += w * f
		weight += w
	}
	kw /= weight

	return Contribution{
		Source:     SourceSolar,
		Degrees:    kw * *c.cfg.Solar.WindowGain * *c.cfg.KWToDegrees,
		Confidence: 0.6,
	}
}

// stove infers secondary-heater activity from the zone differential
// with hysteresis, so a wavering differential does not chatter the
// contribution on and off.
func (c *Coordinator) stove(s *snapshot.Snapshot) Contribution {
	if !s.HasStove {
		return Contribution{Source: SourceStove, Degrees: 0, Confidence: 0}
	}

	diff := s.StoveTemp - s.Indoor
	if !c.stoveActive && diff > *c.cfg.Stove.OnDelta {
		c.stoveActive = true
		logger.L().Infof("Stove activity detected, zone differential %.2f", diff)
	} else if c.stoveActive && diff < *c.cfg.Stove.OffDelta {
		c.stoveActive = false
		logger.L().Infof("Stove activity ended, zone differential %.2f", diff)
	}

	if !c.stoveActive {
		return Contribution{Source: SourceStove, Degrees: 0, Confidence: 0.5}
	}
	return Contribution{
		Source:     SourceStove,
		Degrees:    c.stoveKW * *c.cfg.KWToDegrees,
		Confidence: 0.7,
	}
}

// Learn adapts the stove coefficient from the observed response: a
// realized indoor change above prediction while the stove is active
// means the coefficient underestimates the stove. Bounded to the
// configured kW range.
func (c *Coordinator) Learn(predictedDelta, actualDelta float64) {
	if !c.stoveActive {
		return
	}
	residual := actualDelta - predictedDelta
	old := c.stoveKW
	c.stoveKW = clamp(
		c.stoveKW+*c.cfg.Stove.Rate*residual/(*c.cfg.KWToDegrees),
		*c.cfg.Stove.MinKW, *c.cfg.Stove.MaxKW,
	)
	if c.stoveKW != old {
		logger.L().Debugf("Stove coefficient %.3f -> %.3f kW", old, c.stoveKW)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
