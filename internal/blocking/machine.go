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

// Package blocking detects abnormal heat-pump operating modes
// (hot-water, defrost, disinfection, boost) and enforces a
// stabilization grace period before control returns to the solver.
//
// Observe may be called from a fast poller goroutine in addition to
// the main cycle; the machine owns only its own state and never
// touches learned parameters.
package blocking

import (
	"sync"
	"time"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/snapshot"
)

type Kind string

const (
	KindNone      Kind = ""
	KindDHW       Kind = "dhw"
	KindDefrost   Kind = "defrost"
	KindDisinfect Kind = "disinfect"
	KindBoost     Kind = "boost"
)

type State int

const (
	StateNormal State = iota
	StateBlocked
	StateGrace
)

func (s State) String() string {
	switch s {
	case StateBlocked:
		return "blocked"
	case StateGrace:
		return "grace"
	default:
		return "normal"
	}
}

type Direction int

const (
	WaitCooldown Direction = iota // outlet above target after DHW-class heating
	WaitRecovery                  // outlet below target after defrost-class cooling
)

// Event records one blocking episode for diagnostics.
type Event struct {
	Kind      Kind       `json:"kind"`
	Start     time.Time  `json:"start"`
	PreTarget float64    `json:"pre_target"`
	End       *time.Time `json:"end,omitempty"`
}

type Machine struct {
	mu sync.Mutex

	cfg *config.BlockingConfig

	state      State
	kind       Kind
	dir        Direction
	event      *Event
	graceStart time.Time
	preTarget  float64
	interim    float64
}

func NewMachine(cfg *config.BlockingConfig) *Machine {
	return &Machine{cfg: cfg}
}

func activeKind(m snapshot.Modes) Kind {
	switch {
	case m.DHW:
		return KindDHW
	case m.Defrost:
		return KindDefrost
	case m.Disinfect:
		return KindDisinfect
	case m.Boost:
		return KindBoost
	default:
		return KindNone
	}
}

// Observe advances the machine from the current mode flags and the
// actual outlet temperature. lastTarget is the command applied before
// the block began; it becomes the pre-block target to restore.
func (m *Machine) Observe(modes snapshot.Modes, outletActual, lastTarget float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kind := activeKind(modes)

	switch m.state {
	case StateNormal:
		if kind != KindNone {
			m.state = StateBlocked
			m.kind = kind
			m.preTarget = lastTarget
			m.event = &Event{Kind: kind, Start: now, PreTarget: lastTarget}
			logger.L().Warnf("Heat pump entered %s mode, control blocked (pre-block target %.1f)", kind, lastTarget)
		}

	case StateBlocked:
		if kind != KindNone {
			return // still blocked, possibly by a follow-on mode
		}
		m.state = StateGrace
		m.graceStart = now
		if outletActual > m.preTarget {
			// Outlet ran hot (typical after DHW): chase an aggressive
			// interim target below the pre-block one and wait for the
			// loop to shed the excess heat.
			m.dir = WaitCooldown
			m.interim = m.preTarget - *m.cfg.CooldownDrop
			logger.L().Infof("%s mode ended, waiting for cooldown to %.1f (outlet %.1f)", m.kind, m.interim, outletActual)
		} else {
			// Outlet ran cold (typical after defrost): restore the
			// exact pre-block target and wait for recovery.
			m.dir = WaitRecovery
			m.interim = m.preTarget
			logger.L().Infof("%s mode ended, waiting for recovery to %.1f (outlet %.1f)", m.kind, m.interim, outletActual)
		}

	case StateGrace:
		if kind != KindNone {
			// Mode restarted before stabilization; back to blocked.
			m.state = StateBlocked
			m.kind = kind
			logger.L().Warnf("Heat pump re-entered %s mode during grace period", kind)
			return
		}

		if now.Sub(m.graceStart) >= m.cfg.GraceTimeout() {
			// Fail open: an indefinite stall is worse than resuming
			// with a not-quite-settled loop.
			logger.L().Warnf("Grace period timed out after %v, resuming control", m.cfg.GraceTimeout())
			m.finish(now)
			return
		}

		switch m.dir {
		case WaitCooldown:
			if outletActual <= m.interim {
				logger.L().Infof("Outlet cooled to %.1f, resuming control", outletActual)
				m.finish(now)
			}
		case WaitRecovery:
			if outletActual >= m.interim-*m.cfg.GraceBand {
				logger.L().Infof("Outlet recovered to %.1f, resuming control", outletActual)
				m.finish(now)
			}
		}
	}
}

func (m *Machine) finish(now time.Time) {
	m.state = StateNormal
	m.kind = KindNone
	if m.event != nil {
		end := now
		m.event.End = &end
	}
}

// Active reports whether solve/learn activity must be suspended.
func (m *Machine) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != StateNormal
}

func (m *Machine) State() (State, Kind, Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.kind, m.dir
}

// HeldTarget returns the command to hold while not in NORMAL:
// the interim target during grace, the last applied command otherwise.
func (m *Machine) HeldTarget(lastApplied float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateGrace {
		return m.interim
	}
	return lastApplied
}

// LastEvent returns the most recent blocking episode, or nil.
func (m *Machine) LastEvent() *Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.event == nil {
		return nil
	}
	ev := *m.event
	return &ev
}
