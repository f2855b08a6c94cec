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

package internal

import (
	"sync"

	"github.com/google/uuid"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/safe_mqtt"
)

// PumpController publishes the outlet command. Commands are clamped to
// the absolute safety range and rate limited against the previously
// applied command so actuation stays gradual. Published retained so a
// restarting pump picks the last command back up.
type PumpController struct {
	lock        sync.Mutex
	cfg         *config.SolverConfig
	mqttCfg     *config.MQTTConfig
	mqtt        safe_mqtt.MqttClient
	lastApplied float64
	hasLast     bool
}

func NewPumpController(cfg *config.SolverConfig, mqttCfg *config.MQTTConfig) *PumpController {
	p := &PumpController{cfg: cfg, mqttCfg: mqttCfg}
	p.mqtt = safe_mqtt.InitMQTTClient(mqttCfg.URL, "hpotc-pump-"+uuid.New().String())
	return p
}

// Apply clamps, ramps and publishes the command, returning what was
// actually sent.
func (p *PumpController) Apply(command float64) float64 {
	p.lock.Lock()
	applied := rampCommand(command, p.lastApplied, p.hasLast, *p.cfg.MaxStep, *p.cfg.MinOutlet, *p.cfg.MaxOutlet)
	p.lastApplied = applied
	p.hasLast = true
	p.lock.Unlock()

	if applied != command {
		logger.L().Debugf("Outlet command %.2f limited to %.2f", command, applied)
	}

	if token := p.mqtt.SafePublishFloat(
		p.mqttCfg.CommandTopic, mqttQoS, true, applied,
	); token.Wait() && token.Error() != nil {
		logger.L().Error(token.Error())
	}

	return applied
}

// Hold re-publishes the last applied command, used while blocked and
// on the keep-alive tick.
func (p *PumpController) Hold() {
	p.lock.Lock()
	applied, ok := p.lastApplied, p.hasLast
	p.lock.Unlock()
	if !ok {
		return
	}
	if token := p.mqtt.SafePublishFloat(
		p.mqttCfg.CommandTopic, mqttQoS, true, applied,
	); token.Wait() && token.Error() != nil {
		logger.L().Error(token.Error())
	}
}

func (p *PumpController) LastApplied() (float64, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.lastApplied, p.hasLast
}

// SeedLast primes the ramp reference, e.g. from the actual outlet
// temperature on startup.
func (p *PumpController) SeedLast(value float64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.hasLast {
		p.lastApplied = value
		p.hasLast = true
	}
}

// rampCommand applies the absolute safety clamp and the per-cycle
// maximum delta.
func rampCommand(command, last float64, hasLast bool, maxStep, min, max float64) float64 {
	if hasLast {
		if command > last+maxStep {
			command = last + maxStep
		}
		if command < last-maxStep {
			command = last - maxStep
		}
	}
	if command < min {
		command = min
	}
	if command > max {
		command = max
	}
	return command
}
