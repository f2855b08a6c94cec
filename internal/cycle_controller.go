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
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/antst/hpotc/internal/blocking"
	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/learning"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/safe_mqtt"
	"github.com/antst/hpotc/internal/snapshot"
	"github.com/antst/hpotc/internal/solver"
	"github.com/antst/hpotc/internal/sources"
	"github.com/antst/hpotc/internal/store"
	"github.com/antst/hpotc/internal/thermo_model"
)

const (
	startupSettle   = 5 * time.Second
	trainingCycles  = 30
	lowConfidence   = 1.0
	cumulativeDecay = 0.9
	cumulativeGain  = 0.1
	cumulativeCap   = 3.0
	historyTimeout  = 5 * time.Second
)

// CycleController runs the fixed-period control cycle and owns all
// mutable learning state. The blocking machine is the only piece also
// written from the fast poller goroutine; everything else is touched
// exclusively from the cycle loop.
type CycleController struct {
	cfg         *config.Config
	mqtt        safe_mqtt.MqttClient
	snapshots   *SnapshotController
	pump        *PumpController
	status      *StatusController
	machine     *blocking.Machine
	solve       *solver.Solver
	corrector   *solver.Corrector
	coordinator *sources.Coordinator
	learner     *learning.Learner
	tracker     *learning.Tracker
	states      *store.StateStore
	history     *store.History

	params      thermo_model.Parameters
	predictions *learning.Ring[learning.PredictionRecord]
	updates     *learning.Ring[learning.UpdateRecord]
	cycles      uint64

	pending       *learning.PredictionRecord
	cumulativeErr float64

	mu             sync.Mutex
	enabled        bool
	targetOverride *float64

	forceChan chan bool
}

func NewCycleController(cfg *config.Config) *CycleController {
	c := &CycleController{
		cfg:         cfg,
		forceChan:   make(chan bool, 2),
		tracker:     learning.NewTracker(),
		corrector:   solver.NewCorrector(),
		solve:       solver.New(cfg.Solver),
		learner:     learning.NewLearner(cfg.CycleDuration()),
		machine:     blocking.NewMachine(cfg.Blocking),
		states:      store.NewStateStore(cfg.StateFile),
		predictions: learning.NewRing[learning.PredictionRecord](learning.PredictionHistoryCap),
		updates:     learning.NewRing[learning.UpdateRecord](learning.UpdateHistoryCap),
	}

	st, _ := c.states.Load()
	c.params = st.Params
	c.cycles = st.Cycles
	c.predictions.Restore(st.Predictions)
	c.updates.Restore(st.Updates)

	var err error
	if c.history, err = store.OpenHistory(cfg.DBFile); err != nil {
		logger.L().Errorf("History DB unavailable, calibration data will not accumulate: %v", err)
		c.history = nil
	}

	c.coordinator = sources.NewCoordinator(cfg.Sources, st.StoveKW)

	c.mqtt = safe_mqtt.InitMQTTClient(cfg.MQTTConfig.URL, "hpotc-"+uuid.New().String())
	c.setupControlSubscriptions()

	c.snapshots = NewSnapshotController(cfg.Sensors, cfg.MQTTConfig)
	c.pump = NewPumpController(cfg.Solver, cfg.MQTTConfig)
	c.status = NewStatusController(cfg.MQTTConfig)

	c.enabled = c.readEnabled()

	return c
}

func (c *CycleController) setupControlSubscriptions() {
	controlTopic := c.cfg.MQTTConfig.ControlTopic
	c.mqtt.SafeSubscribe(controlTopic+"/enable", mqttQoS, c.controlUpdateHandler)
	c.mqtt.SafeSubscribe(controlTopic+"/target_override", mqttQoS, c.controlUpdateHandler)
	c.mqtt.SafeSubscribe(controlTopic+"/log_level", mqttQoS, c.controlUpdateHandler)
}

// Run drives the fixed-period cycle. A new cycle never starts before
// the previous one finished persisting: everything happens on this
// goroutine.
func (c *CycleController) Run() {
	go c.pollLoop()

	// Let retained topics land before the first cycle.
	time.Sleep(startupSettle)
	c.runCycle()

	ticker := time.NewTicker(c.cfg.CycleDuration())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.runCycle()
		case <-c.forceChan:
			c.runCycle()
		}
	}
}

// pollLoop observes blocking-mode onset/offset at higher frequency
// than the main cycle. It only ever writes blocking state.
func (c *CycleController) pollLoop() {
	ticker := time.NewTicker(c.cfg.PollDuration())
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		modes, outlet, ok := c.snapshots.Modes(now)
		if !ok {
			continue
		}
		last, hasLast := c.pump.LastApplied()
		if !hasLast {
			last = outlet
		}
		c.machine.Observe(modes, outlet, last, now)
	}
}

func (c *CycleController) runCycle() {
	now := time.Now()

	if !c.isEnabled() {
		c.pump.Hold()
		c.publish(StatusHeatingOff, solver.Result{}, 0, "disabled by operator", nil, "")
		return
	}

	if !c.snapshots.Connected() {
		c.publish(StatusNetworkError, solver.Result{}, 0, "", nil, "MQTT disconnected")
		return
	}

	snap, missing := c.snapshots.Snapshot(now)
	if snap == nil {
		logger.L().Warnf("Cycle skipped, missing inputs: %v", missing)
		// The pending prediction's outcome can no longer be attributed
		// to a single cycle; drop it rather than learn from a gap.
		c.pending = nil
		c.publish(StatusNoData, solver.Result{}, 0, "", missing, "")
		return
	}

	last, hasLast := c.pump.LastApplied()
	if !hasLast {
		c.pump.SeedLast(snap.OutletActual)
		last = snap.OutletActual
	}

	c.machine.Observe(snap.Modes(), snap.OutletActual, last, now)
	blocked := c.machine.Active()

	contributions := c.coordinator.Contributions(snap)
	aux := sources.Total(contributions)

	c.feedback(snap, blocked)

	if !snap.HeatingOn {
		c.tracker.RecordCycle(false)
		c.publish(StatusHeatingOff, solver.Result{}, last, "", nil, "")
		return
	}

	if blocked {
		held := c.machine.HeldTarget(last)
		applied := c.pump.Apply(held)
		state, kind, _ := c.machine.State()
		c.publish(StatusBlocked, solver.Result{Outlet: held}, applied, string(kind)+"/"+state.String(), nil, "")
		return
	}

	target := c.target(snap)
	res := c.solve.Solve(solver.Input{
		Indoor:   snap.Indoor,
		Outdoor:  snap.Outdoor,
		Target:   target,
		Aux:      aux,
		Previous: last,
		Params:   c.params,
	})

	traj, err := thermo_model.Trajectory(
		snap.Indoor, res.Outlet, c.trajectoryOutdoor(snap), aux, c.params, c.cfg.Model.Horizon(),
	)
	if err != nil {
		logger.L().Errorf("Model integrity fault, prediction discarded: %v", err)
		c.tracker.RecordCycle(true)
		c.pending = nil
		c.pump.Hold()
		c.publish(StatusModelError, res, last, "", nil, err.Error())
		return
	}

	c.cumulativeErr = boundCumulative(cumulativeDecay*c.cumulativeErr + cumulativeGain*(target-snap.Indoor))
	adjusted, correction := c.corrector.Correct(res.Outlet, traj, target, c.cumulativeErr)
	if correction != 0 {
		logger.L().Infof("Trajectory correction %.2f applied to %.2f", correction, res.Outlet)
	}

	applied := c.pump.Apply(adjusted)

	integrity := false
	predDelta, err := thermo_model.PredictDelta(snap.Indoor, applied, snap.Outdoor, aux, c.params, c.cfg.CycleDuration())
	if err != nil {
		logger.L().Errorf("Model integrity fault on applied command: %v", err)
		integrity = true
		c.pending = nil
	} else {
		c.pending = &learning.PredictionRecord{
			Time:           now,
			PredictedDelta: predDelta,
			Indoor:         snap.Indoor,
			Outlet:         applied,
			Outdoor:        snap.Outdoor,
			Aux:            aux,
		}
	}

	c.cycles++
	c.tracker.RecordCycle(integrity)
	c.persist(now)

	code := StatusOK
	switch {
	case integrity:
		code = StatusModelError
	case c.cycles < trainingCycles:
		code = StatusTraining
	case c.params.Confidence < lowConfidence:
		code = StatusLowConfidence
	}
	c.publish(code, res, applied, "", nil, "")

	logger.L().Infof(
		"Cycle %d: indoor %.2f -> target %.2f, outlet %.2f (suggested %.2f, correction %.2f), aux %.2f, confidence %.2f",
		c.cycles, snap.Indoor, target, applied, res.Outlet, correction, aux, c.params.Confidence,
	)
}

// feedback closes the loop on the previous cycle's prediction. Blocked
// and heating-off cycles are skipped entirely: no history entry, no
// parameter change.
func (c *CycleController) feedback(snap *snapshot.Snapshot, blocked bool) {
	if c.pending == nil {
		return
	}
	if blocked || !snap.HeatingOn {
		c.pending = nil
		return
	}

	rec := *c.pending
	c.pending = nil
	rec.ActualDelta = snap.Indoor - rec.Indoor

	c.predictions.Push(rec)

	var upd learning.UpdateRecord
	var warnings []string
	c.params, upd, warnings = c.learner.Update(c.params, rec, c.predictions)
	c.updates.Push(upd)
	for _, w := range warnings {
		logger.L().Warnf("Learner stability: %s", w)
	}

	c.coordinator.Learn(rec.PredictedDelta, rec.ActualDelta)

	c.appendHistory(snap, rec)
}

func (c *CycleController) appendHistory(snap *snapshot.Snapshot, rec learning.PredictionRecord) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	err := c.history.AppendCycle(ctx, store.CycleRow{
		TS:             rec.Time,
		Indoor:         rec.Indoor,
		Outdoor:        rec.Outdoor,
		OutletActual:   snap.OutletActual,
		Target:         snap.Target,
		Aux:            rec.Aux,
		PredictedDelta: rec.PredictedDelta,
		ActualDelta:    rec.ActualDelta,
		Command:        rec.Outlet,
	})
	if err != nil {
		logger.L().Errorf("Failed to append cycle history: %v", err)
	}
}

// trajectoryOutdoor prefers the forecast endpoint so the corrector
// sees where the weather is heading, not where it is.
func (c *CycleController) trajectoryOutdoor(snap *snapshot.Snapshot) float64 {
	if len(snap.OutdoorForecast) == 0 {
		return snap.Outdoor
	}
	n := len(snap.OutdoorForecast)
	if n > snapshot.ForecastSteps {
		n = snapshot.ForecastSteps
	}
	return snap.OutdoorForecast[n-1]
}

func (c *CycleController) persist(now time.Time) {
	st := store.State{
		Version:     store.SchemaVersion,
		Params:      c.params,
		StoveKW:     c.coordinator.StoveKW(),
		Predictions: c.predictions.Items(),
		Updates:     c.updates.Items(),
		Cycles:      c.cycles,
		UpdatedAt:   now,
	}
	if err := c.states.Save(st); err != nil {
		// In-memory state stays authoritative until the next
		// successful save.
		logger.L().Errorf("Failed to persist learning state: %v", err)
	}
}

func (c *CycleController) publish(code Status, res solver.Result, applied float64, reason string, missing []string, errText string) {
	c.status.Publish(StatusReport{
		Status:         code,
		Confidence:     c.params.Confidence,
		Suggested:      res.Outlet,
		Final:          applied,
		Predicted:      res.Predicted,
		BlockingReason: reason,
		MissingInputs:  missing,
		LastError:      errText,
		Health:         c.tracker.Assess(c.predictions, c.updates, c.params, c.cycles),
	})
}

func (c *CycleController) target(snap *snapshot.Snapshot) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.targetOverride != nil {
		return *c.targetOverride
	}
	return snap.Target
}

func (c *CycleController) isEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// forceCycle requests an out-of-schedule cycle. Non-blocking: it runs
// on MQTT callback goroutines and a pending tick already covers the
// request.
func (c *CycleController) forceCycle() {
	select {
	case c.forceChan <- true:
	default:
	}
}

func (c *CycleController) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := message.Topic()[strings.LastIndex(message.Topic(), "/")+1:]
	payload := string(message.Payload())
	logger.L().Infof("Got MQTT control request: %v : %v", topic, payload)

	switch topic {
	case "enable":
		c.setEnabled(payload)
	case "target_override":
		if strings.EqualFold(payload, "off") {
			c.mu.Lock()
			c.targetOverride = nil
			c.mu.Unlock()
			logger.L().Info("Target override cleared")
			return
		}
		if v, err := strconv.ParseFloat(payload, 64); err == nil {
			c.mu.Lock()
			c.targetOverride = &v
			c.mu.Unlock()
			logger.L().Infof("Target overridden to %.2f", v)
			c.forceCycle()
		} else {
			logger.L().Error(err)
		}
	case "log_level":
		if err := c.cfg.LogLevel.Set(payload); err != nil {
			logger.L().Errorf("Wrong log level `%v`", payload)
		} else {
			logger.SetLogLevel(c.cfg.LogLevel)
			logger.L().Infof("Updated loglevel to `%v`", c.cfg.LogLevel.String())
		}
	}
}

func (c *CycleController) setEnabled(val string) {
	switch strings.ToLower(val) {
	case "true", "on":
		c.mu.Lock()
		c.enabled = true
		c.mu.Unlock()
		c.mqtt.SafePublish(c.cfg.MQTTConfig.ControlTopic+"/active", mqttQoS, true, "ON")
	case "false", "off":
		c.mu.Lock()
		c.enabled = false
		c.mu.Unlock()
		c.mqtt.SafePublish(c.cfg.MQTTConfig.ControlTopic+"/active", mqttQoS, true, "OFF")
	default:
		logger.L().Warnf("Invalid value for enable: %v", val)
		return
	}
	c.writeEnabled()
	c.forceCycle()
}

func (c *CycleController) writeEnabled() {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := c.history.UpsertValue(ctx, "enabled", strconv.FormatBool(c.isEnabled())); err != nil {
		logger.L().Error(err)
	}
}

func (c *CycleController) readEnabled() bool {
	if c.history == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	val, err := c.history.GetValue(ctx, "enabled")
	if err != nil {
		return true
	}
	enabled, err := strconv.ParseBool(val)
	return err != nil || enabled
}

func boundCumulative(v float64) float64 {
	if v > cumulativeCap {
		return cumulativeCap
	}
	if v < -cumulativeCap {
		return -cumulativeCap
	}
	return v
}
