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
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/safe_mqtt"
	"github.com/antst/hpotc/internal/snapshot"
)

type fieldState struct {
	value     float64
	flag      bool
	vector    []float64
	timestamp time.Time
}

// SnapshotController caches the latest value of every bus field and
// assembles the immutable per-cycle snapshot. Fields older than the
// staleness horizon count as missing.
type SnapshotController struct {
	mu     sync.RWMutex
	cfg    *config.SensorsConfig
	mqtt   safe_mqtt.MqttClient
	fields map[string]*fieldState
	stale  time.Duration
}

func NewSnapshotController(cfg *config.SensorsConfig, mqttCfg *config.MQTTConfig) *SnapshotController {
	s := &SnapshotController{
		cfg:    cfg,
		fields: make(map[string]*fieldState),
		stale:  time.Duration(*cfg.StaleMinutes) * time.Minute,
	}
	s.mqtt = safe_mqtt.InitMQTTClient(mqttCfg.URL, "hpotc-sensors-"+uuid.New().String())

	s.subscribeNumeric(snapshot.FieldIndoor, cfg.Indoor)
	s.subscribeNumeric(snapshot.FieldOutdoor, cfg.Outdoor)
	s.subscribeNumeric(snapshot.FieldOutlet, cfg.Outlet)
	s.subscribeNumeric(snapshot.FieldTarget, cfg.Target)
	s.subscribeFlag(snapshot.FieldHeatingMode, cfg.HeatingMode)
	s.subscribeFlag(snapshot.FieldDHW, cfg.DHW)
	s.subscribeFlag(snapshot.FieldDefrost, cfg.Defrost)
	s.subscribeFlag(snapshot.FieldDisinfect, cfg.Disinfect)
	s.subscribeFlag(snapshot.FieldBoost, cfg.Boost)
	s.subscribeNumeric(snapshot.FieldStoveZone, cfg.StoveZone)
	s.subscribeVector("solar_forecast", cfg.SolarForecast)
	s.subscribeVector("outdoor_forecast", cfg.OutdoorForecast)

	return s
}

func (s *SnapshotController) subscribeNumeric(name string, fc *config.FieldConfig) {
	if fc == nil || fc.Topic == "" {
		return
	}
	s.mqtt.SafeSubscribe(fc.Topic, mqttQoS, func(client mqtt.Client, message mqtt.Message) {
		v, err := extractF64PlainOrJson(message, fc.JSONEntry)
		if err != nil {
			logger.L().Error(err)
			return
		}
		v = v*(*fc.Scale) + (*fc.Offset)
		s.set(name, func(f *fieldState) { f.value = v })
		logger.L().Debugf("Got %s : %.2f", name, v)
	})
}

func (s *SnapshotController) subscribeFlag(name string, fc *config.FieldConfig) {
	if fc == nil || fc.Topic == "" {
		return
	}
	s.mqtt.SafeSubscribe(fc.Topic, mqttQoS, func(client mqtt.Client, message mqtt.Message) {
		v, err := extractBool(message)
		if err != nil {
			logger.L().Error(err)
			return
		}
		s.set(name, func(f *fieldState) { f.flag = v })
		logger.L().Debugf("Got %s : %v", name, v)
	})
}

func (s *SnapshotController) subscribeVector(name string, fc *config.FieldConfig) {
	if fc == nil || fc.Topic == "" {
		return
	}
	s.mqtt.SafeSubscribe(fc.Topic, mqttQoS, func(client mqtt.Client, message mqtt.Message) {
		v, err := extractF64Slice(message, fc.JSONEntry)
		if err != nil {
			logger.L().Error(err)
			return
		}
		s.set(name, func(f *fieldState) { f.vector = v })
		logger.L().Debugf("Got %s : %v", name, v)
	})
}

func (s *SnapshotController) set(name string, apply func(*fieldState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fields[name]
	if !ok {
		f = &fieldState{}
		s.fields[name] = f
	}
	apply(f)
	f.timestamp = time.Now()
}

func (s *SnapshotController) fresh(name string, now time.Time) (*fieldState, bool) {
	f, ok := s.fields[name]
	if !ok || f.timestamp.Equal(zeroTS) || now.Sub(f.timestamp) > s.stale {
		return nil, false
	}
	return f, true
}

// Snapshot assembles the per-cycle record. The second return value
// lists missing or stale required fields; a non-empty list is a NoData
// condition and the snapshot must not be used.
func (s *SnapshotController) Snapshot(now time.Time) (*snapshot.Snapshot, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []string
	get := func(name string) float64 {
		f, ok := s.fresh(name, now)
		if !ok {
			missing = append(missing, name)
			return 0
		}
		return f.value
	}
	getFlag := func(name string, required bool) bool {
		f, ok := s.fresh(name, now)
		if !ok {
			if required {
				missing = append(missing, name)
			}
			return false
		}
		return f.flag
	}

	snap := &snapshot.Snapshot{
		Indoor:          get(snapshot.FieldIndoor),
		Outdoor:         get(snapshot.FieldOutdoor),
		OutletActual:    get(snapshot.FieldOutlet),
		Target:          get(snapshot.FieldTarget),
		HeatingOn:       getFlag(snapshot.FieldHeatingMode, true),
		DHWActive:       getFlag(snapshot.FieldDHW, false),
		DefrostActive:   getFlag(snapshot.FieldDefrost, false),
		DisinfectActive: getFlag(snapshot.FieldDisinfect, false),
		BoostActive:     getFlag(snapshot.FieldBoost, false),
	}

	if f, ok := s.fresh(snapshot.FieldStoveZone, now); ok {
		snap.HasStove = true
		snap.StoveTemp = f.value
	}
	if f, ok := s.fresh("solar_forecast", now); ok {
		snap.SolarForecastKW = append([]float64(nil), f.vector...)
	}
	if f, ok := s.fresh("outdoor_forecast", now); ok {
		snap.OutdoorForecast = append([]float64(nil), f.vector...)
	}

	if len(missing) > 0 {
		return nil, missing
	}
	return snap, nil
}

// Modes is the lightweight accessor for the fast blocking poller: the
// abnormal-mode flags and the actual outlet temperature, without
// building a full snapshot.
func (s *SnapshotController) Modes(now time.Time) (snapshot.Modes, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outlet, ok := s.fresh(snapshot.FieldOutlet, now)
	if !ok {
		return snapshot.Modes{}, 0, false
	}

	flag := func(name string) bool {
		f, ok := s.fresh(name, now)
		return ok && f.flag
	}
	return snapshot.Modes{
		DHW:       flag(snapshot.FieldDHW),
		Defrost:   flag(snapshot.FieldDefrost),
		Disinfect: flag(snapshot.FieldDisinfect),
		Boost:     flag(snapshot.FieldBoost),
	}, outlet.value, true
}

func (s *SnapshotController) Connected() bool {
	return s.mqtt.Connected()
}
