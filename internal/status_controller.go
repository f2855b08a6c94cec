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
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/learning"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/safe_mqtt"
)

type Status string

const (
	StatusOK            Status = "OK"
	StatusLowConfidence Status = "LOW_CONFIDENCE"
	StatusBlocked       Status = "BLOCKED"
	StatusNetworkError  Status = "NETWORK_ERROR"
	StatusNoData        Status = "NO_DATA"
	StatusTraining      Status = "TRAINING"
	StatusHeatingOff    Status = "HEATING_OFF"
	StatusModelError    Status = "MODEL_ERROR"
)

// StatusReport is the diagnostics surface consumed by the dashboard.
type StatusReport struct {
	Status         Status          `json:"status"`
	Confidence     float64         `json:"confidence"`
	Suggested      float64         `json:"suggested_temperature"`
	Final          float64         `json:"final_temperature"`
	Predicted      float64         `json:"predicted_indoor"`
	BlockingReason string          `json:"blocking_reason,omitempty"`
	MissingInputs  []string        `json:"missing_inputs,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	Health         learning.Health `json:"health"`
	Timestamp      time.Time       `json:"timestamp"`
}

type StatusController struct {
	cfg  *config.MQTTConfig
	mqtt safe_mqtt.MqttClient
}

func NewStatusController(mqttCfg *config.MQTTConfig) *StatusController {
	s := &StatusController{cfg: mqttCfg}
	s.mqtt = safe_mqtt.InitMQTTClient(mqttCfg.URL, "hpotc-status-"+uuid.New().String())
	return s
}

// Publish emits the status code on the bare topic for cheap consumers
// and the full JSON report next to it. Retained, so dashboards resync
// after broker restarts.
func (s *StatusController) Publish(r StatusReport) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	s.mqtt.SafePublish(s.cfg.StatusTopic, mqttQoS, true, string(r.Status))

	data, err := json.Marshal(r)
	if err != nil {
		logger.L().Error(err)
		return
	}
	s.mqtt.SafePublish(s.cfg.StatusTopic+"/json", mqttQoS, true, data)
	s.mqtt.SafePublishFloat(s.cfg.StatusTopic+"/confidence", mqttQoS, true, r.Confidence)
}
