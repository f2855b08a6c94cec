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

package config

type MQTTConfig struct {
	URL          string `yaml:"url"`
	ControlTopic string `yaml:"control_topic"`
	CommandTopic string `yaml:"command_topic"`
	StatusTopic  string `yaml:"status_topic"`
}

func NewMQTTConfig() *MQTTConfig {
	cfg := &MQTTConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *MQTTConfig) FillDefaults() {
	if c.URL == "" {
		c.URL = defaultMQTTURL
	}
	if c.ControlTopic == "" {
		c.ControlTopic = defaultControlTopic
	}
	if c.CommandTopic == "" {
		c.CommandTopic = c.ControlTopic + "/outlet_setpoint"
	}
	if c.StatusTopic == "" {
		c.StatusTopic = c.ControlTopic + "/status"
	}
}
