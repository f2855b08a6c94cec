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

import "time"

const (
	blockingDefaultGraceBand    = 2.0
	blockingDefaultTimeoutMin   = 45
	blockingDefaultCooldownDrop = 3.0
)

// BlockingConfig tunes the post-block grace period. The stabilization
// band and the hard timeout are installation-tuned values, not derived.
type BlockingConfig struct {
	GraceBand           *float64 `yaml:"grace_band"`
	GraceTimeoutMinutes *int     `yaml:"grace_timeout_minutes"`
	CooldownDrop        *float64 `yaml:"cooldown_drop"`
}

func NewBlockingConfig() *BlockingConfig {
	cfg := &BlockingConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *BlockingConfig) FillDefaults() {
	if c.GraceBand == nil {
		c.GraceBand = GetPTR(blockingDefaultGraceBand)
	}
	if c.GraceTimeoutMinutes == nil {
		c.GraceTimeoutMinutes = GetPTR(blockingDefaultTimeoutMin)
	}
	if c.CooldownDrop == nil {
		c.CooldownDrop = GetPTR(blockingDefaultCooldownDrop)
	}
}

func (c *BlockingConfig) GraceTimeout() time.Duration {
	return time.Duration(*c.GraceTimeoutMinutes) * time.Minute
}
