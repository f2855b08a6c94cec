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

package main

import (
	"os"

	"github.com/antst/hpotc/internal"
	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/logger"
)

// Build version, overridden with flag during build.
var version = "devel"

func main() {
	logger.L().Warnf("Heat Pump Outlet Temperature Controller, version: %+v", version)
	defer logger.Close()

	cfg := config.Get()

	switch {
	case cfg.ValidateMode:
		if violations := internal.RunValidation(cfg); violations > 0 {
			os.Exit(1)
		}
	case cfg.CalibrateCycles > 0:
		if err := internal.RunCalibration(cfg, cfg.CalibrateCycles); err != nil {
			logger.L().Errorf("Calibration failed: %v", err)
			os.Exit(1)
		}
	default:
		c := internal.NewCycleController(cfg)
		c.Run()
	}
}
