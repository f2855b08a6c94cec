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

// Package snapshot defines the immutable per-cycle input record. It is
// assembled once per cycle at the bus boundary and read-only everywhere
// else in the engine.
package snapshot

// Snapshot field names, used for missing-input reporting.
const (
	FieldIndoor      = "indoor_temperature"
	FieldOutdoor     = "outdoor_temperature"
	FieldOutlet      = "outlet_temperature"
	FieldTarget      = "target_temperature"
	FieldHeatingMode = "heating_mode"
	FieldDHW         = "dhw_active"
	FieldDefrost     = "defrost_active"
	FieldDisinfect   = "disinfect_active"
	FieldBoost       = "boost_active"
	FieldStoveZone   = "stove_zone_temperature"
)

// ForecastSteps is the number of fixed future offsets carried by the
// forecast vectors (one step = half a cycle horizon segment, 30 min).
const ForecastSteps = 4

type Snapshot struct {
	Indoor       float64
	Outdoor      float64
	OutletActual float64
	Target       float64
	HeatingOn    bool

	// Abnormal heat-pump modes, consumed by the blocking machine.
	DHWActive       bool
	DefrostActive   bool
	DisinfectActive bool
	BoostActive     bool

	// Secondary-zone (stove room) temperature; NaN-free only when the
	// installation has the sensor, HasStove gates its use.
	HasStove  bool
	StoveTemp float64

	// Forecast vectors at ForecastSteps fixed offsets. Empty slices
	// mean no or stale forecast; consumers degrade to zero.
	SolarForecastKW []float64
	OutdoorForecast []float64
}

// Modes collects the abnormal-mode flags for the blocking machine's
// high-frequency observation path.
type Modes struct {
	DHW       bool
	Defrost   bool
	Disinfect bool
	Boost     bool
}

func (s *Snapshot) Modes() Modes {
	return Modes{
		DHW:       s.DHWActive,
		Defrost:   s.DefrostActive,
		Disinfect: s.DisinfectActive,
		Boost:     s.BoostActive,
	}
}
