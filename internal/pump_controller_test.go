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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRampCommandLimitsStep(t *testing.T) {
	// Step limited in both directions around the last applied command.
	assert.Equal(t, 38.0, rampCommand(45.0, 35.0, true, 3.0, 22.0, 55.0))
	assert.Equal(t, 32.0, rampCommand(25.0, 35.0, true, 3.0, 22.0, 55.0))
	assert.Equal(t, 36.5, rampCommand(36.5, 35.0, true, 3.0, 22.0, 55.0))
}

func TestRampCommandFirstApplyIsUnramped(t *testing.T) {
	// No previous command: only the safety clamp applies.
	assert.Equal(t, 45.0, rampCommand(45.0, 0, false, 3.0, 22.0, 55.0))
	assert.Equal(t, 22.0, rampCommand(10.0, 0, false, 3.0, 22.0, 55.0))
}

func TestRampCommandClampWinsOverRamp(t *testing.T) {
	// Ramping from a last command near the boundary never escapes the
	// safety range.
	assert.Equal(t, 55.0, rampCommand(60.0, 54.0, true, 3.0, 22.0, 55.0))
	assert.Equal(t, 22.0, rampCommand(18.0, 23.0, true, 3.0, 22.0, 55.0))
}
