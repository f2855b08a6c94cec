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

func TestForceCycleNeverBlocks(t *testing.T) {
	c := &CycleController{forceChan: make(chan bool, 2)}

	// A burst of control messages while no cycle is draining the
	// channel must coalesce, not stall the caller.
	for i := 0; i < 10; i++ {
		c.forceCycle()
	}
	assert.Len(t, c.forceChan, 2)
}

func TestBoundCumulative(t *testing.T) {
	assert.Equal(t, cumulativeCap, boundCumulative(100.0))
	assert.Equal(t, -cumulativeCap, boundCumulative(-100.0))
	assert.Equal(t, 1.2, boundCumulative(1.2))
}
