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

package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingEvictsOldestOnOverflow(t *testing.T) {
	r := NewRing[int](3)

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	require.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Items())
}

func TestRingLast(t *testing.T) {
	r := NewRing[int](5)
	for i := 1; i <= 4; i++ {
		r.Push(i)
	}

	assert.Equal(t, []int{3, 4}, r.Last(2))
	assert.Equal(t, []int{1, 2, 3, 4}, r.Last(10), "asking for more than stored returns all")
}

func TestRingRestoreTruncatesToCapacity(t *testing.T) {
	r := NewRing[int](3)
	r.Restore([]int{1, 2, 3, 4, 5})

	assert.Equal(t, []int{3, 4, 5}, r.Items(), "most recent entries win")

	r.Restore(nil)
	assert.Equal(t, 0, r.Len())
}
