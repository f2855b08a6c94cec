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

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/hpotc/internal/learning"
	"github.com/antst/hpotc/internal/thermo_model"
)

var stamp = time.Date(2024, 11, 12, 14, 30, 0, 0, time.UTC)

func sampleState() State {
	st := Default()
	st.Params.TimeConstantHours = 30.5
	st.Params.LossCoefficient = 0.045
	st.Params.Effectiveness = 0.92
	st.Params.Confidence = 2.3
	st.StoveKW = 2.8
	st.Cycles = 412
	st.UpdatedAt = stamp
	st.Predictions = []learning.PredictionRecord{
		{Time: stamp, PredictedDelta: 0.3, ActualDelta: 0.25, Indoor: 20.1, Outlet: 36.0, Outdoor: 2.0, Aux: 0.2},
	}
	st.Updates = []learning.UpdateRecord{
		{Time: stamp, DTimeConstant: 0.4, DLossCoefficient: -0.001, DEffectiveness: 0.01},
	}
	return st
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ss := NewStateStore(path)

	want := sampleState()
	require.NoError(t, ss.Save(want))

	got, warm := ss.Load()
	require.True(t, warm)
	assert.Equal(t, want, got)
}

func TestLoadMissingIsColdStart(t *testing.T) {
	ss := NewStateStore(filepath.Join(t.TempDir(), "nope.json"))

	got, warm := ss.Load()

	assert.False(t, warm)
	assert.Equal(t, Default(), got)
}

func TestLoadCorruptIsColdStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	got, warm := NewStateStore(path).Load()

	assert.False(t, warm)
	assert.Equal(t, Default(), got)
}

func TestLoadPartialRecordFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cycles": 7}`), 0o644))

	got, warm := NewStateStore(path).Load()

	assert.True(t, warm)
	assert.Equal(t, uint64(7), got.Cycles)
	assert.Equal(t, SchemaVersion, got.Version)
	assert.Equal(t, thermo_model.DefaultParameters(), got.Params)
	assert.Equal(t, 2.0, got.StoveKW)
}

func TestLoadClampsOutOfRangeParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	doc := `{"version": 1, "parameters": {"time_constant_hours": 500, "loss_coefficient": 0.06, "effectiveness": 0.8, "confidence": 9}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, _ := NewStateStore(path).Load()

	assert.Equal(t, thermo_model.MaxTimeConstantHours, got.Params.TimeConstantHours)
	assert.Equal(t, thermo_model.MaxConfidence, got.Params.Confidence)
}

func TestCrashedWriteLeavesCommittedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ss := NewStateStore(path)

	want := sampleState()
	require.NoError(t, ss.Save(want))

	// A crash between write and rename leaves a stray temp file; the
	// committed document must still load intact.
	require.NoError(t, os.WriteFile(path+".tmp", []byte(`{"version":`), 0o644))

	got, warm := ss.Load()
	assert.True(t, warm)
	assert.Equal(t, want, got)
}

func TestSaveStampsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	ss := NewStateStore(path)

	st := sampleState()
	st.Version = 0
	require.NoError(t, ss.Save(st))

	got, _ := ss.Load()
	assert.Equal(t, SchemaVersion, got.Version)
}
