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

// Package store persists the learning state (crash-safe JSON document)
// and the per-cycle history (sqlite) used for offline calibration.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpotc/internal/learning"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/thermo_model"
)

// SchemaVersion tags the persisted record. Loads of older or partial
// records fill missing fields with defaults instead of failing.
const SchemaVersion = 1

const defaultStoveKW = 2.0

// State is the single persisted entity: learned parameters, the two
// history rings, the stove coefficient and the cycle counter.
type State struct {
	Version     int                          `json:"version"`
	Params      thermo_model.Parameters      `json:"parameters"`
	StoveKW     float64                      `json:"stove_kw"`
	Predictions []learning.PredictionRecord  `json:"predictions"`
	Updates     []learning.UpdateRecord      `json:"updates"`
	Cycles      uint64                       `json:"cycles"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func Default() State {
	return State{
		Version: SchemaVersion,
		Params:  thermo_model.DefaultParameters(),
		StoveKW: defaultStoveKW,
	}
}

// normalize fills fields a forward-compatible load may have left zero.
func (s *State) normalize() {
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	if s.Params.TimeConstantHours == 0 && s.Params.Effectiveness == 0 {
		s.Params = thermo_model.DefaultParameters()
	}
	if s.StoveKW == 0 {
		s.StoveKW = defaultStoveKW
	}
	s.Params.Clamp()
}

type StateStore struct {
	path string
}

func NewStateStore(path string) *StateStore {
	return &StateStore{path: expandHome(path)}
}

// Load returns the persisted state and true on a warm start. Missing
// or corrupt files are a logged cold start with defaults, never an
// error: the engine can always run from scratch.
func (s *StateStore) Load() (State, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		logger.L().Warnf("No learning state at `%s`, cold start: %v", s.path, err)
		return Default(), false
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logger.L().Errorf("Corrupt learning state at `%s`, cold start: %v", s.path, err)
		return Default(), false
	}

	st.normalize()
	logger.L().Infof("Warm start from `%s`: %d cycles, confidence %.2f", s.path, st.Cycles, st.Params.Confidence)
	return st, true
}

// Save writes atomically: full document to a temporary file in the
// same directory, then rename. A crash mid-write leaves the previous
// committed state intact.
func (s *StateStore) Save(st State) error {
	st.Version = SchemaVersion

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal learning state")
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open `%s`", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write `%s`", tmp)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrapf(err, "sync `%s`", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close `%s`", tmp)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(err, "commit `%s`", s.path)
	}
	return nil
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
