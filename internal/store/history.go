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
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TIMESTAMP NOT NULL,
	indoor REAL NOT NULL,
	outdoor REAL NOT NULL,
	outlet_actual REAL NOT NULL,
	target REAL NOT NULL,
	aux REAL NOT NULL,
	predicted_delta REAL NOT NULL,
	actual_delta REAL NOT NULL,
	command REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS cycles_ts ON cycles (ts);
CREATE TABLE IF NOT EXISTS controller (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// CycleRow is one completed cycle with its realized outcome, the raw
// material for offline calibration.
type CycleRow struct {
	TS             time.Time `db:"ts"`
	Indoor         float64   `db:"indoor"`
	Outdoor        float64   `db:"outdoor"`
	OutletActual   float64   `db:"outlet_actual"`
	Target         float64   `db:"target"`
	Aux            float64   `db:"aux"`
	PredictedDelta float64   `db:"predicted_delta"`
	ActualDelta    float64   `db:"actual_delta"`
	Command        float64   `db:"command"`
}

type History struct {
	db *sqlx.DB
}

func OpenHistory(dbFile string) (*History, error) {
	db, err := sqlx.Connect("sqlite3", expandHome(dbFile))
	if err != nil {
		return nil, errors.Wrapf(err, "open history DB `%s`", dbFile)
	}
	// Single-process single-writer; more connections only invite
	// sqlite lock contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		return nil, errors.Wrap(err, "create history schema")
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) AppendCycle(ctx context.Context, row CycleRow) error {
	_, err := h.db.NamedExecContext(
		ctx,
		`INSERT INTO cycles (ts, indoor, outdoor, outlet_actual, target, aux, predicted_delta, actual_delta, command)
		 VALUES (:ts, :indoor, :outdoor, :outlet_actual, :target, :aux, :predicted_delta, :actual_delta, :command)`,
		row,
	)
	return errors.Wrap(err, "append cycle")
}

// RecentCycles returns up to n most recent rows in chronological order.
func (h *History) RecentCycles(ctx context.Context, n int) ([]CycleRow, error) {
	var rows []CycleRow
	err := h.db.SelectContext(
		ctx, &rows,
		`SELECT ts, indoor, outdoor, outlet_actual, target, aux, predicted_delta, actual_delta, command
		 FROM cycles ORDER BY ts DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, errors.Wrap(err, "select recent cycles")
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (h *History) GetValue(ctx context.Context, name string) (string, error) {
	var value string
	err := h.db.GetContext(ctx, &value, `SELECT value FROM controller WHERE name = ?`, name)
	return value, err
}

func (h *History) UpsertValue(ctx context.Context, name, value string) error {
	_, err := h.db.ExecContext(
		ctx,
		`INSERT INTO controller (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	return errors.Wrapf(err, "upsert controller value `%s`", name)
}
