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
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpotc/internal/config"
	"github.com/antst/hpotc/internal/learning"
	"github.com/antst/hpotc/internal/logger"
	"github.com/antst/hpotc/internal/store"
	"github.com/antst/hpotc/internal/thermo_model"
)

// RunCalibration replays a bounded window of recorded cycles through
// the learner without issuing any commands, and saves the fitted state
// as the warm-start baseline.
func RunCalibration(cfg *config.Config, cycles int) error {
	history, err := store.OpenHistory(cfg.DBFile)
	if err != nil {
		return errors.Wrap(err, "calibration needs the history DB")
	}
	defer history.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rows, err := history.RecentCycles(ctx, cycles)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("no recorded cycles to calibrate from")
	}
	logger.L().Infof("Calibrating on %d recorded cycles", len(rows))

	states := store.NewStateStore(cfg.StateFile)
	st, _ := states.Load()

	learner := learning.NewLearner(cfg.CycleDuration())
	predictions := learning.NewRing[learning.PredictionRecord](learning.PredictionHistoryCap)
	updates := learning.NewRing[learning.UpdateRecord](learning.UpdateHistoryCap)
	params := st.Params

	for _, row := range rows {
		// Re-predict with the evolving parameters against what the
		// pump actually delivered, then learn from the recorded
		// outcome.
		predicted, err := thermo_model.PredictDelta(
			row.Indoor, row.OutletActual, row.Outdoor, row.Aux, params, cfg.CycleDuration(),
		)
		if err != nil {
			logger.L().Debugf("Skipping row at %v: %v", row.TS, err)
			continue
		}

		rec := learning.PredictionRecord{
			Time:           row.TS,
			PredictedDelta: predicted,
			ActualDelta:    row.ActualDelta,
			Indoor:         row.Indoor,
			Outlet:         row.OutletActual,
			Outdoor:        row.Outdoor,
			Aux:            row.Aux,
		}
		predictions.Push(rec)

		var upd learning.UpdateRecord
		params, upd, _ = learner.Update(params, rec, predictions)
		updates.Push(upd)
	}

	st.Params = params
	st.Predictions = predictions.Items()
	st.Updates = updates.Items()
	st.UpdatedAt = time.Now()
	if err := states.Save(st); err != nil {
		return err
	}

	logger.L().Infof(
		"Calibration done: tau=%.1fh loss=%.3f eff=%.3f confidence=%.2f",
		params.TimeConstantHours, params.LossCoefficient, params.Effectiveness, params.Confidence,
	)
	return nil
}
