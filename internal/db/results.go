/*
 * Copyright (c) 2023. Anton Starikov -- All Rights Reserved
 *
 * This file is part of HPTHERMO project.
 *
 * HPTHERMO is free software: you can redistribute it and/or modify
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

package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/baseline"
	"github.com/antst/hpthermo/internal/control"
	"github.com/antst/hpthermo/internal/metrics"
)

// SaveComparison stores the aligned forecast rows and the scores of both forecasters.
func (s *Store) SaveComparison(
	ctx context.Context, runID, building string, horizon int, cmp *baseline.Comparison,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO forecast_comparison(run_id, building, ts, truth, physics, learned)
		VALUES($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, r := range cmp.Rows {
		if _, err := stmt.ExecContext(
			ctx, runID, building, r.Time.UTC(), nullable(r.Truth), nullable(r.Physics), nullable(r.Learned),
		); err != nil {
			return errors.Wrapf(err, "insert forecast row of %q", building)
		}
	}

	scores := map[string]metrics.Score{
		"physics":          cmp.Physics,
		"physics_held_out": cmp.PhysicsHeldOut,
		"learned":          cmp.Learned,
	}
	for name, sc := range scores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO forecast_metrics(run_id, building, model, horizon, rmse, r2, n)
			VALUES($1, $2, $3, $4, $5, $6, $7)`,
			runID, building, name, horizon, nullable(sc.RMSE), nullable(sc.R2), sc.N,
		); err != nil {
			return errors.Wrapf(err, "insert %s metrics of %q", name, building)
		}
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// SaveTrace stores a simulation trace and its totals.
func (s *Store) SaveTrace(ctx context.Context, runID string, tr *control.Trace) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO simulation_trace(run_id, building, policy, ts, temp, power, demand, setpoint, price, clamped)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, p := range tr.Points {
		if _, err := stmt.ExecContext(
			ctx, runID, tr.Building, tr.Policy, p.Time.UTC(), p.Temp, p.Power, p.Demand, p.Setpoint, p.Price, p.Clamped,
		); err != nil {
			return errors.Wrapf(err, "insert trace point of %q/%s", tr.Building, tr.Policy)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO simulation_totals(run_id, building, policy, initial_temp, energy_kwh, cost, clamped_steps)
		VALUES($1, $2, $3, $4, $5, $6, $7)`,
		runID, tr.Building, tr.Policy, tr.Initial, tr.Totals.Energy, tr.Totals.Cost, tr.Totals.ClampedSteps,
	); err != nil {
		return errors.Wrapf(err, "insert totals of %q/%s", tr.Building, tr.Policy)
	}

	return errors.Wrap(tx.Commit(), "commit")
}

// TotalsRow is one stored (building, policy) aggregate.
type TotalsRow struct {
	RunID        string  `db:"run_id"`
	Building     string  `db:"building"`
	Policy       string  `db:"policy"`
	InitialTemp  float64 `db:"initial_temp"`
	Energy       float64 `db:"energy_kwh"`
	Cost         float64 `db:"cost"`
	ClampedSteps int     `db:"clamped_steps"`
}

func (s *Store) Totals(ctx context.Context, runID string) ([]TotalsRow, error) {
	var out []TotalsRow
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM simulation_totals WHERE run_id = $1 ORDER BY building, policy`, runID,
	)
	return out, errors.Wrap(err, "load totals")
}

// MetricsRow is one stored forecaster score.
type MetricsRow struct {
	RunID    string   `db:"run_id"`
	Building string   `db:"building"`
	Model    string   `db:"model"`
	Horizon  int      `db:"horizon"`
	RMSE     *float64 `db:"rmse"`
	R2       *float64 `db:"r2"`
	N        int      `db:"n"`
}

func (s *Store) ForecastMetrics(ctx context.Context, runID string) ([]MetricsRow, error) {
	var out []MetricsRow
	err := s.db.SelectContext(ctx, &out, `
		SELECT * FROM forecast_metrics WHERE run_id = $1 ORDER BY building, model`, runID,
	)
	return out, errors.Wrap(err, "load forecast metrics")
}
