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
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/thermo_model"
)

type paramsRow struct {
	Building   string          `db:"building"`
	A          float64         `db:"a"`
	B          float64         `db:"b"`
	C          float64         `db:"c"`
	D          float64         `db:"d"`
	RMSE       sql.NullFloat64 `db:"rmse"`
	R2         sql.NullFloat64 `db:"r2"`
	Equations  int             `db:"equations"`
	Degenerate bool            `db:"degenerate"`
	Reason     string          `db:"reason"`
	RunID      string          `db:"run_id"`
	FittedAt   time.Time       `db:"fitted_at"`
}

func (r *paramsRow) model() *thermo_model.Model {
	return &thermo_model.Model{
		Building: r.Building,
		Params:   thermo_model.Params{A: r.A, B: r.B, C: r.C, D: r.D},
		Fit: thermo_model.Fit{
			RMSE:       orNaN(r.RMSE),
			R2:         orNaN(r.R2),
			Equations:  r.Equations,
			Degenerate: r.Degenerate,
			Reason:     r.Reason,
		},
	}
}

// UpsertParams records the fitted model of a building, replacing any earlier fit.
func (s *Store) UpsertParams(ctx context.Context, runID string, m *thermo_model.Model) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO thermal_params(building, a, b, c, d, rmse, r2, equations, degenerate, reason, run_id, fitted_at)
		VALUES(:building, :a, :b, :c, :d, :rmse, :r2, :equations, :degenerate, :reason, :run_id, :fitted_at)
		ON CONFLICT(building) DO UPDATE SET
			a=excluded.a, b=excluded.b, c=excluded.c, d=excluded.d,
			rmse=excluded.rmse, r2=excluded.r2, equations=excluded.equations,
			degenerate=excluded.degenerate, reason=excluded.reason,
			run_id=excluded.run_id, fitted_at=excluded.fitted_at;`,
		paramsRow{
			Building:   m.Building,
			A:          m.Params.A,
			B:          m.Params.B,
			C:          m.Params.C,
			D:          m.Params.D,
			RMSE:       nullable(m.Fit.RMSE),
			R2:         nullable(m.Fit.R2),
			Equations:  m.Fit.Equations,
			Degenerate: m.Fit.Degenerate,
			Reason:     m.Fit.Reason,
			RunID:      runID,
			FittedAt:   time.Now().UTC(),
		},
	)
	return errors.Wrapf(err, "upsert params of %q", m.Building)
}

// GetParams returns thermo_model.ErrMissingParameters when the building was never fitted.
func (s *Store) GetParams(ctx context.Context, building string) (*thermo_model.Model, error) {
	var r paramsRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM thermal_params WHERE building = $1`, building)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(thermo_model.ErrMissingParameters, "building %q", building)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get params of %q", building)
	}
	return r.model(), nil
}
