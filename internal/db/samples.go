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

	"github.com/antst/hpthermo/internal/series"
)

type sampleRow struct {
	Time    time.Time       `db:"ts"`
	Indoor  sql.NullFloat64 `db:"indoor_temp"`
	Outdoor sql.NullFloat64 `db:"outdoor_temp"`
	Power   sql.NullFloat64 `db:"heat_pump_power"`
}

// Buildings lists every building with samples.
func (s *Store) Buildings(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out, `SELECT DISTINCT building FROM samples ORDER BY building`)
	return out, errors.Wrap(err, "list buildings")
}

// LoadSeries reads the samples of one building; NULL fields become NaN.
func (s *Store) LoadSeries(ctx context.Context, building string) (*series.Series, error) {
	var rows []sampleRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT ts, indoor_temp, outdoor_temp, heat_pump_power
		FROM samples WHERE building = $1 ORDER BY ts`, building,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "load samples of %q", building)
	}

	samples := make([]series.Sample, len(rows))
	for i, r := range rows {
		samples[i] = series.Sample{
			Time:    r.Time,
			Indoor:  orNaN(r.Indoor),
			Outdoor: orNaN(r.Outdoor),
			Power:   orNaN(r.Power),
		}
	}
	return series.New(building, samples)
}

// UpsertSamples writes samples for a building, replacing rows with the same timestamp.
func (s *Store) UpsertSamples(ctx context.Context, building string, samples []series.Sample) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO samples(building, ts, indoor_temp, outdoor_temp, heat_pump_power)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT(building, ts) DO UPDATE SET
			indoor_temp=excluded.indoor_temp,
			outdoor_temp=excluded.outdoor_temp,
			heat_pump_power=excluded.heat_pump_power;`)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for _, v := range samples {
		if _, err := stmt.ExecContext(
			ctx, building, v.Time.UTC(), nullable(v.Indoor), nullable(v.Outdoor), nullable(v.Power),
		); err != nil {
			return errors.Wrapf(err, "insert sample %s", v.Time.Format(time.RFC3339))
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}
