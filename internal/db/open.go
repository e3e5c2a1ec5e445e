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
	_ "embed"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/logger"
)

//go:embed schema.sql
var schema string

// Store is the SQLite-backed exchange point between the pipeline stages.
type Store struct {
	db *sqlx.DB
}

func OpenDatabase(dbFile string) (*Store, error) {
	sqlDB, err := sqlx.Open("sqlite3", dbFile)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dbFile)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, errors.Wrapf(err, "ping %s", dbFile)
	}

	// SQLite allows a single writer; workers queue on the pool.
	sqlDB.SetMaxOpenConns(1)

	// Create tables if they don't exist
	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "create schema")
	}

	logger.L().Debugf("Opened database `%v`", dbFile)
	return &Store{db: sqlDB}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertRun(ctx context.Context, runID, stage string, startedAt time.Time) error {
	_, err := s.db.ExecContext(
		ctx, `INSERT INTO runs(run_id, stage, started_at) VALUES($1, $2, $3)`, runID, stage, startedAt.UTC(),
	)
	return errors.Wrap(err, "insert run")
}

// nullable maps NaN to NULL; SQLite has no NaN.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
