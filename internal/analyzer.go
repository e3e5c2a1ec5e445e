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

package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/antst/hpthermo/internal/baseline"
	"github.com/antst/hpthermo/internal/config"
	"github.com/antst/hpthermo/internal/control"
	"github.com/antst/hpthermo/internal/db"
	"github.com/antst/hpthermo/internal/logger"
	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/safe_mqtt"
	"github.com/antst/hpthermo/internal/series"
	"github.com/antst/hpthermo/internal/thermo_model"
)

// Analyzer runs the fit, forecast and simulate stages over every building of a store.
// Buildings are independent: a failure in one is recorded in the report and never stops
// the others.
type Analyzer struct {
	cfg      *config.Config
	store    *db.Store
	pub      *publisher
	runID    string
	tariff   control.Tariff
	policies []control.SetpointPolicy
	params   *thermo_model.Table

	// NewRegressor builds the learned baseline for each building.
	NewRegressor func() baseline.Regressor
}

// NewAnalyzer prepares a run. client may be nil to skip MQTT publication.
func NewAnalyzer(cfg *config.Config, store *db.Store, client safe_mqtt.MqttClient) (*Analyzer, error) {
	loc, err := cfg.Loc()
	if err != nil {
		return nil, err
	}
	tariff, err := cfg.Tariff.Build(loc)
	if err != nil {
		return nil, errors.WithMessage(err, "tariff")
	}
	policies, err := cfg.Setpoint.Policies(loc)
	if err != nil {
		return nil, errors.WithMessage(err, "setpoint policies")
	}

	a := &Analyzer{
		cfg:      cfg,
		store:    store,
		runID:    uuid.New().String(),
		tariff:   tariff,
		policies: policies,
		params:   thermo_model.NewTable(),
		NewRegressor: func() baseline.Regressor {
			return baseline.NewGradientBoosting(cfg.Forecast.Baseline)
		},
	}
	if client != nil {
		a.pub = &publisher{client: client, topic: cfg.MQTT.Topic}
	}
	return a, nil
}

func (a *Analyzer) RunID() string { return a.runID }

// Params is the parameter table filled by the fit stage, or read building by building
// from the store when the run starts at a later stage.
func (a *Analyzer) Params() *thermo_model.Table { return a.params }

func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	stage := a.cfg.Stage
	if err := a.store.InsertRun(ctx, a.runID, string(stage), time.Now()); err != nil {
		return nil, err
	}

	buildings := a.cfg.Buildings
	if len(buildings) == 0 {
		var err error
		if buildings, err = a.store.Buildings(ctx); err != nil {
			return nil, err
		}
	}

	logger.L().Infof("Run %s: stage %s over %d buildings with %d workers", a.runID, stage, len(buildings), a.cfg.Workers)

	results := make([]*BuildingResult, len(buildings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, b := range buildings {
		g.Go(func() error {
			results[i] = a.analyze(gctx, b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{RunID: a.runID, Stage: stage, Results: results}
	for _, e := range report.Failures() {
		logger.B(e.Building).Errorf("%s stage failed: %v", e.Stage, e.Err)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := a.logStored(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// logStored reads the run's aggregates back from the store.
func (a *Analyzer) logStored(ctx context.Context) error {
	fm, err := a.store.ForecastMetrics(ctx, a.runID)
	if err != nil {
		return err
	}
	for _, r := range fm {
		logger.B(r.Building).Debugf(
			"Stored %s H=%d score over %d rows: RMSE=%v R2=%v", r.Model, r.Horizon, r.N, deref(r.RMSE), deref(r.R2),
		)
	}
	totals, err := a.store.Totals(ctx, a.runID)
	if err != nil {
		return err
	}
	for _, r := range totals {
		logger.B(r.Building).Debugf("Stored %s totals: %.2f kWh, cost %.2f", r.Policy, r.Energy, r.Cost)
	}
	return nil
}

func deref(v *float64) any {
	if v == nil {
		return "null"
	}
	return *v
}

func (a *Analyzer) analyze(ctx context.Context, building string) *BuildingResult {
	res := &BuildingResult{Building: building}
	log := logger.B(building)

	s, err := a.store.LoadSeries(ctx, building)
	if err != nil {
		res.fail(a.cfg.Stage, err)
		return res
	}
	log.Debugf("Loaded %v, %d incomplete rows excluded from fitting", s, s.Dropped())

	stage := a.cfg.Stage
	if stage.Runs(config.StageFit) {
		if err := a.fit(ctx, s, res); err != nil {
			res.fail(config.StageFit, err)
			return res
		}
	} else if err := a.loadParams(ctx, building); err != nil {
		res.fail(stage, err)
		return res
	}

	m, err := a.params.Get(building)
	if err != nil {
		res.fail(stage, err)
		return res
	}
	res.Model = m

	if stage.Runs(config.StageForecast) {
		if err := a.forecast(ctx, s, m, res); err != nil {
			res.fail(config.StageForecast, err)
		}
	}
	if stage.Runs(config.StageSimulate) {
		if err := a.simulate(ctx, s, m, res); err != nil {
			res.fail(config.StageSimulate, err)
		}
	}
	return res
}

// loadParams takes the parameters of an earlier fit run from the store.
func (a *Analyzer) loadParams(ctx context.Context, building string) error {
	m, err := a.store.GetParams(ctx, building)
	if err != nil {
		return err
	}
	return a.params.Put(m)
}

func (a *Analyzer) fit(ctx context.Context, s *series.Series, res *BuildingResult) error {
	m, err := thermo_model.Estimate(s)
	if err != nil {
		return err
	}
	if err := a.params.Put(m); err != nil {
		return err
	}
	if err := a.store.UpsertParams(ctx, a.runID, m); err != nil {
		return err
	}
	a.pub.publish(s.Building(), "params", paramsReport{
		RunID:      a.runID,
		Params:     m.Params,
		Fit:        newScoreReport(metricsOf(m.Fit)),
		Degenerate: m.Fit.Degenerate,
		Reason:     m.Fit.Reason,
	})
	return nil
}

func (a *Analyzer) forecast(ctx context.Context, s *series.Series, m *thermo_model.Model, res *BuildingResult) error {
	if m.Fit.Degenerate {
		logger.B(s.Building()).Warnf("Forecasting with degenerate parameters: %s", m.Fit.Reason)
	}
	h := a.cfg.Forecast.Horizon
	f, err := thermo_model.NewForecaster(m.Params, h)
	if err != nil {
		return err
	}
	physics, err := f.Collect(s)
	if err != nil {
		return err
	}
	// A failed baseline still stores the physics rows, with NULL learned values.
	learned, baselineErr := baseline.Direct(s, h, a.cfg.Forecast.TrainFraction, a.NewRegressor())
	if baselineErr != nil {
		baselineErr = errors.WithMessage(baselineErr, "learned baseline")
		learned = nil
	}

	cmp := baseline.Compare(physics, learned)
	if err := a.store.SaveComparison(ctx, a.runID, s.Building(), h, cmp); err != nil {
		return err
	}
	res.Forecasts = len(cmp.Rows)
	res.Physics, res.PhysicsHeldOut, res.Learned = cmp.Physics, cmp.PhysicsHeldOut, cmp.Learned

	logger.B(s.Building()).Infof(
		"H=%d forecast: physics RMSE=%.3f (held-out %.3f), learned RMSE=%.3f over %d held-out rows",
		h, cmp.Physics.RMSE, cmp.PhysicsHeldOut.RMSE, cmp.Learned.RMSE, cmp.Learned.N,
	)
	a.pub.publish(s.Building(), "forecast", forecastReport{
		RunID:          a.runID,
		Horizon:        h,
		Physics:        newScoreReport(cmp.Physics),
		PhysicsHeldOut: newScoreReport(cmp.PhysicsHeldOut),
		Learned:        newScoreReport(cmp.Learned),
	})
	return baselineErr
}

// simulate runs every policy over the complete rows of s. A failing policy does not stop
// the others; the first failure is returned.
func (a *Analyzer) simulate(ctx context.Context, s *series.Series, m *thermo_model.Model, res *BuildingResult) error {
	c := s.Complete()
	opts := a.cfg.Simulation.Options(a.cfg.Setpoint.Alignment)

	var firstErr error
	for _, p := range a.policies {
		tr, err := control.Simulate(m, c, p, a.tariff, opts)
		if err == nil {
			err = a.store.SaveTrace(ctx, a.runID, tr)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = errors.WithMessagef(err, "policy %s", p.Name())
			}
			continue
		}

		if res.Totals == nil {
			res.Totals = make(map[string]control.Totals, len(a.policies))
		}
		res.Totals[p.Name()] = tr.Totals
		logger.B(s.Building()).Infof(
			"Policy %s: %.1f kWh, cost %.2f, %d clamped steps",
			p.Name(), tr.Totals.Energy, tr.Totals.Cost, tr.Totals.ClampedSteps,
		)
		a.pub.publish(s.Building(), "simulation/"+p.Name(), simulationReport{
			RunID:   a.runID,
			Initial: tr.Initial,
			Totals:  tr.Totals,
		})
	}
	return firstErr
}

func metricsOf(f thermo_model.Fit) metrics.Score {
	return metrics.Score{RMSE: f.RMSE, R2: f.R2, N: f.Equations}
}
