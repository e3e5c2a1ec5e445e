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
	"math"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/hpthermo/internal/config"
	"github.com/antst/hpthermo/internal/db"
	"github.com/antst/hpthermo/internal/series"
	"github.com/antst/hpthermo/internal/thermo_model"
)

var (
	t0    = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	truth = thermo_model.Params{A: 0.9, B: 0.05, C: 0.5, D: 1.0}
)

// synthetic generates n hourly samples that follow p exactly.
func synthetic(p thermo_model.Params, n int, power func(i int) float64) []series.Sample {
	out := make([]series.Sample, n)
	indoor := 19.0
	for i := range out {
		outdoor := 5 + 5*math.Sin(2*math.Pi*float64(i)/24)
		pw := power(i)
		out[i] = series.Sample{Time: t0.Add(time.Duration(i) * time.Hour), Indoor: indoor, Outdoor: outdoor, Power: pw}
		indoor = p.Step(indoor, outdoor, pw)
	}
	return out
}

func seed(t *testing.T) *db.Store {
	t.Helper()
	ctx := context.Background()
	store, err := db.OpenDatabase(filepath.Join(t.TempDir(), "hpthermo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.UpsertSamples(ctx, "good", synthetic(truth, 200, func(i int) float64 {
		return float64((i * 7) % 5)
	})))
	require.NoError(t, store.UpsertSamples(ctx, "flat", synthetic(truth, 200, func(int) float64 { return 0 })))
	require.NoError(t, store.UpsertSamples(ctx, "short", synthetic(truth, 1, func(int) float64 { return 1 })))
	return store
}

func testConfig(t *testing.T, stage config.Stage) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Location = "UTC"
	cfg.Workers = 2
	cfg.Stage = stage
	cfg.Forecast.Baseline.Trees = 20
	return cfg
}

type recordingClient struct {
	mu     sync.Mutex
	topics []string
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

func (c *recordingClient) SafePublish(topic string, _ byte, _ bool, _ interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return doneToken{}
}

func (c *recordingClient) SafeDisconnect() {}

func TestAnalyzer_IsolatesBuildingFailures(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	client := &recordingClient{}

	a, err := NewAnalyzer(testConfig(t, config.StageAll), store, client)
	require.NoError(t, err)
	report, err := a.Run(ctx)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, a.RunID(), report.RunID)

	good := report.Result("good")
	require.NotNil(t, good)
	require.True(t, good.OK(), "%v", good.Errors)
	assert.InDelta(t, truth.A, good.Model.Params.A, 1e-6)
	assert.InDelta(t, truth.C, good.Model.Params.C, 1e-6)
	assert.Greater(t, good.Forecasts, 0)
	assert.Less(t, good.Physics.RMSE, 1e-6)
	assert.Contains(t, good.Totals, "constant")
	assert.Contains(t, good.Totals, "day_night")

	short := report.Result("short")
	require.NotNil(t, short)
	assert.Nil(t, short.Model)
	require.Len(t, short.Errors, 1)
	assert.Equal(t, config.StageFit, short.Errors[0].Stage)
	assert.True(t, errors.Is(short.Errors[0], thermo_model.ErrInsufficientData))

	flat := report.Result("flat")
	require.NotNil(t, flat)
	require.NotNil(t, flat.Model)
	assert.True(t, flat.Model.Fit.Degenerate)
	assert.Greater(t, flat.Forecasts, 0, "degenerate models still forecast")
	require.Len(t, flat.Errors, 1)
	assert.Equal(t, config.StageSimulate, flat.Errors[0].Stage)
	assert.True(t, errors.Is(flat.Errors[0], thermo_model.ErrDegenerateModel))

	assert.Len(t, report.Failures(), 2)
	assert.Contains(t, report.String(), "good")

	totals, err := store.Totals(ctx, a.RunID())
	require.NoError(t, err)
	assert.Len(t, totals, 2)
	for _, row := range totals {
		assert.Equal(t, "good", row.Building)
	}
	fm, err := store.ForecastMetrics(ctx, a.RunID())
	require.NoError(t, err)
	assert.Len(t, fm, 6)

	sort.Strings(client.topics)
	assert.Contains(t, client.topics, "hpthermo/good/params")
	assert.Contains(t, client.topics, "hpthermo/good/forecast")
	assert.Contains(t, client.topics, "hpthermo/good/simulation/constant")
	assert.Contains(t, client.topics, "hpthermo/flat/params")
	assert.NotContains(t, client.topics, "hpthermo/short/params")
}

func TestAnalyzer_StagesRerunIndependently(t *testing.T) {
	ctx := context.Background()
	store := seed(t)

	fit, err := NewAnalyzer(testConfig(t, config.StageFit), store, nil)
	require.NoError(t, err)
	report, err := fit.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Result("good").Forecasts)
	assert.Nil(t, report.Result("good").Totals)

	sim, err := NewAnalyzer(testConfig(t, config.StageSimulate), store, nil)
	require.NoError(t, err)
	report, err = sim.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sim.Params().Len(), "parameters come from the store")

	good := report.Result("good")
	require.True(t, good.OK(), "%v", good.Errors)
	assert.Len(t, good.Totals, 2)
	assert.Zero(t, good.Forecasts)

	short := report.Result("short")
	require.Len(t, short.Errors, 1)
	assert.Equal(t, config.StageSimulate, short.Errors[0].Stage)
	assert.True(t, errors.Is(short.Errors[0], thermo_model.ErrMissingParameters))
}

func TestAnalyzer_SelectedBuildings(t *testing.T) {
	store := seed(t)
	cfg := testConfig(t, config.StageFit)
	cfg.Buildings = []string{"good"}

	a, err := NewAnalyzer(cfg, store, nil)
	require.NoError(t, err)
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].OK())
	assert.Empty(t, report.Failures())
}

func TestJSONFloat(t *testing.T) {
	assert.Nil(t, jsonFloat(math.NaN()))
	assert.Nil(t, jsonFloat(math.Inf(1)))
	require.NotNil(t, jsonFloat(1.5))
	assert.Equal(t, 1.5, *jsonFloat(1.5))
}

func TestAnalyzer_KeepsPhysicsForecastWhenBaselineFails(t *testing.T) {
	ctx := context.Background()
	store, err := db.OpenDatabase(filepath.Join(t.TempDir(), "hpthermo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.UpsertSamples(ctx, "brief", synthetic(truth, 6, func(i int) float64 {
		return float64((i * 7) % 5)
	})))

	client := &recordingClient{}
	a, err := NewAnalyzer(testConfig(t, config.StageAll), store, client)
	require.NoError(t, err)
	report, err := a.Run(ctx)
	require.NoError(t, err)

	brief := report.Result("brief")
	require.NotNil(t, brief)
	assert.Equal(t, 2, brief.Forecasts)
	assert.Equal(t, 2, brief.Physics.N)
	assert.Zero(t, brief.Learned.N)

	var forecastErrs []*BuildingError
	for _, e := range brief.Errors {
		if e.Stage == config.StageForecast {
			forecastErrs = append(forecastErrs, e)
		}
	}
	require.Len(t, forecastErrs, 1)
	assert.True(t, errors.Is(forecastErrs[0], thermo_model.ErrInsufficientData))

	fm, err := store.ForecastMetrics(ctx, a.RunID())
	require.NoError(t, err)
	require.Len(t, fm, 3)
	byModel := map[string]db.MetricsRow{}
	for _, r := range fm {
		byModel[r.Model] = r
	}
	assert.Equal(t, 2, byModel["physics"].N)
	assert.NotNil(t, byModel["physics"].RMSE)
	assert.Nil(t, byModel["learned"].RMSE)
	assert.Contains(t, client.topics, "hpthermo/brief/forecast")
}
