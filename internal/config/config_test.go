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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/antst/hpthermo/internal/control"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, zapcore.InfoLevel, cfg.LogLevel)
	assert.Equal(t, defaultDBFile, cfg.DBFile)
	assert.Equal(t, defaultWorkers, cfg.Workers)
	assert.Equal(t, StageAll, cfg.Stage)
	assert.Equal(t, "UTC", cfg.Location)
	assert.Equal(t, 4, cfg.Forecast.Horizon)
	assert.Equal(t, 0.8, cfg.Forecast.TrainFraction)
	assert.Equal(t, 100, cfg.Forecast.Baseline.Trees)
	assert.Equal(t, defaultNightHours, cfg.Tariff.NightHours)
	assert.Equal(t, defaultNightHours, cfg.Setpoint.NightHours, "setpoint night hours follow the tariff")
	assert.Equal(t, control.AlignTarget, cfg.Setpoint.Alignment)
	assert.Nil(t, cfg.Simulation.MaxPower)
	assert.False(t, cfg.MQTT.Enabled())
	assert.Equal(t, "hpthermo", cfg.MQTT.Topic)
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
log_level: debug
db_file: /tmp/x.db
workers: 2
buildings: [b1, b2]
stage: forecast
location: UTC
forecast:
  horizon: 6
  baseline:
    trees: 10
tariff:
  night_hours: [0, 1]
  hourly_prices: {0: 0.5, 1: 0.4}
setpoint:
  constant_setpoint: 21
  alignment: previous
simulation:
  max_power: 8
mqtt:
  url: tcp://broker:1883
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, zapcore.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "/tmp/x.db", cfg.DBFile)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"b1", "b2"}, cfg.Buildings)
	assert.Equal(t, StageForecast, cfg.Stage)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.Equal(t, 0.8, cfg.Forecast.TrainFraction)
	assert.Equal(t, 10, cfg.Forecast.Baseline.Trees)
	assert.Equal(t, 3, cfg.Forecast.Baseline.MaxDepth)
	assert.Equal(t, 21.0, *cfg.Setpoint.ConstantSetpoint)
	assert.Equal(t, 19.0, *cfg.Setpoint.DaySetpoint, "unset keys keep their defaults")
	assert.Equal(t, []int{0, 1}, cfg.Setpoint.NightHours)
	assert.Equal(t, control.AlignPrevious, cfg.Setpoint.Alignment)
	assert.Equal(t, 8.0, *cfg.Simulation.MaxPower)
	assert.True(t, cfg.MQTT.Enabled())

	loc, err := cfg.Loc()
	require.NoError(t, err)
	tariff, err := cfg.Tariff.Build(loc)
	require.NoError(t, err)
	require.IsType(t, control.HourlyTariff{}, tariff)
	price, err := tariff.Price(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.4, price)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"stage":          "stage: everything",
		"alignment":      "setpoint: {alignment: sideways}",
		"tariff hours":   "tariff: {night_hours: [24]}",
		"setpoint hours": "setpoint: {night_hours: [-1]}",
		"hourly prices":  "tariff: {hourly_prices: {25: 1}}",
		"horizon":        "forecast: {horizon: -2}",
		"train fraction": "forecast: {train_fraction: 1.5}",
		"max power":      "simulation: {max_power: 0}",
		"location":       "location: Nowhere/Atlantis",
		"half day/night": "setpoint: {day_setpoint: null}",
		"yaml":           "workers: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestPolicies(t *testing.T) {
	cfg, err := Load(writeConfig(t, "location: UTC\ntariff: {night_hours: [22, 23]}"))
	require.NoError(t, err)
	loc, err := cfg.Loc()
	require.NoError(t, err)

	policies, err := cfg.Setpoint.Policies(loc)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	assert.Equal(t, "constant", policies[0].Name())
	assert.Equal(t, "day_night", policies[1].Name())

	night := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	day := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sp, err := policies[1].Setpoint(night)
	require.NoError(t, err)
	assert.Equal(t, 21.0, sp)
	sp, err = policies[1].Setpoint(day)
	require.NoError(t, err)
	assert.Equal(t, 19.0, sp)

	tariff, err := cfg.Tariff.Build(loc)
	require.NoError(t, err)
	price, err := tariff.Price(night)
	require.NoError(t, err)
	assert.Equal(t, 0.6, price)
}

func TestPolicies_ConstantOnly(t *testing.T) {
	cfg, err := Load(writeConfig(t, "setpoint: {day_setpoint: null, night_setpoint: null}"))
	require.NoError(t, err)
	policies, err := cfg.Setpoint.Policies(time.UTC)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "constant", policies[0].Name())
}

func TestStage(t *testing.T) {
	assert.True(t, StageAll.Runs(StageFit))
	assert.True(t, StageFit.Runs(StageFit))
	assert.False(t, StageForecast.Runs(StageSimulate))
	assert.False(t, Stage("x").Valid())
}

func TestGetPTR(t *testing.T) {
	p := GetPTR(3.5)
	assert.Equal(t, 3.5, *p)
}

func TestDefaultTariff_IgnoresHostZone(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	saved := time.Local
	time.Local = shanghai
	t.Cleanup(func() { time.Local = saved })

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	loc, err := cfg.Loc()
	require.NoError(t, err)
	tariff, err := cfg.Tariff.Build(loc)
	require.NoError(t, err)

	price, err := tariff.Price(time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.6, price, "22:00 as stored is a night hour")

	price, err = tariff.Price(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1.2, price)
}
