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
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pborman/getopt/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/antst/hpthermo/internal/logger"
)

const (
	defaultDBFile     = "hpthermo.db"
	defaultConfigFile = "config.yaml"
	defaultWorkers    = 4
	defaultLocation   = "UTC"
)

// Stage selects which part of the pipeline a run executes.
type Stage string

const (
	StageFit      Stage = "fit"
	StageForecast Stage = "forecast"
	StageSimulate Stage = "simulate"
	StageAll      Stage = "all"
)

func (s Stage) Valid() bool {
	switch s {
	case StageFit, StageForecast, StageSimulate, StageAll:
		return true
	}
	return false
}

// Runs reports whether a run of stage s includes stage other.
func (s Stage) Runs(other Stage) bool {
	return s == StageAll || s == other
}

type Config struct {
	LogLevel   zapcore.Level     `yaml:"log_level"`
	DBFile     string            `yaml:"db_file"`
	Workers    int               `yaml:"workers"`
	Buildings  []string          `yaml:"buildings"`
	Stage      Stage             `yaml:"stage"`
	Location   string            `yaml:"location"`
	Forecast   *ForecastConfig   `yaml:"forecast"`
	Tariff     *TariffConfig     `yaml:"tariff"`
	Setpoint   *SetpointConfig   `yaml:"setpoint"`
	Simulation *SimulationConfig `yaml:"simulation"`
	MQTT       *MQTTConfig       `yaml:"mqtt"`
}

func defConfig() *Config {
	return &Config{
		LogLevel:   zapcore.InfoLevel,
		DBFile:     defaultDBFile,
		Workers:    defaultWorkers,
		Stage:      StageAll,
		Location:   defaultLocation,
		Forecast:   NewForecastConfig(),
		Tariff:     NewTariffConfig(),
		Setpoint:   NewSetpointConfig(),
		Simulation: &SimulationConfig{},
		MQTT:       NewMQTTConfig(),
	}
}

func prettyPrint(cfg *Config) {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		logger.L().Error("Failed to marshal config for pretty print", err)
		return
	}
	logger.L().Debugf("--- Config ---\n%s\n\n", string(d))
}

// FillDefaults restores defaults for sections a config file blanked out.
func (cfg *Config) FillDefaults() {
	if cfg.DBFile == "" {
		cfg.DBFile = defaultDBFile
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Stage == "" {
		cfg.Stage = StageAll
	}
	if cfg.Location == "" {
		cfg.Location = defaultLocation
	}
	if cfg.Forecast == nil {
		cfg.Forecast = NewForecastConfig()
	}
	cfg.Forecast.FillDefaults()
	if cfg.Tariff == nil {
		cfg.Tariff = NewTariffConfig()
	}
	if cfg.Setpoint == nil {
		cfg.Setpoint = NewSetpointConfig()
	}
	cfg.Setpoint.FillDefaults(cfg.Tariff.NightHours)
	if cfg.Simulation == nil {
		cfg.Simulation = &SimulationConfig{}
	}
	if cfg.MQTT == nil {
		cfg.MQTT = NewMQTTConfig()
	}
	cfg.MQTT.FillDefaults()
}

func (cfg *Config) Validate() error {
	if !cfg.Stage.Valid() {
		return fmt.Errorf("unknown stage %q", cfg.Stage)
	}
	if _, err := cfg.Loc(); err != nil {
		return err
	}
	if err := cfg.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return fmt.Errorf("tariff: %w", err)
	}
	if err := cfg.Setpoint.Validate(); err != nil {
		return fmt.Errorf("setpoint: %w", err)
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}

// Loc is the zone clock hours of schedules and tariffs are read in. Stored timestamps
// come back as UTC, so the default reads hours exactly as stored.
func (cfg *Config) Loc() (*time.Location, error) {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", cfg.Location, err)
	}
	return loc, nil
}

// Load reads a config file on top of the defaults. A missing file leaves the defaults.
func Load(configFile string) (*Config, error) {
	cfg := defConfig()
	if err := readFile(cfg, configFile); err != nil {
		return nil, err
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Get() *Config {
	logLevel := getopt.StringLong("log-level", 'l', "", "log levels: debug, info, warn, error, dpanic, panic, fatal")
	configFile := getopt.StringLong("config", 'c', defaultConfigFile, "config file pathname")
	dbFile := getopt.StringLong("db", 'd', "", "DB file pathname")
	stage := getopt.StringLong("stage", 's', "", "pipeline stage: fit, forecast, simulate, all")
	parseOpts()

	cfg := defConfig()
	if err := readFile(cfg, *configFile); err != nil {
		log.Panicf("GetConfig: %v", err)
	}
	logger.L().Infof("Using config file `%v`", *configFile)

	if *dbFile != "" {
		cfg.DBFile = *dbFile
	}
	if *stage != "" {
		cfg.Stage = Stage(*stage)
	}
	cfg.FillDefaults()
	logger.L().Infof("Using DB file `%v`", cfg.DBFile)

	if *logLevel != "" {
		if err := cfg.LogLevel.Set(*logLevel); err != nil {
			logger.L().Errorf("Wrong log level `%v`: %v", *logLevel, err)
		}
	}
	logger.SetLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.L().Fatalf("Invalid config: %v", err)
	}

	prettyPrint(cfg)

	return cfg
}

func parseOpts() {
	helpFlag := false
	getopt.FlagLong(&helpFlag, "help", 'h', "display help")
	getopt.Parse()
	if helpFlag {
		getopt.Usage()
		os.Exit(0)
	}
}

func GetPTR[T any](v T) *T {
	return &v
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func readFile(cfg *Config, configFileName string) error {
	if !fileExists(configFileName) {
		return nil
	}

	f, err := os.Open(configFileName)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return nil
}
