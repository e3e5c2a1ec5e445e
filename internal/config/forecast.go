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

	"github.com/antst/hpthermo/internal/baseline"
)

const (
	defaultHorizon       = 4
	defaultTrainFraction = 0.8
)

type ForecastConfig struct {
	Horizon       int                  `yaml:"horizon"`
	TrainFraction float64              `yaml:"train_fraction"`
	Baseline      baseline.BoostConfig `yaml:"baseline"`
}

func NewForecastConfig() *ForecastConfig {
	cfg := &ForecastConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *ForecastConfig) FillDefaults() {
	if c.Horizon == 0 {
		c.Horizon = defaultHorizon
	}
	if c.TrainFraction == 0 {
		c.TrainFraction = defaultTrainFraction
	}
	c.Baseline.FillDefaults()
}

func (c *ForecastConfig) Validate() error {
	if c.Horizon < 1 {
		return fmt.Errorf("horizon must be at least 1, got %d", c.Horizon)
	}
	if c.TrainFraction <= 0 || c.TrainFraction >= 1 {
		return fmt.Errorf("train_fraction must be in (0, 1), got %v", c.TrainFraction)
	}
	return nil
}
