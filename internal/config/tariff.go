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
	"time"

	"github.com/antst/hpthermo/internal/control"
)

var defaultNightHours = []int{22, 23, 0, 1, 2, 3, 4, 5}

// TariffConfig prices energy by hour. A non-empty HourlyPrices replaces the day/night levels.
type TariffConfig struct {
	DayPrice     float64         `yaml:"day_price"`
	NightPrice   float64         `yaml:"night_price"`
	NightHours   []int           `yaml:"night_hours"`
	HourlyPrices map[int]float64 `yaml:"hourly_prices,omitempty"`
}

func NewTariffConfig() *TariffConfig {
	return &TariffConfig{
		DayPrice:   1.2,
		NightPrice: 0.6,
		NightHours: append([]int(nil), defaultNightHours...),
	}
}

func (c *TariffConfig) Validate() error {
	if _, err := control.NewHourSet(c.NightHours); err != nil {
		return fmt.Errorf("night_hours: %w", err)
	}
	for h := range c.HourlyPrices {
		if h < 0 || h > 23 {
			return fmt.Errorf("hourly_prices: hour %d outside 0..23", h)
		}
	}
	return nil
}

func (c *TariffConfig) Build(loc *time.Location) (control.Tariff, error) {
	if len(c.HourlyPrices) > 0 {
		return control.HourlyTariff{Prices: c.HourlyPrices, Location: loc}, nil
	}
	hs, err := control.NewHourSet(c.NightHours)
	if err != nil {
		return nil, err
	}
	return control.DayNightTariff{Day: c.DayPrice, Night: c.NightPrice, NightHours: hs, Location: loc}, nil
}
