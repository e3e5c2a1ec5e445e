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

package control

import (
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/thermo_model"
)

// Tariff maps a timestamp to a unit energy price.
type Tariff interface {
	Price(ts time.Time) (float64, error)
}

// DayNightTariff is a two-level time-of-use tariff.
type DayNightTariff struct {
	Day        float64
	Night      float64
	NightHours HourSet
	Location   *time.Location
}

func (t DayNightTariff) Price(ts time.Time) (float64, error) {
	if t.NightHours.Contains(hourOf(ts, t.Location)) {
		return t.Night, nil
	}
	return t.Day, nil
}

// HourlyTariff prices each hour of the day explicitly. Hours without a price are undefined.
type HourlyTariff struct {
	Prices   map[int]float64
	Location *time.Location
}

func (t HourlyTariff) Price(ts time.Time) (float64, error) {
	h := hourOf(ts, t.Location)
	p, ok := t.Prices[h]
	if !ok {
		return 0, errors.Wrapf(
			thermo_model.ErrPolicyCoverageGap, "no price for hour %d (%s)", h, ts.Format(time.RFC3339),
		)
	}
	return p, nil
}
