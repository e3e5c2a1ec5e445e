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
	"fmt"
	"time"
)

// SetpointPolicy maps a timestamp to a target indoor temperature.
type SetpointPolicy interface {
	Name() string
	Setpoint(ts time.Time) (float64, error)
}

// Constant holds the same target at every hour.
type Constant struct {
	Value float64
}

func (c Constant) Name() string { return "constant" }

func (c Constant) Setpoint(time.Time) (float64, error) { return c.Value, nil }

func (c Constant) String() string { return fmt.Sprintf("constant %.1f°C", c.Value) }

// DayNight targets Night during the night hours and Day otherwise.
type DayNight struct {
	Day        float64
	Night      float64
	NightHours HourSet
	Location   *time.Location
}

func (p DayNight) Name() string { return "day_night" }

func (p DayNight) Setpoint(ts time.Time) (float64, error) {
	if p.NightHours.Contains(hourOf(ts, p.Location)) {
		return p.Night, nil
	}
	return p.Day, nil
}

func (p DayNight) String() string {
	return fmt.Sprintf("day %.1f°C / night %.1f°C, night hours %v", p.Day, p.Night, p.NightHours.Hours())
}
