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
	"sort"
	"time"

	"github.com/pkg/errors"
)

// HourSet is a set of hours of the day.
type HourSet [24]bool

// NewHourSet builds a set from hour numbers in 0..23.
func NewHourSet(hours []int) (HourSet, error) {
	var hs HourSet
	for _, h := range hours {
		if h < 0 || h > 23 {
			return hs, errors.Errorf("hour %d outside 0..23", h)
		}
		hs[h] = true
	}
	return hs, nil
}

func (hs HourSet) Contains(hour int) bool {
	return hour >= 0 && hour < 24 && hs[hour]
}

func (hs HourSet) Hours() []int {
	out := make([]int, 0, 24)
	for h, ok := range hs {
		if ok {
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}

// hourOf returns the hour of day of ts, in loc when given.
func hourOf(ts time.Time, loc *time.Location) int {
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts.Hour()
}
