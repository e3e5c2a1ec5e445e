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

package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var ErrDuplicateTimestamp = errors.New("duplicate timestamp")

// Sample is one hourly observation. Missing values are NaN.
type Sample struct {
	Time    time.Time
	Indoor  float64 // °C
	Outdoor float64 // °C
	Power   float64 // kW
}

// Complete reports whether every required field is present.
func (s Sample) Complete() bool {
	return !math.IsNaN(s.Indoor) && !math.IsNaN(s.Outdoor) && !math.IsNaN(s.Power)
}

// Exogenous reports whether the outdoor temperature and power are present.
func (s Sample) Exogenous() bool {
	return !math.IsNaN(s.Outdoor) && !math.IsNaN(s.Power)
}

// Series is a strictly time-ordered sequence of samples for one building.
// It is never mutated after construction.
type Series struct {
	building string
	samples  []Sample
}

// New sorts a copy of samples by time and rejects duplicate timestamps.
func New(building string, samples []Sample) (*Series, error) {
	s := make([]Sample, len(samples))
	copy(s, samples)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })

	for i := 1; i < len(s); i++ {
		if s[i].Time.Equal(s[i-1].Time) {
			return nil, errors.Wrapf(
				ErrDuplicateTimestamp, "building %q at %s", building, s[i].Time.Format(time.RFC3339),
			)
		}
	}

	return &Series{building: building, samples: s}, nil
}

func (s *Series) Building() string { return s.building }

func (s *Series) Len() int { return len(s.samples) }

func (s *Series) At(i int) Sample { return s.samples[i] }

// Samples returns a copy of the underlying samples.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Complete returns a series holding only the rows with every required field present.
func (s *Series) Complete() *Series {
	out := make([]Sample, 0, len(s.samples))
	for _, v := range s.samples {
		if v.Complete() {
			out = append(out, v)
		}
	}
	return &Series{building: s.building, samples: out}
}

// Dropped returns how many rows Complete would discard.
func (s *Series) Dropped() int {
	n := 0
	for _, v := range s.samples {
		if !v.Complete() {
			n++
		}
	}
	return n
}

func (s *Series) String() string {
	if len(s.samples) == 0 {
		return fmt.Sprintf("%s: empty", s.building)
	}
	return fmt.Sprintf(
		"%s: %d samples %s .. %s", s.building, len(s.samples),
		s.samples[0].Time.Format(time.RFC3339), s.samples[len(s.samples)-1].Time.Format(time.RFC3339),
	)
}
