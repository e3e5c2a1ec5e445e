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

package thermo_model

import (
	"iter"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/series"
)

// Forecast is an H-step-ahead open-loop prediction started at index Start.
// Time and Truth refer to the target sample Start+H; Truth is NaN when unobserved.
type Forecast struct {
	Start     int
	Time      time.Time
	Truth     float64
	Predicted float64
}

// Rollout feeds each predicted indoor temperature back into the recurrence,
// once per exogenous sample.
func (p Params) Rollout(indoor float64, exo []series.Sample) float64 {
	t := indoor
	for _, x := range exo {
		t = p.Step(t, x.Outdoor, x.Power)
	}
	return t
}

type Forecaster struct {
	params  Params
	horizon int
}

func NewForecaster(p Params, horizon int) (*Forecaster, error) {
	if horizon < 1 {
		return nil, errors.Errorf("forecast horizon must be at least 1, got %d", horizon)
	}
	return &Forecaster{params: p, horizon: horizon}, nil
}

func (f *Forecaster) Horizon() int { return f.horizon }

// Forecasts lazily yields one forecast per start index that has an observed indoor
// temperature and H observed exogenous samples. Ranging over the result again restarts
// the rollout from the first index.
func (f *Forecaster) Forecasts(s *series.Series) iter.Seq[Forecast] {
	return func(yield func(Forecast) bool) {
		for i := 0; i+f.horizon < s.Len(); i++ {
			pred, ok := f.at(s, i)
			if !ok {
				continue
			}
			target := s.At(i + f.horizon)
			if !yield(Forecast{Start: i, Time: target.Time, Truth: target.Indoor, Predicted: pred}) {
				return
			}
		}
	}
}

func (f *Forecaster) at(s *series.Series, i int) (float64, bool) {
	t := s.At(i).Indoor
	if math.IsNaN(t) {
		return 0, false
	}
	for h := 0; h < f.horizon; h++ {
		x := s.At(i + h)
		if !x.Exogenous() {
			return 0, false
		}
		t = f.params.Step(t, x.Outdoor, x.Power)
	}
	return t, true
}

// Collect materializes the forecasts; an empty result is ErrInsufficientData.
func (f *Forecaster) Collect(s *series.Series) ([]Forecast, error) {
	out := make([]Forecast, 0, max(s.Len()-f.horizon, 0))
	for fc := range f.Forecasts(s) {
		out = append(out, fc)
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(
			ErrInsufficientData, "building %q: no start index with %d observed exogenous steps (%d samples)",
			s.Building(), f.horizon, s.Len(),
		)
	}
	return out, nil
}

// Evaluate scores forecasts against their observed targets.
func Evaluate(fcs []Forecast) metrics.Score {
	truth := make([]float64, len(fcs))
	pred := make([]float64, len(fcs))
	for i, fc := range fcs {
		truth[i], pred[i] = fc.Truth, fc.Predicted
	}
	return metrics.Evaluate(truth, pred)
}
