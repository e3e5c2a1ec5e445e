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

package baseline

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/series"
	"github.com/antst/hpthermo/internal/thermo_model"
)

// Features is the current-step feature vector fed to the direct regressor.
func Features(s series.Sample) []float64 {
	return []float64{s.Indoor, s.Outdoor, s.Power}
}

type Prediction struct {
	Time      time.Time
	Truth     float64
	Predicted float64
}

// Result is a held-out evaluation of a direct H-step regressor.
type Result struct {
	Predictions []Prediction
	Score       metrics.Score
	TrainSize   int
	TestSize    int
	SplitTime   time.Time // first target timestamp of the held-out part
}

// Direct trains reg on aligned (features(i), indoor(i+H)) pairs of the complete rows of s,
// split chronologically at trainFraction, and predicts the held-out tail.
func Direct(s *series.Series, horizon int, trainFraction float64, reg Regressor) (*Result, error) {
	if horizon < 1 {
		return nil, errors.Errorf("forecast horizon must be at least 1, got %d", horizon)
	}
	if trainFraction <= 0 || trainFraction >= 1 {
		return nil, errors.Errorf("train fraction must be in (0, 1), got %g", trainFraction)
	}

	c := s.Complete()
	n := c.Len() - horizon
	if n < 0 {
		n = 0
	}
	X := make([][]float64, n)
	y := make([]float64, n)
	ts := make([]time.Time, n)
	for i := 0; i < n; i++ {
		X[i] = Features(c.At(i))
		target := c.At(i + horizon)
		y[i], ts[i] = target.Indoor, target.Time
	}

	split := int(trainFraction * float64(n))
	if split < 2 || n-split < 1 {
		return nil, errors.Wrapf(
			thermo_model.ErrInsufficientData, "building %q: %d aligned pairs for horizon %d, split at %d",
			s.Building(), n, horizon, split,
		)
	}

	if err := reg.Fit(X[:split], y[:split]); err != nil {
		return nil, errors.WithMessagef(err, "building %q", s.Building())
	}

	res := &Result{
		Predictions: make([]Prediction, 0, n-split),
		TrainSize:   split,
		TestSize:    n - split,
		SplitTime:   ts[split],
	}
	truth := make([]float64, 0, n-split)
	pred := make([]float64, 0, n-split)
	for i := split; i < n; i++ {
		p := reg.Predict(X[i])
		res.Predictions = append(res.Predictions, Prediction{Time: ts[i], Truth: y[i], Predicted: p})
		truth = append(truth, y[i])
		pred = append(pred, p)
	}
	res.Score = metrics.Evaluate(truth, pred)
	return res, nil
}

// Row lines up the physics forecast and the learned prediction for one target time.
// Learned is NaN outside the held-out part.
type Row struct {
	Time    time.Time
	Truth   float64
	Physics float64
	Learned float64
}

type Comparison struct {
	Rows []Row
	// Physics scores the recursive forecaster over every row.
	Physics metrics.Score
	// PhysicsHeldOut scores it over the rows the learned model was tested on.
	PhysicsHeldOut metrics.Score
	Learned        metrics.Score
}

// Compare merges physics forecasts with a learned result by target time. A nil learned
// result leaves every Learned value and score NaN.
func Compare(physics []thermo_model.Forecast, learned *Result) *Comparison {
	if learned == nil {
		learned = &Result{Score: metrics.Evaluate(nil, nil)}
	}
	byTime := make(map[time.Time]float64, len(learned.Predictions))
	for _, p := range learned.Predictions {
		byTime[p.Time] = p.Predicted
	}

	cmp := &Comparison{Rows: make([]Row, 0, len(physics)), Learned: learned.Score}
	var ht, hp []float64
	for _, f := range physics {
		row := Row{Time: f.Time, Truth: f.Truth, Physics: f.Predicted, Learned: math.NaN()}
		if v, ok := byTime[f.Time]; ok {
			row.Learned = v
			ht = append(ht, f.Truth)
			hp = append(hp, f.Predicted)
		}
		cmp.Rows = append(cmp.Rows, row)
	}
	cmp.Physics = thermo_model.Evaluate(physics)
	cmp.PhysicsHeldOut = metrics.Evaluate(ht, hp)
	return cmp
}
