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

// Package metrics scores predictions against observed values.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Score holds the goodness of fit of a set of predictions.
type Score struct {
	RMSE float64 `json:"rmse" yaml:"rmse"`
	R2   float64 `json:"r2" yaml:"r2"`
	N    int     `json:"n" yaml:"n"`
}

// Evaluate scores predictions against truth. Pairs where either side is NaN are skipped.
// With no usable pairs both RMSE and R2 are NaN.
func Evaluate(truth, pred []float64) Score {
	n := min(len(truth), len(pred))
	t := make([]float64, 0, n)
	p := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(truth[i]) || math.IsNaN(pred[i]) {
			continue
		}
		t = append(t, truth[i])
		p = append(p, pred[i])
	}

	if len(t) == 0 {
		return Score{RMSE: math.NaN(), R2: math.NaN()}
	}
	return Score{RMSE: RMSE(t, p), R2: stat.RSquaredFrom(p, t, nil), N: len(t)}
}

// RMSE is the root mean squared difference of two equally long slices.
func RMSE(truth, pred []float64) float64 {
	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(truth)))
}
