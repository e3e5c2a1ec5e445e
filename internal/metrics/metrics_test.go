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

package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_PerfectFit(t *testing.T) {
	s := Evaluate([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	assert.InDelta(t, 0, s.RMSE, 1e-12)
	assert.InDelta(t, 1, s.R2, 1e-12)
	assert.Equal(t, 4, s.N)
}

func TestEvaluate_KnownValues(t *testing.T) {
	truth := []float64{1, 2, 3}
	pred := []float64{2, 2, 2}
	s := Evaluate(truth, pred)
	// residuals 1,0,1 -> mse 2/3; SStot = 2 -> R2 = 1 - 2/2 = 0
	assert.InDelta(t, math.Sqrt(2.0/3.0), s.RMSE, 1e-12)
	assert.InDelta(t, 0, s.R2, 1e-12)
}

func TestEvaluate_SkipsNaN(t *testing.T) {
	s := Evaluate([]float64{1, math.NaN(), 3}, []float64{1, 5, math.NaN()})
	assert.Equal(t, 1, s.N)
	assert.InDelta(t, 0, s.RMSE, 1e-12)
}

func TestEvaluate_Empty(t *testing.T) {
	s := Evaluate(nil, nil)
	assert.True(t, math.IsNaN(s.RMSE))
	assert.True(t, math.IsNaN(s.R2))
	assert.Equal(t, 0, s.N)
}
