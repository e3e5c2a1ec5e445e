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
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/antst/hpthermo/internal/logger"
	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/series"
)

const (
	nParams = 4
	// singular values below this fraction of the largest are treated as zero
	rankTolerance = 1e-10
)

// Estimate identifies (a, b, c, d) by ordinary least squares over every consecutive pair
// of complete samples. Rows with a missing field are dropped first. The fit quality is
// measured in-sample. Rank-deficient or non-invertible fits are returned flagged as
// degenerate rather than rejected.
func Estimate(s *series.Series) (*Model, error) {
	c := s.Complete()
	n := c.Len()
	if n < 2 {
		return nil, errors.Wrapf(
			ErrInsufficientData, "building %q: %d valid samples, need at least 2", s.Building(), n,
		)
	}

	rows := n - 1
	X := mat.NewDense(rows, nParams, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		cur := c.At(i)
		X.SetRow(i, []float64{cur.Indoor, cur.Outdoor, cur.Power, 1})
		y.SetVec(i, c.At(i+1).Indoor)
	}

	beta, reason, err := solveLeastSquares(X, y)
	if err != nil {
		return nil, errors.WithMessagef(err, "building %q", s.Building())
	}

	p := Params{A: beta.AtVec(0), B: beta.AtVec(1), C: beta.AtVec(2), D: beta.AtVec(3)}
	if reason == "" && !p.Invertible() {
		reason = fmt.Sprintf("power coefficient c=%g below %g", p.C, MinPowerCoeff)
	}

	var yhat mat.VecDense
	yhat.MulVec(X, beta)
	score := metrics.Evaluate(y.RawVector().Data, yhat.RawVector().Data)

	m := &Model{
		Building: s.Building(),
		Params:   p,
		Fit: Fit{
			RMSE:       score.RMSE,
			R2:         score.R2,
			Equations:  rows,
			Degenerate: reason != "",
			Reason:     reason,
		},
	}

	log := logger.B(s.Building())
	if m.Fit.Degenerate {
		log.Warnf("Degenerate fit over %d equations: %s (%v)", rows, reason, p)
	} else {
		log.Debugf("Fitted %v over %d equations, RMSE=%.4f R2=%.4f", p, rows, m.Fit.RMSE, m.Fit.R2)
	}
	return m, nil
}

// solveLeastSquares returns the OLS solution of X·beta ≈ y through a thin SVD. When the
// design has lower numerical rank than it has columns, the minimum-norm solution is
// returned together with a non-empty reason.
func solveLeastSquares(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, string, error) {
	rows, cols := X.Dims()

	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return nil, "", errors.New("least squares: SVD factorization failed")
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		return nil, "", errors.New("least squares: zero design matrix")
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)
	if !finite(&beta) {
		return nil, "", errors.New("least squares: non-finite solution")
	}

	switch {
	case rows < cols:
		return &beta, fmt.Sprintf("underdetermined: %d equations for %d parameters", rows, cols), nil
	case rank < cols:
		return &beta, fmt.Sprintf(
			"collinear explanatory variables: rank %d of %d (condition number %.3g)", rank, cols, svd.Cond(),
		), nil
	}
	return &beta, "", nil
}

func finite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
