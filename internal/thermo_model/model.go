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
)

// MinPowerCoeff is the smallest |c| for which power inversion is considered defined.
const MinPowerCoeff = 1e-9

// Params are the coefficients of the first-order recurrence
//
//	indoor(t+1) = A·indoor(t) + B·outdoor(t) + C·power(t) + D
type Params struct {
	A float64 `json:"a" db:"a"`
	B float64 `json:"b" db:"b"`
	C float64 `json:"c" db:"c"`
	D float64 `json:"d" db:"d"`
}

// Step returns the next indoor temperature.
func (p Params) Step(indoor, outdoor, power float64) float64 {
	return p.A*indoor + p.B*outdoor + p.C*power + p.D
}

// FreeResponse is the next indoor temperature with the heat pump off.
func (p Params) FreeResponse(indoor, outdoor float64) float64 {
	return p.Step(indoor, outdoor, 0)
}

// Invertible reports whether C is large enough to solve for power.
func (p Params) Invertible() bool {
	return math.Abs(p.C) >= MinPowerCoeff && !math.IsNaN(p.C)
}

// InvertPower solves the recurrence for the power that drives indoor to target in one step.
// The result is not clamped.
func (p Params) InvertPower(target, indoor, outdoor float64) (float64, error) {
	if !p.Invertible() {
		return 0, errors.Wrapf(ErrDegenerateModel, "power coefficient c=%g", p.C)
	}
	return (target - p.A*indoor - p.B*outdoor - p.D) / p.C, nil
}

func (p Params) String() string {
	return fmt.Sprintf("a=%.6f b=%.6f c=%.6f d=%.6f", p.A, p.B, p.C, p.D)
}

// Fit describes the quality of an identified model on its own calibration data.
type Fit struct {
	RMSE       float64 `json:"rmse"`
	R2         float64 `json:"r2"`
	Equations  int     `json:"equations"`
	Degenerate bool    `json:"degenerate"`
	Reason     string  `json:"reason,omitempty"`
}

// Model is an identified building model. It is immutable; refitting yields a new one.
type Model struct {
	Building string `json:"building"`
	Params   Params `json:"params"`
	Fit      Fit    `json:"fit"`
}

// Usable returns ErrDegenerateModel when the model cannot be inverted for control.
func (m *Model) Usable() error {
	if m.Fit.Degenerate {
		return errors.Wrapf(ErrDegenerateModel, "building %q: %s", m.Building, m.Fit.Reason)
	}
	if !m.Params.Invertible() {
		return errors.Wrapf(ErrDegenerateModel, "building %q: power coefficient c=%g", m.Building, m.Params.C)
	}
	return nil
}
