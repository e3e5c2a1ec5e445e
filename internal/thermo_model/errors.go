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

import "github.com/pkg/errors"

var (
	// ErrInsufficientData: too few valid samples to fit, or exogenous inputs missing for a horizon.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateModel: the power coefficient vanishes or the fit is rank deficient.
	ErrDegenerateModel = errors.New("degenerate model")
	// ErrMissingParameters: no fitted model for the building.
	ErrMissingParameters = errors.New("missing parameters")
	// ErrPolicyCoverageGap: a setpoint or tariff is undefined for a timestamp.
	ErrPolicyCoverageGap = errors.New("policy coverage gap")
)
