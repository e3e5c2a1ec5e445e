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

package config

import (
	"fmt"

	"github.com/antst/hpthermo/internal/control"
)

type SimulationConfig struct {
	// MaxPower is the heat pump capacity in kW; unset means unbounded.
	MaxPower *float64 `yaml:"max_power"`
}

func (c *SimulationConfig) Validate() error {
	if c.MaxPower != nil && *c.MaxPower <= 0 {
		return fmt.Errorf("max_power must be positive, got %v", *c.MaxPower)
	}
	return nil
}

func (c *SimulationConfig) Options(alignment control.Alignment) control.Options {
	return control.Options{MaxPower: c.MaxPower, Alignment: alignment}
}
