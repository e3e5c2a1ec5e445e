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
	"time"

	"github.com/antst/hpthermo/internal/control"
)

// SetpointConfig describes the policies every building is simulated under.
type SetpointConfig struct {
	ConstantSetpoint *float64 `yaml:"constant_setpoint"`
	DaySetpoint      *float64 `yaml:"day_setpoint"`
	NightSetpoint    *float64 `yaml:"night_setpoint"`
	// NightHours defaults to the tariff night hours.
	NightHours []int             `yaml:"night_hours"`
	Alignment  control.Alignment `yaml:"alignment"`
}

func NewSetpointConfig() *SetpointConfig {
	return &SetpointConfig{
		ConstantSetpoint: GetPTR(20.0),
		DaySetpoint:      GetPTR(19.0),
		NightSetpoint:    GetPTR(21.0),
		Alignment:        control.AlignTarget,
	}
}

func (c *SetpointConfig) FillDefaults(tariffNightHours []int) {
	if len(c.NightHours) == 0 {
		c.NightHours = append([]int(nil), tariffNightHours...)
	}
	if c.Alignment == "" {
		c.Alignment = control.AlignTarget
	}
}

func (c *SetpointConfig) Validate() error {
	if !c.Alignment.Valid() {
		return fmt.Errorf("unknown alignment %q", c.Alignment)
	}
	if (c.DaySetpoint == nil) != (c.NightSetpoint == nil) {
		return fmt.Errorf("day_setpoint and night_setpoint must be set together")
	}
	if _, err := control.NewHourSet(c.NightHours); err != nil {
		return fmt.Errorf("night_hours: %w", err)
	}
	return nil
}

// Policies builds the configured setpoint policies; a policy with unset values is skipped.
func (c *SetpointConfig) Policies(loc *time.Location) ([]control.SetpointPolicy, error) {
	var out []control.SetpointPolicy
	if c.ConstantSetpoint != nil {
		out = append(out, control.Constant{Value: *c.ConstantSetpoint})
	}
	if c.DaySetpoint != nil && c.NightSetpoint != nil {
		hs, err := control.NewHourSet(c.NightHours)
		if err != nil {
			return nil, err
		}
		out = append(out, control.DayNight{
			Day:        *c.DaySetpoint,
			Night:      *c.NightSetpoint,
			NightHours: hs,
			Location:   loc,
		})
	}
	return out, nil
}
