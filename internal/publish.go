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

package internal

import (
	"math"

	"github.com/antst/hpthermo/internal/control"
	"github.com/antst/hpthermo/internal/logger"
	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/safe_mqtt"
	"github.com/antst/hpthermo/internal/thermo_model"
)

// JSON has no NaN; undefined values go out as null.
func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type scoreReport struct {
	RMSE *float64 `json:"rmse"`
	R2   *float64 `json:"r2"`
	N    int      `json:"n"`
}

func newScoreReport(s metrics.Score) scoreReport {
	return scoreReport{RMSE: jsonFloat(s.RMSE), R2: jsonFloat(s.R2), N: s.N}
}

type paramsReport struct {
	RunID      string              `json:"run_id"`
	Params     thermo_model.Params `json:"params"`
	Fit        scoreReport         `json:"fit"`
	Degenerate bool                `json:"degenerate"`
	Reason     string              `json:"reason,omitempty"`
}

type forecastReport struct {
	RunID          string      `json:"run_id"`
	Horizon        int         `json:"horizon"`
	Physics        scoreReport `json:"physics"`
	PhysicsHeldOut scoreReport `json:"physics_held_out"`
	Learned        scoreReport `json:"learned"`
}

type simulationReport struct {
	RunID   string         `json:"run_id"`
	Initial float64        `json:"initial_temp"`
	Totals  control.Totals `json:"totals"`
}

// publisher sends retained per-building summaries; a nil client disables it.
type publisher struct {
	client safe_mqtt.MqttClient
	topic  string
}

func (p *publisher) publish(building, suffix string, v any) {
	if p == nil || p.client == nil {
		return
	}
	topic := p.topic + "/" + building + "/" + suffix
	if err := safe_mqtt.PublishJSON(p.client, topic, v); err != nil {
		logger.B(building).Warnf("Publishing %s failed: %v", topic, err)
	}
}
