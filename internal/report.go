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
	"fmt"
	"sort"
	"strings"

	"github.com/antst/hpthermo/internal/config"
	"github.com/antst/hpthermo/internal/control"
	"github.com/antst/hpthermo/internal/metrics"
	"github.com/antst/hpthermo/internal/thermo_model"
)

// BuildingError records a failure confined to one building and stage.
type BuildingError struct {
	Building string
	Stage    config.Stage
	Err      error
}

func (e *BuildingError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Building, e.Stage, e.Err)
}

func (e *BuildingError) Unwrap() error { return e.Err }

// BuildingResult is what one building produced in a run. Fields of stages that did not
// run or failed stay zero.
type BuildingResult struct {
	Building string
	Model    *thermo_model.Model
	// Forecasts counts the physics forecasts compared.
	Forecasts      int
	Physics        metrics.Score
	PhysicsHeldOut metrics.Score
	Learned        metrics.Score
	Totals         map[string]control.Totals
	Errors         []*BuildingError
}

func (r *BuildingResult) fail(stage config.Stage, err error) {
	r.Errors = append(r.Errors, &BuildingError{Building: r.Building, Stage: stage, Err: err})
}

func (r *BuildingResult) OK() bool { return len(r.Errors) == 0 }

type Report struct {
	RunID   string
	Stage   config.Stage
	Results []*BuildingResult
}

func (r *Report) Result(building string) *BuildingResult {
	for _, res := range r.Results {
		if res.Building == building {
			return res
		}
	}
	return nil
}

func (r *Report) Failures() []*BuildingError {
	var out []*BuildingError
	for _, res := range r.Results {
		out = append(out, res.Errors...)
	}
	return out
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s (stage %s): %d buildings, %d failures", r.RunID, r.Stage, len(r.Results), len(r.Failures()))
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "\n  %s:", res.Building)
		if res.Model != nil {
			fmt.Fprintf(&sb, " %v", res.Model.Params)
			if res.Model.Fit.Degenerate {
				sb.WriteString(" [degenerate]")
			}
		}
		if res.Forecasts > 0 {
			fmt.Fprintf(&sb, " forecast RMSE=%.3f learned RMSE=%.3f", res.PhysicsHeldOut.RMSE, res.Learned.RMSE)
		}
		policies := make([]string, 0, len(res.Totals))
		for p := range res.Totals {
			policies = append(policies, p)
		}
		sort.Strings(policies)
		for _, p := range policies {
			t := res.Totals[p]
			fmt.Fprintf(&sb, " %s: %.1f kWh cost %.2f", p, t.Energy, t.Cost)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(&sb, "\n    %s failed: %v", e.Stage, e.Err)
		}
	}
	return sb.String()
}
