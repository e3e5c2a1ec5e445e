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

package control

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/antst/hpthermo/internal/series"
	"github.com/antst/hpthermo/internal/thermo_model"
)

// Alignment selects which timestamp the setpoint of a transition is looked up at.
type Alignment string

const (
	// AlignTarget looks the setpoint up at the sample being reached.
	AlignTarget Alignment = "target"
	// AlignPrevious looks it up at the sample the transition starts from.
	AlignPrevious Alignment = "previous"
)

func (a Alignment) Valid() bool {
	return a == AlignTarget || a == AlignPrevious
}

type Options struct {
	// MaxPower caps the commanded power in kW; nil leaves it unbounded.
	MaxPower  *float64
	Alignment Alignment
}

// Point is one simulated hour. Demand is the unclamped power solution.
type Point struct {
	Time     time.Time
	Temp     float64
	Power    float64
	Demand   float64
	Setpoint float64
	Price    float64
	Clamped  bool
}

// Totals aggregate a run. Samples are hourly, so one kW held for a step is one kWh.
type Totals struct {
	Energy       float64 `json:"energy_kwh"`
	Cost         float64 `json:"cost"`
	ClampedSteps int     `json:"clamped_steps"`
}

type Trace struct {
	Building string
	Policy   string
	Start    time.Time
	Initial  float64
	Points   []Point
	Totals   Totals
}

type simState int

const (
	stateInit simState = iota
	stateStepping
	stateDone
)

// Simulation drives indoor temperature towards a setpoint policy by inverting the
// model at every step. The only carried value is the simulated temperature.
type Simulation struct {
	params thermo_model.Params
	series *series.Series
	policy SetpointPolicy
	tariff Tariff
	opts   Options

	state simState
	i     int
	temp  float64
	err   error
	trace *Trace
}

func NewSimulation(
	m *thermo_model.Model, s *series.Series, policy SetpointPolicy, tariff Tariff, opts Options,
) (*Simulation, error) {
	if err := m.Usable(); err != nil {
		return nil, err
	}
	if s.Len() < 2 {
		return nil, errors.Wrapf(
			thermo_model.ErrInsufficientData, "building %q: %d samples, need at least 2 to simulate",
			s.Building(), s.Len(),
		)
	}
	if opts.Alignment == "" {
		opts.Alignment = AlignTarget
	}
	if !opts.Alignment.Valid() {
		return nil, errors.Errorf("unknown setpoint alignment %q", opts.Alignment)
	}

	return &Simulation{
		params: m.Params,
		series: s,
		policy: policy,
		tariff: tariff,
		opts:   opts,
		trace: &Trace{
			Building: s.Building(),
			Policy:   policy.Name(),
			Points:   make([]Point, 0, s.Len()-1),
		},
	}, nil
}

// Step advances the simulation by one transition. It returns false once the run is
// finished or has failed.
func (sim *Simulation) Step() (bool, error) {
	if sim.err != nil {
		return false, sim.err
	}

	switch sim.state {
	case stateInit:
		first := sim.series.At(0)
		if math.IsNaN(first.Indoor) {
			return sim.fail(sim.missing(0, "initial indoor temperature"))
		}
		sim.temp = first.Indoor
		sim.trace.Start = first.Time
		sim.trace.Initial = first.Indoor
		sim.i = 1
		sim.state = stateStepping
		return true, nil

	case stateStepping:
		if err := sim.advance(); err != nil {
			return sim.fail(err)
		}
		sim.i++
		if sim.i >= sim.series.Len() {
			sim.state = stateDone
			return false, nil
		}
		return true, nil
	}

	return false, nil
}

func (sim *Simulation) advance() error {
	prev, cur := sim.series.At(sim.i-1), sim.series.At(sim.i)
	if math.IsNaN(prev.Outdoor) {
		return sim.missing(sim.i-1, "outdoor temperature")
	}

	// AlignPrevious reproduces the historical analysis outputs, which read the
	// setpoint one step early.
	lookup := cur.Time
	if sim.opts.Alignment == AlignPrevious {
		lookup = prev.Time
	}
	target, err := sim.policy.Setpoint(lookup)
	if err != nil {
		return sim.coverage(err, "setpoint", lookup)
	}
	price, err := sim.tariff.Price(cur.Time)
	if err != nil {
		return sim.coverage(err, "tariff", cur.Time)
	}

	demand, err := sim.params.InvertPower(target, sim.temp, prev.Outdoor)
	if err != nil {
		return errors.WithMessagef(err, "building %q at index %d", sim.series.Building(), sim.i)
	}

	power, clamped := demand, false
	if power < 0 {
		power, clamped = 0, true
	}
	if sim.opts.MaxPower != nil && power > *sim.opts.MaxPower {
		power, clamped = *sim.opts.MaxPower, true
	}

	sim.temp = sim.params.Step(sim.temp, prev.Outdoor, power)
	sim.trace.Points = append(sim.trace.Points, Point{
		Time:     cur.Time,
		Temp:     sim.temp,
		Power:    power,
		Demand:   demand,
		Setpoint: target,
		Price:    price,
		Clamped:  clamped,
	})

	t := &sim.trace.Totals
	t.Energy += power
	t.Cost += power * price
	if clamped {
		t.ClampedSteps++
	}
	return nil
}

func (sim *Simulation) fail(err error) (bool, error) {
	sim.err = err
	sim.state = stateDone
	return false, err
}

func (sim *Simulation) missing(i int, what string) error {
	return errors.Wrapf(
		thermo_model.ErrInsufficientData, "building %q: missing %s at index %d (%s)",
		sim.series.Building(), what, i, sim.series.At(i).Time.Format(time.RFC3339),
	)
}

func (sim *Simulation) coverage(err error, what string, ts time.Time) error {
	if !errors.Is(err, thermo_model.ErrPolicyCoverageGap) {
		err = errors.Wrap(thermo_model.ErrPolicyCoverageGap, err.Error())
	}
	return errors.WithMessagef(
		err, "building %q: %s undefined at index %d (%s)",
		sim.series.Building(), what, sim.i, ts.Format(time.RFC3339),
	)
}

func (sim *Simulation) Done() bool { return sim.state == stateDone }

// Trace returns the points produced so far.
func (sim *Simulation) Trace() *Trace { return sim.trace }

// Run steps the simulation to completion.
func (sim *Simulation) Run() (*Trace, error) {
	for {
		more, err := sim.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			return sim.trace, nil
		}
	}
}

// Simulate runs one policy over the series.
func Simulate(
	m *thermo_model.Model, s *series.Series, policy SetpointPolicy, tariff Tariff, opts Options,
) (*Trace, error) {
	sim, err := NewSimulation(m, s, policy, tariff, opts)
	if err != nil {
		return nil, err
	}
	return sim.Run()
}
