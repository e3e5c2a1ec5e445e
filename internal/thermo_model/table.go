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
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Table maps building identifiers to fitted models. Each building is written once by the
// estimation stage and read any number of times afterwards.
type Table struct {
	mu     sync.RWMutex
	models map[string]*Model
}

func NewTable() *Table {
	return &Table{models: make(map[string]*Model)}
}

// Put stores a model; a second model for the same building is rejected.
func (t *Table) Put(m *Model) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.models[m.Building]; ok {
		return errors.Errorf("building %q already has fitted parameters", m.Building)
	}
	t.models[m.Building] = m
	return nil
}

func (t *Table) Get(building string) (*Model, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.models[building]
	if !ok {
		return nil, errors.Wrapf(ErrMissingParameters, "building %q", building)
	}
	return m, nil
}

func (t *Table) Buildings() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.models))
	for b := range t.models {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.models)
}
