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

// Package baseline holds the learned comparison forecaster: a direct multivariate
// regressor from the current sample to the indoor temperature H steps ahead.
package baseline

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Regressor is any model mapping a feature vector to a scalar.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
}

type BoostConfig struct {
	Trees        int     `yaml:"trees"`
	MaxDepth     int     `yaml:"max_depth"`
	LearningRate float64 `yaml:"learning_rate"`
	MinLeaf      int     `yaml:"min_leaf"`
	Candidates   int     `yaml:"candidates"`
}

func DefaultBoostConfig() BoostConfig {
	return BoostConfig{Trees: 100, MaxDepth: 3, LearningRate: 0.3, MinLeaf: 1, Candidates: 16}
}

func (c *BoostConfig) FillDefaults() {
	d := DefaultBoostConfig()
	if c.Trees <= 0 {
		c.Trees = d.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = d.MinLeaf
	}
	if c.Candidates <= 0 {
		c.Candidates = d.Candidates
	}
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// GradientBoosting is a squared-loss boosted ensemble of depth-limited regression trees.
// Split thresholds are drawn from empirical quantiles of each feature, so fitting is
// deterministic.
type GradientBoosting struct {
	cfg   BoostConfig
	base  float64
	trees []*treeNode
}

func NewGradientBoosting(cfg BoostConfig) *GradientBoosting {
	cfg.FillDefaults()
	return &GradientBoosting{cfg: cfg}
}

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("gradient boosting: empty training set")
	}
	if len(X) != len(y) {
		return errors.Errorf("gradient boosting: %d rows but %d targets", len(X), len(y))
	}

	g.base = stat.Mean(y, nil)
	g.trees = g.trees[:0]

	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - g.base
	}
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}

	for t := 0; t < g.cfg.Trees; t++ {
		tree := g.grow(X, resid, idx, 0)
		g.trees = append(g.trees, tree)
		for i := range resid {
			resid[i] -= g.cfg.LearningRate * tree.predict(X[i])
		}
	}
	return nil
}

func (g *GradientBoosting) Predict(x []float64) float64 {
	v := g.base
	for _, t := range g.trees {
		v += g.cfg.LearningRate * t.predict(x)
	}
	return v
}

func (g *GradientBoosting) grow(X [][]float64, r []float64, idx []int, depth int) *treeNode {
	var sum float64
	for _, i := range idx {
		sum += r[i]
	}
	leaf := &treeNode{leaf: true, value: sum / float64(len(idx))}
	if depth >= g.cfg.MaxDepth || len(idx) < 2*g.cfg.MinLeaf {
		return leaf
	}

	bestFeature, bestThreshold := -1, 0.0
	bestSSE := sse(r, idx)
	for f := range X[idx[0]] {
		for _, th := range g.thresholds(X, idx, f) {
			var nl, nr int
			var sl, sr, ql, qr float64
			for _, i := range idx {
				v := r[i]
				if X[i][f] <= th {
					nl++
					sl += v
					ql += v * v
				} else {
					nr++
					sr += v
					qr += v * v
				}
			}
			if nl < g.cfg.MinLeaf || nr < g.cfg.MinLeaf {
				continue
			}
			s := ql - sl*sl/float64(nl) + qr - sr*sr/float64(nr)
			if s < bestSSE-1e-12 {
				bestSSE, bestFeature, bestThreshold = s, f, th
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      g.grow(X, r, left, depth+1),
		right:     g.grow(X, r, right, depth+1),
	}
}

// thresholds returns distinct empirical quantiles of feature f over idx.
func (g *GradientBoosting) thresholds(X [][]float64, idx []int, f int) []float64 {
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = X[i][f]
	}
	sort.Float64s(vals)

	out := make([]float64, 0, g.cfg.Candidates)
	last := math.Inf(-1)
	for k := 1; k <= g.cfg.Candidates; k++ {
		q := stat.Quantile(float64(k)/float64(g.cfg.Candidates+1), stat.Empirical, vals, nil)
		if q > last && q < vals[len(vals)-1] {
			out = append(out, q)
			last = q
		}
	}
	return out
}

func sse(r []float64, idx []int) float64 {
	var s, q float64
	for _, i := range idx {
		s += r[i]
		q += r[i] * r[i]
	}
	return q - s*s/float64(len(idx))
}
