/*
 * gasteiger.go, part of smirnoff.
 *
 * Copyright 2025 The smirnoff authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package charges

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
)

const (
	sp3 = iota
	sp2
	sp
)

//electronegativity parameters a, b, c (chi = a + bq + cq^2) from
//Gasteiger and Marsili, Tetrahedron 36, 3219 (1980).
var peoe = map[string][3][3]float64{
	"H":  {{7.17, 6.24, -0.56}, {7.17, 6.24, -0.56}, {7.17, 6.24, -0.56}},
	"C":  {{7.98, 9.18, 1.88}, {8.79, 9.32, 1.51}, {10.39, 9.45, 0.73}},
	"N":  {{11.54, 10.82, 1.36}, {12.87, 11.15, 0.85}, {15.68, 11.70, -0.27}},
	"O":  {{14.18, 12.92, 1.39}, {17.07, 13.79, 0.47}, {17.07, 13.79, 0.47}},
	"F":  {{14.66, 13.85, 2.31}, {14.66, 13.85, 2.31}, {14.66, 13.85, 2.31}},
	"Cl": {{11.00, 9.69, 1.35}, {11.00, 9.69, 1.35}, {11.00, 9.69, 1.35}},
	"Br": {{10.08, 8.47, 1.16}, {10.08, 8.47, 1.16}, {10.08, 8.47, 1.16}},
	"I":  {{9.90, 7.96, 0.96}, {9.90, 7.96, 0.96}, {9.90, 7.96, 0.96}},
	"S":  {{10.14, 9.13, 1.38}, {10.88, 9.49, 1.33}, {10.88, 9.49, 1.33}},
	"P":  {{8.90, 8.24, 0.96}, {8.90, 8.24, 0.96}, {8.90, 8.24, 0.96}},
}

//the cation electronegativity of hydrogen is a special case in PEOE.
const hydrogenCation = 20.02

const gasteigerIterations = 6

func hybridization(m *topology.Molecule, i int) int {
	h := sp3
	for _, j := range m.Neighbors(i) {
		b := m.BondBetween(i, j)
		switch {
		case b.Order >= 3:
			return sp
		case b.Order == 2 || b.Aromatic:
			h = sp2
		}
	}
	return h
}

//Gasteiger computes Gasteiger-Marsili (PEOE) charges. The charges start from
//the formal charges, so their sum is the total formal charge.
func Gasteiger(ctx context.Context, m *topology.Molecule) ([]float64, error) {
	n := m.Len()
	params := make([][3]float64, n)
	for i, a := range m.Atoms() {
		p, ok := peoe[a.Symbol]
		if !ok {
			return nil, errors.Newf("charges: no Gasteiger parameters for element %s", a.Symbol)
		}
		params[i] = p[hybridization(m, i)]
	}
	q, _ := FormalCharges(ctx, m)
	chi := make([]float64, n)
	damp := 1.0
	for it := 0; it < gasteigerIterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		damp *= 0.5
		for i, p := range params {
			chi[i] = p[0] + p[1]*q[i] + p[2]*q[i]*q[i]
		}
		dq := make([]float64, n)
		for _, b := range m.Bonds() {
			lo, hi := b.At1, b.At2
			if chi[lo] > chi[hi] {
				lo, hi = hi, lo
			}
			denom := cation(m.Atom(lo).Symbol, params[lo])
			t := damp * (chi[hi] - chi[lo]) / denom
			dq[lo] += t
			dq[hi] -= t
		}
		for i := range q {
			q[i] += dq[i]
		}
	}
	return q, nil
}

func cation(symbol string, p [3]float64) float64 {
	if symbol == "H" {
		return hydrogenCation
	}
	return p[0] + p[1] + p[2]
}
