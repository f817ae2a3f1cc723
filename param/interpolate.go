/*
 * interpolate.go, part of smirnoff.
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

package param

import (
	"sort"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/units"
)

//Linear is the only supported interpolation scheme.
const Linear = "linear"

//checkInterpolation returns an *InterpolationMethodError if any definition asks
//for a scheme other than linear.
func checkInterpolation(category string, defs []*ff.Handler) error {
	for _, d := range defs {
		if m := d.FractionalBondOrderInterpolation(); m != Linear {
			return &InterpolationMethodError{Category: category, Method: m}
		}
	}
	return nil
}

//Interpolate evaluates, at the fractional bond order bo, the straight line through
//the anchors (bos[i], qs[i]) that bracket bo. Outside the anchor range the
//line through the two closest anchors is extrapolated. bos must be sorted.
//The result is in the units of the first anchor.
func Interpolate(bos []float64, qs []units.Quantity, bo float64) (units.Quantity, error) {
	if len(bos) != len(qs) {
		return units.Quantity{}, errors.Newf("param: %d bond orders for %d values", len(bos), len(qs))
	}
	if len(bos) < 2 {
		return units.Quantity{}, errors.Newf("param: interpolation needs at least 2 anchors, got %d", len(bos))
	}
	u := qs[0].Unit
	i := sort.SearchFloat64s(bos, bo)
	//the segment is [i-1, i], clamped to the first and last ones.
	i = min(max(i, 1), len(bos)-1)
	x0, x1 := bos[i-1], bos[i]
	if x0 == x1 {
		return units.Quantity{}, errors.Newf("param: repeated interpolation anchor at bond order %g", x0)
	}
	y0, err := qs[i-1].To(u)
	if err != nil {
		return units.Quantity{}, err
	}
	y1, err := qs[i].To(u)
	if err != nil {
		return units.Quantity{}, err
	}
	f := (bo - x0) / (x1 - x0)
	return units.Q(y0.Magnitude+f*(y1.Magnitude-y0.Magnitude), u), nil
}

//value returns the named value of a parameter, interpolated at the bond order if
//the parameter gives it as a function of the bond order. The boolean reports
//whether interpolation happened.
func value(p *ff.ParameterType, name string, bo func() (float64, error)) (units.Quantity, bool, error) {
	if q, ok := p.Get(name); ok {
		return q, false, nil
	}
	if !p.IsBondOrderDependent(name) {
		return units.Quantity{}, false, errors.Newf("parameter %s has no %s", p.Label(), name)
	}
	x, err := bo()
	if err != nil {
		return units.Quantity{}, false, err
	}
	bos, qs := p.BondOrderAnchors(name)
	q, err := Interpolate(bos, qs, x)
	if err != nil {
		return units.Quantity{}, false, errors.Wrapf(err, "parameter %s, %s", p.Label(), name)
	}
	return q, true, nil
}
