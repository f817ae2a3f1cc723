/*
 * vsitegeom.go, part of smirnoff.
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
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

//Virtual site types.
const (
	BondCharge         = "BondCharge"
	MonovalentLonePair = "MonovalentLonePair"
	DivalentLonePair   = "DivalentLonePair"
	TrivalentLonePair  = "TrivalentLonePair"
)

//siteAtoms is the number of atoms that orient each type of site.
var siteAtoms = map[string]int{
	BondCharge:         2,
	MonovalentLonePair: 3,
	DivalentLonePair:   3,
	TrivalentLonePair:  4,
}

//geometry is the placement of a site, in Å and radians.
type geometry struct {
	distance   float64
	inPlane    float64
	outOfPlane float64
}

//place returns the position of a site of the given type, from the positions of
//its orientation atoms, parent first.
func place(typ string, g geometry, r []r3.Vec) (r3.Vec, error) {
	if n, ok := siteAtoms[typ]; !ok || len(r) != n {
		return r3.Vec{}, errors.Newf("cannot place a %s site from %d atoms", typ, len(r))
	}
	d := g.distance
	switch typ {
	case BondCharge:
		return r3.Add(r[0], r3.Scale(d, unit(r3.Sub(r[0], r[1])))), nil
	case MonovalentLonePair:
		x := unit(r3.Sub(r[1], r[0]))
		v := r3.Sub(r[2], r[0])
		y := unit(r3.Sub(v, r3.Scale(r3.Dot(v, x), x)))
		z := r3.Cross(x, y)
		cp, sp := math.Cos(g.outOfPlane), math.Sin(g.outOfPlane)
		ct, st := math.Cos(g.inPlane), math.Sin(g.inPlane)
		dir := r3.Add(r3.Add(r3.Scale(ct*cp, x), r3.Scale(st*cp, y)), r3.Scale(sp, z))
		return r3.Add(r[0], r3.Scale(d, dir)), nil
	case DivalentLonePair:
		mid := r3.Scale(0.5, r3.Add(r[1], r[2]))
		x := unit(r3.Sub(r[0], mid))
		z := unit(r3.Cross(x, r3.Sub(r[1], r[0])))
		dir := r3.Add(r3.Scale(math.Cos(g.outOfPlane), x), r3.Scale(math.Sin(g.outOfPlane), z))
		return r3.Add(r[0], r3.Scale(d, dir)), nil
	default:
		c := r3.Scale(1.0/3.0, r3.Add(r3.Add(r[1], r[2]), r[3]))
		return r3.Add(r[0], r3.Scale(d, unit(r3.Sub(r[0], c)))), nil
	}
}

//unit returns v normalized, or the zero vector if v has no length.
func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}
