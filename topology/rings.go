/*
 * rings.go, part of smirnoff.
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

package topology

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

//ringInfo is computed once per molecule, the first time ring information is requested.
type ringInfo struct {
	bondRing  []int   //smallest ring containing each bond, 0 if none
	atomRing  []int   //smallest ring containing each atom, 0 if none
	atomSizes [][]int //sizes of the basis rings containing each atom
	atomCount []int   //number of basis rings containing each atom
	ringBonds []int   //number of ring bonds at each atom
	nrings    int
}

//Graph returns the molecule as a gonum undirected graph. Node IDs are atom indexes.
func (M *Molecule) Graph() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := range M.atoms {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, b := range M.bonds {
		g.SetEdge(g.NewEdge(simple.Node(int64(b.At1)), simple.Node(int64(b.At2))))
	}
	return g
}

func (M *Molecule) ringData() *ringInfo {
	if M.rings != nil {
		return M.rings
	}
	g := M.Graph()
	n := len(M.atoms)
	R := &ringInfo{
		bondRing:  make([]int, len(M.bonds)),
		atomRing:  make([]int, n),
		atomSizes: make([][]int, n),
		atomCount: make([]int, n),
		ringBonds: make([]int, n),
	}
	for bi, b := range M.bonds {
		R.bondRing[bi] = smallestCycleThrough(g, b.At1, b.At2)
		if R.bondRing[bi] == 0 {
			continue
		}
		for _, a := range []int{b.At1, b.At2} {
			R.ringBonds[a]++
			if R.atomRing[a] == 0 || R.bondRing[bi] < R.atomRing[a] {
				R.atomRing[a] = R.bondRing[bi]
			}
		}
	}
	cycles := topo.UndirectedCyclesIn(g)
	R.nrings = len(cycles)
	for _, c := range cycles {
		if len(c) > 1 && c[0].ID() == c[len(c)-1].ID() {
			c = c[:len(c)-1]
		}
		for _, node := range c {
			a := int(node.ID())
			R.atomCount[a]++
			if !slices.Contains(R.atomSizes[a], len(c)) {
				R.atomSizes[a] = append(R.atomSizes[a], len(c))
			}
		}
	}
	M.rings = R
	return R
}

//smallestCycleThrough returns the size of the smallest ring containing the bond
//between u and v, or 0 if the bond is not in a ring.
func smallestCycleThrough(g *simple.UndirectedGraph, u, v int) int {
	uid, vid := int64(u), int64(v)
	depth := -1
	bf := traverse.BreadthFirst{
		Traverse: func(e graph.Edge) bool {
			f, t := e.From().ID(), e.To().ID()
			return !((f == uid && t == vid) || (f == vid && t == uid))
		},
	}
	bf.Walk(g, simple.Node(uid), func(n graph.Node, d int) bool {
		if n.ID() == vid {
			depth = d
			return true
		}
		return false
	})
	if depth < 0 {
		return 0
	}
	return depth + 1
}

//NRings returns the number of rings in a cycle basis of the molecule.
func (M *Molecule) NRings() int {
	return M.ringData().nrings
}

//InRing returns true if atom i is part of any ring.
func (M *Molecule) InRing(i int) bool {
	return M.ringData().atomRing[i] > 0
}

//SmallestRing returns the size of the smallest ring containing atom i, or 0.
func (M *Molecule) SmallestRing(i int) int {
	return M.ringData().atomRing[i]
}

//InRingOfSize returns true if atom i is in a ring with n atoms.
func (M *Molecule) InRingOfSize(i, n int) bool {
	R := M.ringData()
	return R.atomRing[i] == n || slices.Contains(R.atomSizes[i], n)
}

//RingCount returns the number of rings of the cycle basis that contain atom i.
func (M *Molecule) RingCount(i int) int {
	return M.ringData().atomCount[i]
}

//RingBondCount returns the number of ring bonds of atom i.
func (M *Molecule) RingBondCount(i int) int {
	return M.ringData().ringBonds[i]
}

//BondInRing returns true if the bond b is part of a ring.
func (M *Molecule) BondInRing(b *Bond) bool {
	return M.ringData().bondRing[b.index] > 0
}
