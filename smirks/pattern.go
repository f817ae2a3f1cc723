/*
 * pattern.go, part of smirnoff.
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

//Package smirks parses SMIRKS chemical-environment patterns and finds their
//matches in molecular graphs.
//
//Matches are returned in a stable order: the search goes depth-first over the
//pattern atoms, trying candidate atoms in increasing index order, and a tuple of
//tagged atoms is reported only the first time it is found.
package smirks

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
)

type patEdge struct {
	to, bond int
}

type patBond struct {
	a, b int
	expr bondExpr
}

//Pattern is a parsed SMIRKS pattern. A Pattern is not modified by matching and
//can be reused.
type Pattern struct {
	src    string
	atoms  []atomExpr
	maps   []int
	bonds  []patBond
	adj    [][]patEdge
	order  []int
	parent []int
	tagged []int
}

func (P *Pattern) addAtom(e atomExpr, mapIdx int) (int, error) {
	if mapIdx > 0 && slices.Contains(P.maps, mapIdx) {
		return 0, errors.Newf("atom map %d used twice", mapIdx)
	}
	P.atoms = append(P.atoms, e)
	P.maps = append(P.maps, mapIdx)
	P.adj = append(P.adj, nil)
	return len(P.atoms) - 1, nil
}

func (P *Pattern) addBond(a, b int, e bondExpr) {
	P.bonds = append(P.bonds, patBond{a, b, e})
	bi := len(P.bonds) - 1
	P.adj[a] = append(P.adj[a], patEdge{b, bi})
	P.adj[b] = append(P.adj[b], patEdge{a, bi})
}

func (P *Pattern) hasBond(a, b int) bool {
	for _, e := range P.adj[a] {
		if e.to == b {
			return true
		}
	}
	return false
}

//prepare computes the search order (depth first from atom 0, then from
//any atom not yet reached) and the list of tagged atoms.
func (P *Pattern) prepare() {
	n := len(P.atoms)
	P.order = P.order[:0]
	P.parent = make([]int, n)
	seen := make([]bool, n)
	var dfs func(a, par int)
	dfs = func(a, par int) {
		seen[a] = true
		P.parent[a] = par
		P.order = append(P.order, a)
		for _, e := range P.adj[a] {
			if !seen[e.to] {
				dfs(e.to, a)
			}
		}
	}
	for a := 0; a < n; a++ {
		if !seen[a] {
			dfs(a, -1)
		}
	}
	P.tagged = P.tagged[:0]
	for a, m := range P.maps {
		if m > 0 {
			P.tagged = append(P.tagged, a)
		}
	}
	slices.SortFunc(P.tagged, func(x, y int) int { return P.maps[x] - P.maps[y] })
}

//String returns the pattern as it was written.
func (P *Pattern) String() string {
	return P.src
}

//NAtoms returns the number of atoms in the pattern.
func (P *Pattern) NAtoms() int {
	return len(P.atoms)
}

//NTagged returns the number of atoms with a map index.
func (P *Pattern) NTagged() int {
	return len(P.tagged)
}

//MapIndexes returns the map indexes of the tagged atoms, in increasing order.
func (P *Pattern) MapIndexes() []int {
	r := make([]int, len(P.tagged))
	for i, a := range P.tagged {
		r[i] = P.maps[a]
	}
	return r
}

//search is the backtracking state of one match.
type search struct {
	P       *Pattern
	ctx     *matchContext
	mapping []int
	used    []bool
	all     []int
	root    int //if >= 0, the only candidate for the first pattern atom
}

func newSearch(P *Pattern, ctx *matchContext) *search {
	s := &search{P: P, ctx: ctx, mapping: make([]int, len(P.atoms)), used: make([]bool, ctx.mol.Len()), root: -1}
	for i := range s.mapping {
		s.mapping[i] = -1
	}
	s.all = make([]int, ctx.mol.Len())
	for i := range s.all {
		s.all[i] = i
	}
	return s
}

//run tries to extend the mapping from the kth atom in the search order. It returns
//true if emit asked to stop.
func (s *search) run(k int, emit func() bool) bool {
	P := s.P
	if k == len(P.order) {
		return emit()
	}
	p := P.order[k]
	var cands []int
	switch {
	case P.parent[p] >= 0:
		cands = s.ctx.mol.Neighbors(s.mapping[P.parent[p]])
	case k == 0 && s.root >= 0:
		cands = []int{s.root}
	default:
		cands = s.all
	}
	for _, c := range cands {
		if s.used[c] || !P.atoms[p].matchAtom(s.ctx, c) || !s.bondsFit(p, c) {
			continue
		}
		s.mapping[p] = c
		s.used[c] = true
		if s.run(k+1, emit) {
			return true
		}
		s.used[c] = false
		s.mapping[p] = -1
	}
	return false
}

//bondsFit checks the bonds between pattern atom p, mapped on c, and the pattern
//atoms already mapped.
func (s *search) bondsFit(p, c int) bool {
	for _, e := range s.P.adj[p] {
		q := s.mapping[e.to]
		if q < 0 {
			continue
		}
		b := s.ctx.mol.BondBetween(c, q)
		if b == nil || !s.P.bonds[e.bond].expr.matchBond(s.ctx, b) {
			return false
		}
	}
	return true
}

//Match returns every distinct tuple of atoms matching the tagged atoms of the
//pattern, ordered by map index. If the pattern has no tagged atoms, every pattern
//atom is reported, in pattern order.
func (P *Pattern) Match(m *topology.Molecule) [][]int {
	if m.Len() == 0 {
		return nil
	}
	return P.match(newContext(m))
}

func (P *Pattern) match(ctx *matchContext) [][]int {
	s := newSearch(P, ctx)
	tagged := P.tagged
	if len(tagged) == 0 {
		tagged = make([]int, len(P.atoms))
		for i := range tagged {
			tagged[i] = i
		}
	}
	var out [][]int
	seen := make(map[string]bool)
	key := make([]byte, 0, 8*len(tagged))
	s.run(0, func() bool {
		key = key[:0]
		t := make([]int, len(tagged))
		for i, a := range tagged {
			t[i] = s.mapping[a]
			key = append(key, byte(t[i]), byte(t[i]>>8), byte(t[i]>>16), byte(t[i]>>24))
		}
		if !seen[string(key)] {
			seen[string(key)] = true
			out = append(out, t)
		}
		return false
	})
	return out
}

//matchesAt returns true if there is a match with the first pattern atom on atom i.
func (P *Pattern) matchesAt(ctx *matchContext, i int) bool {
	s := newSearch(P, ctx)
	s.root = i
	return s.run(0, func() bool { return true })
}

//Matches returns true if the pattern matches the molecule anywhere.
func (P *Pattern) Matches(m *topology.Molecule) bool {
	if m.Len() == 0 {
		return false
	}
	s := newSearch(P, newContext(m))
	return s.run(0, func() bool { return true })
}
