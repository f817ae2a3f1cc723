/*
 * expr.go, part of smirnoff.
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

package smirks

import "github.com/rmera/smirnoff/topology"

//matchContext holds the molecule being searched and the per-search caches.
type matchContext struct {
	mol       *topology.Molecule
	recursive map[*recursiveExpr][]int8 //0 unknown, 1 match, -1 no match
}

func newContext(m *topology.Molecule) *matchContext {
	return &matchContext{mol: m}
}

type atomExpr interface {
	matchAtom(ctx *matchContext, i int) bool
}

type bondExpr interface {
	matchBond(ctx *matchContext, b *topology.Bond) bool
}

type atomKind int

const (
	anyAtom atomKind = iota
	atomicNum
	aromaticAtom
	aliphaticAtom
	degree
	connectivity
	hCount
	implicitH
	ringMembership
	ringSize
	ringConnectivity
	formalCharge
	valence
)

//atomPrim is a single atomic primitive. A negative val in ring
//primitives means "any ring".
type atomPrim struct {
	kind atomKind
	val  int
}

func (p atomPrim) matchAtom(ctx *matchContext, i int) bool {
	m := ctx.mol
	a := m.Atom(i)
	switch p.kind {
	case anyAtom:
		return true
	case atomicNum:
		return a.AtomicNumber == p.val
	case aromaticAtom:
		return a.Aromatic
	case aliphaticAtom:
		return !a.Aromatic
	case degree, connectivity:
		return m.Degree(i) == p.val
	case hCount:
		return m.HydrogenCount(i) == p.val
	case implicitH:
		//hydrogens are always explicit
		return p.val == 0
	case ringMembership:
		if p.val < 0 {
			return m.InRing(i)
		}
		if p.val == 0 {
			return !m.InRing(i)
		}
		return m.RingCount(i) == p.val
	case ringSize:
		if p.val < 0 {
			return m.InRing(i)
		}
		if p.val == 0 {
			return !m.InRing(i)
		}
		return m.InRingOfSize(i, p.val)
	case ringConnectivity:
		if p.val < 0 {
			return m.RingBondCount(i) > 0
		}
		return m.RingBondCount(i) == p.val
	case formalCharge:
		return a.FormalCharge == p.val
	case valence:
		return m.Valence(i) == p.val
	}
	return false
}

type atomNot struct{ e atomExpr }

func (n atomNot) matchAtom(ctx *matchContext, i int) bool { return !n.e.matchAtom(ctx, i) }

type atomAnd struct{ l, r atomExpr }

func (a atomAnd) matchAtom(ctx *matchContext, i int) bool {
	return a.l.matchAtom(ctx, i) && a.r.matchAtom(ctx, i)
}

type atomOr struct{ l, r atomExpr }

func (o atomOr) matchAtom(ctx *matchContext, i int) bool {
	return o.l.matchAtom(ctx, i) || o.r.matchAtom(ctx, i)
}

//recursiveExpr is a $(...) primitive: the atom must be the first atom of a
//match of the inner pattern.
type recursiveExpr struct {
	p *Pattern
}

func (r *recursiveExpr) matchAtom(ctx *matchContext, i int) bool {
	if ctx.recursive == nil {
		ctx.recursive = make(map[*recursiveExpr][]int8)
	}
	c, ok := ctx.recursive[r]
	if !ok {
		c = make([]int8, ctx.mol.Len())
		ctx.recursive[r] = c
	}
	if c[i] == 0 {
		c[i] = -1
		if r.p.matchesAt(ctx, i) {
			c[i] = 1
		}
	}
	return c[i] == 1
}

//exactAtom is used for molecule identity: element, charge, degree and aromaticity
//must all be equal.
type exactAtom struct {
	z, charge, degree int
	aromatic          bool
}

func (e exactAtom) matchAtom(ctx *matchContext, i int) bool {
	a := ctx.mol.Atom(i)
	return a.AtomicNumber == e.z && a.FormalCharge == e.charge && a.Aromatic == e.aromatic && ctx.mol.Degree(i) == e.degree
}

type bondKind int

const (
	implicitBond bondKind = iota
	singleBond
	doubleBond
	tripleBond
	aromaticBond
	anyBond
	ringBond
)

type bondPrim struct {
	kind bondKind
}

func (p bondPrim) matchBond(ctx *matchContext, b *topology.Bond) bool {
	switch p.kind {
	case implicitBond:
		return b.Aromatic || b.Order == 1
	case singleBond:
		return !b.Aromatic && b.Order == 1
	case doubleBond:
		return !b.Aromatic && b.Order == 2
	case tripleBond:
		return !b.Aromatic && b.Order == 3
	case aromaticBond:
		return b.Aromatic
	case anyBond:
		return true
	case ringBond:
		return ctx.mol.BondInRing(b)
	}
	return false
}

type bondNot struct{ e bondExpr }

func (n bondNot) matchBond(ctx *matchContext, b *topology.Bond) bool { return !n.e.matchBond(ctx, b) }

type bondAnd struct{ l, r bondExpr }

func (a bondAnd) matchBond(ctx *matchContext, b *topology.Bond) bool {
	return a.l.matchBond(ctx, b) && a.r.matchBond(ctx, b)
}

type bondOr struct{ l, r bondExpr }

func (o bondOr) matchBond(ctx *matchContext, b *topology.Bond) bool {
	return o.l.matchBond(ctx, b) || o.r.matchBond(ctx, b)
}

//exactBond matches bonds of the same order and aromaticity.
type exactBond struct {
	order    int
	aromatic bool
}

func (e exactBond) matchBond(ctx *matchContext, b *topology.Bond) bool {
	if e.aromatic || b.Aromatic {
		return e.aromatic == b.Aromatic
	}
	return b.Order == e.order
}
