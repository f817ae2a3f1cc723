/*
 * identity.go, part of smirnoff.
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

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/topology"
)

//Correspondence checks whether ref and target are the same molecule, possibly
//with the atoms in a different order. If they are, it returns, for each atom i of
//ref, the index of the equivalent atom in target. Element, formal charge,
//aromaticity and bond orders must all agree. If the atoms are in the same order
//in both molecules, the identity correspondence is returned.
func Correspondence(ref, target *topology.Molecule) ([]int, bool) {
	if ref.Len() != target.Len() || ref.NBonds() != target.NBonds() {
		return nil, false
	}
	if sameOrder(ref, target) {
		r := make([]int, ref.Len())
		for i := range r {
			r[i] = i
		}
		return r, true
	}
	if ref.Len() == 0 || ref.Fingerprint() != target.Fingerprint() {
		return nil, false
	}
	P := moleculePattern(ref)
	s := newSearch(P, newContext(target))
	var r []int
	s.run(0, func() bool {
		r = make([]int, len(s.mapping))
		copy(r, s.mapping)
		return true
	})
	return r, r != nil
}

//sameOrder returns true if the atoms and bonds of both molecules are identical,
//index by index.
func sameOrder(a, b *topology.Molecule) bool {
	for i, at := range a.Atoms() {
		bt := b.Atom(i)
		if at.AtomicNumber != bt.AtomicNumber || at.FormalCharge != bt.FormalCharge || at.Aromatic != bt.Aromatic {
			return false
		}
	}
	for _, ba := range a.Bonds() {
		bb := b.BondBetween(ba.At1, ba.At2)
		if bb == nil || bb.Order != ba.Order || bb.Aromatic != ba.Aromatic {
			return false
		}
	}
	return true
}

//moleculePattern builds a pattern that matches exactly the molecule m.
func moleculePattern(m *topology.Molecule) *Pattern {
	P := &Pattern{src: "molecule " + m.Name}
	for i, a := range m.Atoms() {
		P.addAtom(exactAtom{z: a.AtomicNumber, charge: a.FormalCharge, degree: m.Degree(i), aromatic: a.Aromatic}, i+1)
	}
	for _, b := range m.Bonds() {
		P.addBond(b.At1, b.At2, exactBond{order: b.Order, aromatic: b.Aromatic})
	}
	P.prepare()
	return P
}

//FromMolecule writes a SMIRKS in which every atom of m is tagged with its index+1,
//so the ith match position is the ith atom. It returns an error for molecules
//made of several disconnected fragments.
func FromMolecule(m *topology.Molecule) (string, error) {
	n := m.Len()
	if n == 0 {
		return "", errors.New("smirks: empty molecule")
	}
	type closure struct {
		other int
		bond  *topology.Bond
		open  bool
	}
	visited := make([]bool, n)
	children := make([][]int, n)
	closures := make([][]closure, n)
	done := make(map[*topology.Bond]bool)
	var dfs func(u, parent int)
	dfs = func(u, parent int) {
		visited[u] = true
		for _, v := range m.Neighbors(u) {
			b := m.BondBetween(u, v)
			if v == parent || done[b] {
				continue
			}
			done[b] = true
			if visited[v] {
				closures[v] = append(closures[v], closure{u, b, true})
				closures[u] = append(closures[u], closure{v, b, false})
				continue
			}
			children[u] = append(children[u], v)
			dfs(v, u)
		}
	}
	dfs(0, -1)
	for i := range visited {
		if !visited[i] {
			return "", errors.Newf("smirks: molecule %s has disconnected fragments", m.Name)
		}
	}
	var sb strings.Builder
	ringNum := make(map[*topology.Bond]int)
	var free []int
	next := 1
	var write func(u int)
	write = func(u int) {
		sb.WriteString(atomSmirks(m.Atom(u), u+1))
		for _, c := range closures[u] {
			if c.open {
				num := next
				if len(free) > 0 {
					num, free = free[0], free[1:]
				} else {
					next++
				}
				ringNum[c.bond] = num
				sb.WriteString(bondSymbol(c.bond))
				sb.WriteString(ringLabel(num))
			} else {
				num := ringNum[c.bond]
				sb.WriteString(ringLabel(num))
				free = append(free, num)
			}
		}
		for i, v := range children[u] {
			last := i == len(children[u])-1
			if !last {
				sb.WriteByte('(')
			}
			sb.WriteString(bondSymbol(m.BondBetween(u, v)))
			write(v)
			if !last {
				sb.WriteByte(')')
			}
		}
	}
	write(0)
	return sb.String(), nil
}

func ringLabel(n int) string {
	if n < 10 {
		return strconv.Itoa(n)
	}
	return "%" + strconv.Itoa(n)
}

func bondSymbol(b *topology.Bond) string {
	if b.Aromatic {
		return ":"
	}
	switch b.Order {
	case 2:
		return "="
	case 3:
		return "#"
	}
	return "-"
}

func atomSmirks(a *topology.Atom, mapIdx int) string {
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	//aromatic symbols the parser does not know are written by atomic number
	if a.Aromatic && !strings.Contains("b c n o p s se as", sym) {
		sym = "#" + strconv.Itoa(a.AtomicNumber) + "a"
	}
	if a.AtomicNumber == 1 {
		sym = "#1"
	}
	ch := ""
	switch {
	case a.FormalCharge > 0:
		ch = "+" + strconv.Itoa(a.FormalCharge)
	case a.FormalCharge < 0:
		ch = "-" + strconv.Itoa(-a.FormalCharge)
	default:
		ch = "+0"
	}
	return "[" + sym + ch + ":" + strconv.Itoa(mapIdx) + "]"
}
