/*
 * topology.go, part of smirnoff.
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
	"sort"

	v3 "github.com/rmera/smirnoff/v3"
)

//Topology is an ordered collection of molecules. Atoms are numbered globally,
//molecule after molecule, in the order the molecules were added.
type Topology struct {
	Box       *v3.Matrix //box vectors in Å, nil if the system is not periodic
	molecules []*Molecule
	offsets   []int
	natoms    int
}

//New returns a topology with the given molecules.
func New(mols ...*Molecule) *Topology {
	T := &Topology{}
	for _, m := range mols {
		T.AddMolecule(m)
	}
	return T
}

//AddMolecule appends a molecule to the topology. The molecule is not copied,
//and must not be modified afterwards.
func (T *Topology) AddMolecule(m *Molecule) {
	T.molecules = append(T.molecules, m)
	T.offsets = append(T.offsets, T.natoms)
	T.natoms += m.Len()
}

//Molecules returns the molecules. The slice must not be modified.
func (T *Topology) Molecules() []*Molecule {
	return T.molecules
}

//NMolecules returns the number of molecules.
func (T *Topology) NMolecules() int {
	return len(T.molecules)
}

//Molecule returns the ith molecule.
func (T *Topology) Molecule(i int) *Molecule {
	return T.molecules[i]
}

//Offset returns the global index of the first atom of the ith molecule.
func (T *Topology) Offset(i int) int {
	return T.offsets[i]
}

//NAtoms returns the total number of atoms.
func (T *Topology) NAtoms() int {
	return T.natoms
}

//Locate returns the molecule index and the index within that molecule for the
//global atom index g.
func (T *Topology) Locate(g int) (int, int) {
	if g < 0 || g >= T.natoms {
		panic(ErrAtomOutOfRange)
	}
	mi := sort.Search(len(T.offsets), func(i int) bool { return T.offsets[i] > g }) - 1
	return mi, g - T.offsets[mi]
}

//Atom returns the atom with global index g.
func (T *Topology) Atom(g int) *Atom {
	mi, li := T.Locate(g)
	return T.molecules[mi].Atom(li)
}

//NBonds returns the total number of bonds.
func (T *Topology) NBonds() int {
	n := 0
	for _, m := range T.molecules {
		n += m.NBonds()
	}
	return n
}

//Bonds returns every bond as a sorted pair of global indexes, molecule by molecule
//in bond order.
func (T *Topology) Bonds() [][2]int {
	r := make([][2]int, 0, T.NBonds())
	for mi, m := range T.molecules {
		off := T.offsets[mi]
		for _, b := range m.bonds {
			r = append(r, pair(b.At1+off, b.At2+off))
		}
	}
	return r
}

//Angles returns every angle i-j-k, with i<k, in global indexes.
func (T *Topology) Angles() [][3]int {
	var r [][3]int
	for mi, m := range T.molecules {
		off := T.offsets[mi]
		for j := range m.atoms {
			nb := m.adj[j]
			for x := 0; x < len(nb); x++ {
				for y := x + 1; y < len(nb); y++ {
					r = append(r, [3]int{nb[x] + off, j + off, nb[y] + off})
				}
			}
		}
	}
	return r
}

//ProperTorsions returns every proper torsion i-j-k-l in global indexes, in the
//canonical orientation (the smaller of the tuple and its reverse). Torsions within
//3-membered rings (i==l) are not included.
func (T *Topology) ProperTorsions() [][4]int {
	var r [][4]int
	for mi, m := range T.molecules {
		off := T.offsets[mi]
		for _, b := range m.bonds {
			j, k := b.At1, b.At2
			for _, i := range m.adj[j] {
				if i == k {
					continue
				}
				for _, l := range m.adj[k] {
					if l == j || l == i {
						continue
					}
					t := [4]int{i + off, j + off, k + off, l + off}
					rev := [4]int{t[3], t[2], t[1], t[0]}
					if slices.Compare(rev[:], t[:]) < 0 {
						t = rev
					}
					r = append(r, t)
				}
			}
		}
	}
	return r
}

//Positions returns the coordinates of the first conformer of every molecule,
//stacked in global atom order, or nil if any molecule lacks conformers.
func (T *Topology) Positions() *v3.Matrix {
	if T.natoms == 0 {
		return nil
	}
	pos := v3.Zeros(T.natoms)
	for mi, m := range T.molecules {
		if len(m.Conformers) == 0 {
			return nil
		}
		c := m.Conformers[0]
		for i := 0; i < m.Len(); i++ {
			pos.SetVec(T.offsets[mi]+i, c.Vec(i))
		}
	}
	return pos
}

//PanicMsg is the type used for all the panics raised in the package.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const ErrAtomOutOfRange = PanicMsg("topology: atom index out of range")
