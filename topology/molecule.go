/*
 * molecule.go, part of smirnoff.
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

//Package topology implements the molecular graphs that force-field parameters
//are assigned to: atoms, bonds, molecules and topologies made of several molecules.
//Hydrogens are always explicit.
package topology

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"
	v3 "github.com/rmera/smirnoff/v3"
)

//Aromatic is the bond order used to request an aromatic bond, as in MDL files.
const Aromatic = 4

//Atom contains the atomic information. The index of the atom within its
//molecule is set when the atom is added.
type Atom struct {
	Name         string
	Symbol       string
	AtomicNumber int
	FormalCharge int
	Aromatic     bool
	index        int
}

//Index returns the index of the atom in its molecule.
func (A *Atom) Index() int {
	return A.index
}

//Bond represents a chemical bond between two atoms of a molecule.
//Order is the integer (Kekulé) bond order. FractionalOrder, if set, is
//an externally supplied fractional bond order, such as a Wiberg bond order.
type Bond struct {
	At1, At2        int
	Order           int
	Aromatic        bool
	FractionalOrder float64
	HasFractional   bool
	index           int
}

//Index returns the index of the bond in its molecule.
func (B *Bond) Index() int {
	return B.index
}

//Cross returns the index of the atom at the other end of the bond from at, or -1
//if at is not in the bond.
func (B *Bond) Cross(at int) int {
	switch at {
	case B.At1:
		return B.At2
	case B.At2:
		return B.At1
	}
	return -1
}

//Molecule is a molecular graph with explicit hydrogens. It may carry partial
//charges and conformers, but no force-field information.
type Molecule struct {
	Name       string
	Conformers []*v3.Matrix
	atoms      []*Atom
	bonds      []*Bond
	adj        [][]int
	bondAt     map[[2]int]*Bond
	charges    []float64
	rings      *ringInfo
}

//NewMolecule returns an empty molecule with the given name.
func NewMolecule(name string) *Molecule {
	return &Molecule{Name: name, bondAt: make(map[[2]int]*Bond)}
}

//AddAtom adds an atom of the given element and formal charge, and returns it.
func (M *Molecule) AddAtom(symbol string, formalCharge int) (*Atom, error) {
	z := AtomicNumber(symbol)
	if z == 0 {
		return nil, errors.Newf("topology: unknown element %q", symbol)
	}
	a := &Atom{Symbol: normalSymbol(symbol), AtomicNumber: z, FormalCharge: formalCharge, index: len(M.atoms)}
	M.atoms = append(M.atoms, a)
	M.adj = append(M.adj, nil)
	M.rings = nil
	return a, nil
}

//AddAtoms adds several neutral atoms.
func (M *Molecule) AddAtoms(symbols ...string) error {
	for _, s := range symbols {
		if _, err := M.AddAtom(s, 0); err != nil {
			return err
		}
	}
	return nil
}

//AddBond bonds the atoms i and j. Order must be 1, 2, 3 or Aromatic. An aromatic bond
//also marks both atoms as aromatic.
func (M *Molecule) AddBond(i, j, order int) (*Bond, error) {
	if i < 0 || j < 0 || i >= len(M.atoms) || j >= len(M.atoms) {
		return nil, errors.Newf("topology: bond %d-%d out of range for %d atoms", i, j, len(M.atoms))
	}
	if i == j {
		return nil, errors.Newf("topology: atom %d bonded to itself", i)
	}
	if order < 1 || order > Aromatic {
		return nil, errors.Newf("topology: bad bond order %d for bond %d-%d", order, i, j)
	}
	k := pair(i, j)
	if _, ok := M.bondAt[k]; ok {
		return nil, errors.Newf("topology: duplicated bond %d-%d", i, j)
	}
	b := &Bond{At1: i, At2: j, Order: order, index: len(M.bonds)}
	if order == Aromatic {
		b.Order = 1
		b.Aromatic = true
		M.atoms[i].Aromatic = true
		M.atoms[j].Aromatic = true
	}
	M.bonds = append(M.bonds, b)
	M.bondAt[k] = b
	M.adj[i] = insertSorted(M.adj[i], j)
	M.adj[j] = insertSorted(M.adj[j], i)
	M.rings = nil
	return b, nil
}

func insertSorted(s []int, v int) []int {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

func pair(i, j int) [2]int {
	if i > j {
		return [2]int{j, i}
	}
	return [2]int{i, j}
}

//Len returns the number of atoms.
func (M *Molecule) Len() int {
	return len(M.atoms)
}

//Atom returns the ith atom.
func (M *Molecule) Atom(i int) *Atom {
	return M.atoms[i]
}

//Atoms returns the atoms of the molecule. The slice must not be modified.
func (M *Molecule) Atoms() []*Atom {
	return M.atoms
}

//NBonds returns the number of bonds.
func (M *Molecule) NBonds() int {
	return len(M.bonds)
}

//Bond returns the ith bond.
func (M *Molecule) Bond(i int) *Bond {
	return M.bonds[i]
}

//Bonds returns the bonds of the molecule. The slice must not be modified.
func (M *Molecule) Bonds() []*Bond {
	return M.bonds
}

//BondBetween returns the bond between atoms i and j, or nil.
func (M *Molecule) BondBetween(i, j int) *Bond {
	return M.bondAt[pair(i, j)]
}

//Neighbors returns the indexes of the atoms bonded to i, in increasing order.
//The slice must not be modified.
func (M *Molecule) Neighbors(i int) []int {
	return M.adj[i]
}

//Degree returns the number of atoms bonded to i.
func (M *Molecule) Degree(i int) int {
	return len(M.adj[i])
}

//HydrogenCount returns the number of hydrogens bonded to i.
func (M *Molecule) HydrogenCount(i int) int {
	n := 0
	for _, j := range M.adj[i] {
		if M.atoms[j].AtomicNumber == 1 {
			n++
		}
	}
	return n
}

//Valence returns the sum of the orders of the bonds of atom i. Aromatic bonds
//count 1.5, and the result is rounded down.
func (M *Molecule) Valence(i int) int {
	v := 0.0
	for _, j := range M.adj[i] {
		b := M.BondBetween(i, j)
		if b.Aromatic {
			v += 1.5
		} else {
			v += float64(b.Order)
		}
	}
	return int(v)
}

//TotalCharge returns the sum of the formal charges.
func (M *Molecule) TotalCharge() int {
	c := 0
	for _, a := range M.atoms {
		c += a.FormalCharge
	}
	return c
}

//HasPartialCharges returns true if partial charges have been set.
func (M *Molecule) HasPartialCharges() bool {
	return M.charges != nil
}

//PartialCharges returns a copy of the partial charges (in elementary charges), or nil.
func (M *Molecule) PartialCharges() []float64 {
	if M.charges == nil {
		return nil
	}
	return slices.Clone(M.charges)
}

//SetPartialCharges sets one partial charge (in elementary charges) per atom. A nil
//slice removes the charges.
func (M *Molecule) SetPartialCharges(q []float64) error {
	if q == nil {
		M.charges = nil
		return nil
	}
	if len(q) != len(M.atoms) {
		return errors.Newf("topology: %d partial charges for %d atoms", len(q), len(M.atoms))
	}
	M.charges = slices.Clone(q)
	return nil
}

//SetFractionalBondOrders sets one fractional bond order per bond, in bond order.
func (M *Molecule) SetFractionalBondOrders(bo []float64) error {
	if len(bo) != len(M.bonds) {
		return errors.Newf("topology: %d fractional bond orders for %d bonds", len(bo), len(M.bonds))
	}
	for i, b := range M.bonds {
		b.FractionalOrder = bo[i]
		b.HasFractional = true
	}
	return nil
}

//HasFractionalBondOrders returns true if every bond has a fractional bond order.
func (M *Molecule) HasFractionalBondOrders() bool {
	for _, b := range M.bonds {
		if !b.HasFractional {
			return false
		}
	}
	return true
}

//AddConformer appends a set of coordinates (in Å), one vector per atom.
func (M *Molecule) AddConformer(c *v3.Matrix) error {
	if c.NVecs() != len(M.atoms) {
		return errors.Newf("topology: conformer with %d positions for %d atoms", c.NVecs(), len(M.atoms))
	}
	M.Conformers = append(M.Conformers, c)
	return nil
}

//Copy returns a deep copy of the molecule.
func (M *Molecule) Copy() *Molecule {
	order := make([]int, len(M.atoms))
	for i := range order {
		order[i] = i
	}
	r, _ := M.Remap(order)
	return r
}

//Remap returns a new molecule whose ith atom is the atom order[i] of the receiver.
//Bonds, partial charges, fractional bond orders and conformers are carried over.
func (M *Molecule) Remap(order []int) (*Molecule, error) {
	if len(order) != len(M.atoms) {
		return nil, errors.Newf("topology: remap with %d indexes for %d atoms", len(order), len(M.atoms))
	}
	inv := make([]int, len(order))
	for i := range inv {
		inv[i] = -1
	}
	for i, o := range order {
		if o < 0 || o >= len(order) || inv[o] >= 0 {
			return nil, errors.Newf("topology: remap order is not a permutation")
		}
		inv[o] = i
	}
	R := NewMolecule(M.Name)
	for _, o := range order {
		a := *M.atoms[o]
		a.index = len(R.atoms)
		R.atoms = append(R.atoms, &a)
		R.adj = append(R.adj, nil)
	}
	for _, b := range M.bonds {
		nb, err := R.AddBond(inv[b.At1], inv[b.At2], b.Order)
		if err != nil {
			return nil, err
		}
		nb.Aromatic = b.Aromatic
		nb.FractionalOrder = b.FractionalOrder
		nb.HasFractional = b.HasFractional
	}
	if M.charges != nil {
		R.charges = make([]float64, len(order))
		for i, o := range order {
			R.charges[i] = M.charges[o]
		}
	}
	for _, c := range M.Conformers {
		R.Conformers = append(R.Conformers, c.SomeVecs(order))
	}
	return R, nil
}

//String returns the molecular formula with the name.
func (M *Molecule) String() string {
	counts := make(map[string]int)
	var order []string
	for _, a := range M.atoms {
		if counts[a.Symbol] == 0 {
			order = append(order, a.Symbol)
		}
		counts[a.Symbol]++
	}
	f := ""
	for _, s := range order {
		f += s
		if counts[s] > 1 {
			f += fmt.Sprint(counts[s])
		}
	}
	if M.Name == "" {
		return f
	}
	return M.Name + " (" + f + ")"
}
