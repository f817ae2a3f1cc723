/*
 * keys.go, part of smirnoff.
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
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rmera/smirnoff/units"
)

//MaxIndices is the largest number of atoms a key can hold.
const MaxIndices = 4

//ErrTooManyIndices is raised when building an Indices with more than MaxIndices atoms.
const ErrTooManyIndices = PanicMsg("param: more than 4 atom indices in a key")

//ErrIndexOutOfRange is raised when accessing an Indices beyond its length.
const ErrIndexOutOfRange = PanicMsg("param: index out of range in atom indices")

//PanicMsg is the type used for all the panics raised in the package.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

//Indices is an ordered tuple of up to 4 atom indices. It is comparable, so
//it can be used within map keys.
type Indices struct {
	n   int8
	idx [MaxIndices]int
}

//Idx builds an Indices from the given atom indices.
func Idx(i ...int) Indices {
	if len(i) > MaxIndices {
		panic(ErrTooManyIndices)
	}
	var r Indices
	r.n = int8(len(i))
	copy(r.idx[:], i)
	return r
}

//Len returns the number of atoms in the tuple.
func (I Indices) Len() int { return int(I.n) }

//At returns the ith atom of the tuple.
func (I Indices) At(i int) int {
	if i < 0 || i >= int(I.n) {
		panic(ErrIndexOutOfRange)
	}
	return I.idx[i]
}

//Slice returns the atoms as a new slice.
func (I Indices) Slice() []int {
	return slices.Clone(I.idx[:I.n])
}

//Reverse returns the tuple in reverse order.
func (I Indices) Reverse() Indices {
	r := I
	for i := 0; i < int(I.n); i++ {
		r.idx[i] = I.idx[int(I.n)-1-i]
	}
	return r
}

//Compare compares two tuples lexicographically, shorter first on ties.
func (I Indices) Compare(J Indices) int {
	return slices.Compare(I.idx[:I.n], J.idx[:J.n])
}

//Contains returns true if the atom is in the tuple.
func (I Indices) Contains(atom int) bool {
	return slices.Contains(I.idx[:I.n], atom)
}

func (I Indices) String() string {
	s := make([]string, I.n)
	for i := range s {
		s[i] = strconv.Itoa(I.idx[i])
	}
	return "(" + strings.Join(s, ", ") + ")"
}

//canonicalChain returns the smaller of a chain tuple and its reverse.
func canonicalChain(I Indices) Indices {
	if r := I.Reverse(); r.Compare(I) < 0 {
		return r
	}
	return I
}

//canonicalPair returns a pair with the smaller index first.
func canonicalPair(i, j int) Indices {
	if j < i {
		i, j = j, i
	}
	return Idx(i, j)
}

//TopologyKey identifies a slot: a set of atoms, a multiplicity for slots with
//several terms, and the fractional bond order used to build the potential, if any.
type TopologyKey struct {
	AtomIndices  Indices
	Mult         int
	BondOrder    float64
	HasBondOrder bool
}

//Key returns a TopologyKey with the given atoms.
func Key(atoms ...int) TopologyKey {
	return TopologyKey{AtomIndices: Idx(atoms...)}
}

func (k TopologyKey) String() string {
	s := k.AtomIndices.String()
	if k.Mult != 0 {
		s += fmt.Sprintf(" mult %d", k.Mult)
	}
	if k.HasBondOrder {
		s += fmt.Sprintf(" bond order %g", k.BondOrder)
	}
	return s
}

//PotentialKey identifies a potential. ID is the SMIRKS pattern of the
//parameter it comes from, or a description of the source for potentials not
//built from a parameter, such as oracle charges.
type PotentialKey struct {
	ID                string
	Mult              int
	BondOrder         float64
	HasBondOrder      bool
	AssociatedHandler string
}

func (k PotentialKey) String() string {
	s := k.AssociatedHandler + ":" + k.ID
	if k.Mult != 0 {
		s += fmt.Sprintf(" mult %d", k.Mult)
	}
	if k.HasBondOrder {
		s += fmt.Sprintf(" bond order %g", k.BondOrder)
	}
	return s
}

//VirtualSiteKey identifies a virtual site. The parent atom is the first atom of
//Orientation.
type VirtualSiteKey struct {
	Orientation Indices
	Type        string
	Name        string
	Match       string
}

//Parent returns the index of the parent atom of the site.
func (k VirtualSiteKey) Parent() int {
	return k.Orientation.At(0)
}

func (k VirtualSiteKey) String() string {
	return fmt.Sprintf("%s %s %s (%s)", k.Type, k.Name, k.Orientation, k.Match)
}

//Potential is a set of named parameters. It is not modified after the build
//that produced it.
type Potential struct {
	params map[string]units.Quantity
}

//NewPotential returns a potential with a copy of the given parameters.
func NewPotential(p map[string]units.Quantity) *Potential {
	return &Potential{params: maps.Clone(p)}
}

//Get returns the parameter with the given name.
func (p *Potential) Get(name string) (units.Quantity, bool) {
	q, ok := p.params[name]
	return q, ok
}

//Parameters returns a copy of the parameters.
func (p *Potential) Parameters() map[string]units.Quantity {
	return maps.Clone(p.params)
}

//Names returns the sorted names of the parameters.
func (p *Potential) Names() []string {
	r := make([]string, 0, len(p.params))
	for k := range p.params {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

//ordered is an insertion-ordered map. Overwriting a key keeps its original position.
type ordered[K comparable, V any] struct {
	keys []K
	vals map[K]V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{vals: make(map[K]V)}
}

func (o *ordered[K, V]) set(k K, v V) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

func (o *ordered[K, V]) get(k K) (V, bool) {
	v, ok := o.vals[k]
	return v, ok
}

func (o *ordered[K, V]) len() int {
	return len(o.keys)
}

func (o *ordered[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

//SlotMap is a read-only, ordered view of the slots of a handler.
type SlotMap struct {
	m *ordered[TopologyKey, PotentialKey]
}

//Len returns the number of slots.
func (s SlotMap) Len() int { return s.m.len() }

//Get returns the potential key of a slot.
func (s SlotMap) Get(k TopologyKey) (PotentialKey, bool) { return s.m.get(k) }

//Keys returns the slots in order.
func (s SlotMap) Keys() []TopologyKey { return slices.Clone(s.m.keys) }

//All iterates over the slots in order.
func (s SlotMap) All() iter.Seq2[TopologyKey, PotentialKey] { return s.m.all() }

//PotentialTable is a read-only, ordered view of the potentials of a handler.
type PotentialTable struct {
	m *ordered[PotentialKey, *Potential]
}

//Len returns the number of potentials.
func (p PotentialTable) Len() int { return p.m.len() }

//Get returns the potential with the given key.
func (p PotentialTable) Get(k PotentialKey) (*Potential, bool) { return p.m.get(k) }

//Keys returns the potential keys in order.
func (p PotentialTable) Keys() []PotentialKey { return slices.Clone(p.m.keys) }

//All iterates over the potentials in order.
func (p PotentialTable) All() iter.Seq2[PotentialKey, *Potential] { return p.m.all() }
