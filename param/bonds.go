/*
 * bonds.go, part of smirnoff.
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
	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/units"
	"go.uber.org/zap"
)

//DefaultBondOrderMethod is used when a definition with bond-order dependent
//parameters does not name a fractional bond order method.
const DefaultBondOrderMethod = "AM1-Wiberg"

//BondHandler holds the harmonic bond potentials. Bonds that are also
//constrained keep their slot; FlexibleSlots leaves them out.
type BondHandler struct {
	SMIRKSHandler
	byAtoms     map[Indices]TopologyKey
	constrained map[Indices]bool
}

//Slot returns the slot of the bond between atoms i and j.
func (h *BondHandler) Slot(i, j int) (TopologyKey, bool) {
	k, ok := h.byAtoms[canonicalPair(i, j)]
	return k, ok
}

//Constrained returns true if the bond of the slot is constrained.
func (h *BondHandler) Constrained(k TopologyKey) bool {
	return h.constrained[k.AtomIndices]
}

//FlexibleSlots returns, in order, the slots of the bonds that are not constrained.
func (h *BondHandler) FlexibleSlots() []TopologyKey {
	r := make([]TopologyKey, 0, h.slots.len())
	for k := range h.slots.all() {
		if !h.constrained[k.AtomIndices] {
			r = append(r, k)
		}
	}
	return r
}

func bondOrderMethod(defs []*ff.Handler) string {
	for _, d := range defs {
		if m := d.FractionalBondOrderMethod(); m != "" {
			return m
		}
	}
	return DefaultBondOrderMethod
}

func buildBonds(b *builder, defs []*ff.Handler) (*BondHandler, error) {
	method := bondOrderMethod(defs)
	asg, err := b.assign(defs, 2, func(g []int) Indices { return canonicalPair(g[0], g[1]) })
	if err != nil {
		return nil, err
	}
	h := &BondHandler{SMIRKSHandler: newSMIRKSHandler(Bonds), byAtoms: make(map[Indices]TopologyKey), constrained: make(map[Indices]bool)}
	missing := &UnassignedValenceParameterError{unassigned{Category: Bonds}}
	interpolated := 0
	for _, bond := range b.top.Bonds() {
		key := Idx(bond[0], bond[1])
		a, ok := asg.get(key)
		if !ok {
			missing.Missing = append(missing.Missing, key)
			missing.Symbols = append(missing.Symbols, b.symbols(key))
			continue
		}
		p := a.param
		var bo float64
		boFn := func() (float64, error) {
			var err error
			bo, err = b.bondOrder(method, bond[0], bond[1])
			return bo, err
		}
		k, kInterp, err := value(p, "k", boFn)
		if err != nil {
			return nil, err
		}
		length, lInterp, err := value(p, "length", boFn)
		if err != nil {
			return nil, err
		}
		tk := TopologyKey{AtomIndices: key}
		pk := PotentialKey{ID: p.SMIRKS, AssociatedHandler: Bonds}
		if kInterp || lInterp {
			tk.BondOrder, tk.HasBondOrder = bo, true
			pk.BondOrder, pk.HasBondOrder = bo, true
			interpolated++
		}
		h.store(tk, pk, NewPotential(map[string]units.Quantity{"k": k, "length": length}))
		h.byAtoms[key] = tk
	}
	if len(missing.Missing) > 0 {
		return nil, errors.WithHint(missing, "add a more general bond parameter, such as [*:1]~[*:2]")
	}
	b.log.Debug("assigned bonds", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()), zap.Int("interpolated", interpolated))
	return h, nil
}

//ConstraintHandler holds distance constraints.
type ConstraintHandler struct {
	SMIRKSHandler
}

//Distance returns the constrained distance between atoms i and j.
func (h *ConstraintHandler) Distance(i, j int) (units.Quantity, bool) {
	return h.Parameter(TopologyKey{AtomIndices: canonicalPair(i, j)}, "distance")
}

//buildConstraints builds the constraints. A constraint without a distance
//takes the equilibrium length of the bond potential, which bonds must have.
//Constrained bonds are flagged in bonds.
func buildConstraints(b *builder, defs []*ff.Handler, bonds *BondHandler) (*ConstraintHandler, error) {
	asg, err := b.assign(defs, 2, func(g []int) Indices { return canonicalPair(g[0], g[1]) })
	if err != nil {
		return nil, err
	}
	h := &ConstraintHandler{newSMIRKSHandler(Constraints)}
	for key, a := range asg.all() {
		tk := TopologyKey{AtomIndices: key}
		if d, ok := a.param.Get("distance"); ok {
			h.store(tk, PotentialKey{ID: a.param.SMIRKS, AssociatedHandler: Constraints}, NewPotential(map[string]units.Quantity{"distance": d}))
		} else {
			if bonds == nil {
				return nil, errors.Newf("constraint %s has no distance and there are no bond parameters to take it from", a.param.Label())
			}
			bk, ok := bonds.byAtoms[key]
			if !ok {
				return nil, errors.Newf("constraint %s on atoms %s has no distance, and the atoms are not bonded", a.param.Label(), key)
			}
			bpk, _ := bonds.slots.get(bk)
			length, _ := bonds.Parameter(bk, "length")
			h.store(tk, bpk, NewPotential(map[string]units.Quantity{"distance": length}))
		}
		if bonds != nil {
			if _, ok := bonds.byAtoms[key]; ok {
				bonds.constrained[key] = true
			}
		}
	}
	b.log.Debug("assigned constraints", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}
