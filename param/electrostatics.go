/*
 * electrostatics.go, part of smirnoff.
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
	"strings"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/smirks"
	"github.com/rmera/smirnoff/units"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

//Charge sources, as reported by ElectrostaticsHandler.Source.
const (
	SourceChargeFromMolecules = "ChargeFromMolecules"
	SourceLibraryCharges      = ff.TagLibraryCharges
	SourceChargeIncrements    = ff.TagChargeIncrementModel
	SourceToolkitAM1BCC       = ff.TagToolkitAM1BCC
)

//Default charge methods.
const (
	DefaultIncrementChargeMethod = "AM1-Mulliken"
	AM1BCCMethod                 = "am1bcc"
)

//ElectrostaticsHandler holds one partial charge per atom, and the settings of
//the interaction. Library charges are keyed by the SMIRKS and position of the
//parameter. Charges built from an oracle or taken from a reference molecule
//get one potential per atom, identified by the molecule.
type ElectrostaticsHandler struct {
	SMIRKSHandler
	charges              *ordered[TopologyKey, units.Quantity]
	sources              []string
	Cutoff               units.Quantity
	SwitchWidth          units.Quantity
	Scale12              float64
	Scale13              float64
	Scale14              float64
	Scale15              float64
	PeriodicPotential    string
	NonperiodicPotential string
	ExceptionPotential   string
}

//Charge returns the partial charge of an atom.
func (h *ElectrostaticsHandler) Charge(atom int) (units.Quantity, bool) {
	return h.charges.get(Key(atom))
}

//Charges returns the partial charges of all atoms, in global order.
func (h *ElectrostaticsHandler) Charges() []units.Quantity {
	r := make([]units.Quantity, 0, h.charges.len())
	for _, q := range h.charges.all() {
		r = append(r, q)
	}
	return r
}

//Source returns where the charges of molecule mi came from.
func (h *ElectrostaticsHandler) Source(mi int) string {
	return h.sources[mi]
}

//PotentialForm returns the electrostatics potential for periodic or non-periodic systems.
func (h *ElectrostaticsHandler) PotentialForm(periodic bool) string {
	if periodic {
		return h.PeriodicPotential
	}
	return h.NonperiodicPotential
}

//chargeDefs splits the electrostatics definitions by tag.
type chargeDefs struct {
	settings, library, increments, am1bcc []*ff.Handler
}

func splitChargeDefs(defs []*ff.Handler) chargeDefs {
	var c chargeDefs
	for _, d := range defs {
		switch d.Tag {
		case ff.TagElectrostatics:
			c.settings = append(c.settings, d)
		case ff.TagLibraryCharges:
			c.library = append(c.library, d)
		case ff.TagChargeIncrementModel:
			c.increments = append(c.increments, d)
		case ff.TagToolkitAM1BCC:
			c.am1bcc = append(c.am1bcc, d)
		}
	}
	return c
}

//molCharge is the charge of one atom, with the potential key it is stored under.
type molCharge struct {
	q  float64
	pk PotentialKey
}

//buildElectrostatics assigns the charges molecule by molecule. An identical
//reference molecule takes precedence over everything. Otherwise library
//charges are used if they cover the whole molecule. Failing that, the oracle
//charges for the method of the charge increment model (or am1bcc for
//ToolkitAM1BCC) are the base and charge increments are added on top. Library
//charges covering only part of a molecule are not used.
func buildElectrostatics(b *builder, defs []*ff.Handler) (*ElectrostaticsHandler, error) {
	c := splitChargeDefs(defs)
	s := &settings{defs: c.settings}
	h := &ElectrostaticsHandler{
		SMIRKSHandler:        newSMIRKSHandler(Electrostatics),
		charges:              newOrdered[TopologyKey, units.Quantity](),
		Cutoff:               s.quantity("cutoff", units.Q(9, units.Angstrom)),
		SwitchWidth:          s.quantity("switch_width", units.Q(0, units.Angstrom)),
		Scale12:              s.float("scale12", 0),
		Scale13:              s.float("scale13", 0),
		Scale14:              s.float("scale14", 0.8333333333),
		Scale15:              s.float("scale15", 1),
		PeriodicPotential:    s.attr("periodic_potential", "Ewald3D-ConductingBoundary"),
		NonperiodicPotential: s.attr("nonperiodic_potential", "Coulomb"),
		ExceptionPotential:   s.attr("exception_potential", "Coulomb"),
	}
	if s.err != nil {
		return nil, errors.Wrap(s.err, "electrostatics settings")
	}
	for _, ref := range b.opts.chargeRefs {
		if !ref.HasPartialCharges() {
			return nil, &MissingPartialChargesError{Molecule: ref.Name}
		}
	}
	for mi := 0; mi < b.top.NMolecules(); mi++ {
		if err := b.ctx.Err(); err != nil {
			return nil, err
		}
		q, source, err := moleculeCharges(b, c, mi)
		if err != nil {
			return nil, err
		}
		h.sources = append(h.sources, source)
		off := b.top.Offset(mi)
		values := make([]float64, len(q))
		for i, v := range q {
			h.store(Key(off+i), v.pk, NewPotential(map[string]units.Quantity{"charge": units.Q(v.q, units.ElementaryCharge)}))
			h.charges.set(Key(off+i), units.Q(v.q, units.ElementaryCharge))
			values[i] = v.q
		}
		b.log.Debug("assigned charges", zap.String("molecule", b.top.Molecule(mi).Name), zap.String("source", source), zap.Float64("net", floats.Sum(values)))
	}
	b.log.Debug("assigned electrostatics", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}

func moleculeID(mi int) string {
	return fmt.Sprintf("molecule %d", mi)
}

func moleculeCharges(b *builder, c chargeDefs, mi int) ([]molCharge, string, error) {
	m := b.top.Molecule(mi)
	n := m.Len()
	for _, ref := range b.opts.chargeRefs {
		corr, ok := smirks.Correspondence(ref, m)
		if !ok {
			continue
		}
		q := remapCharges(corr, ref.PartialCharges())
		r := make([]molCharge, n)
		for i := range r {
			r[i] = molCharge{q[i], PotentialKey{ID: moleculeID(mi), Mult: i, AssociatedHandler: SourceChargeFromMolecules}}
		}
		return r, SourceChargeFromMolecules, nil
	}

	lib, err := libraryCharges(b, c.library, mi)
	if err != nil {
		return nil, "", err
	}
	if len(lib) == n {
		r := make([]molCharge, n)
		for i := range r {
			r[i] = lib[i]
		}
		return r, SourceLibraryCharges, nil
	}

	var method, source string
	switch {
	case len(c.increments) > 0:
		method = DefaultIncrementChargeMethod
		for _, d := range c.increments {
			if v := d.Attr("partial_charge_method", ""); v != "" {
				method = v
			}
		}
		source = SourceChargeIncrements
	case len(c.am1bcc) > 0:
		method, source = AM1BCCMethod, SourceToolkitAM1BCC
	default:
		err := &UnassignedChargeError{Molecule: m.Name}
		for i := 0; i < n; i++ {
			if _, ok := lib[i]; !ok {
				err.Atoms = append(err.Atoms, i)
			}
		}
		return nil, "", err
	}
	method = strings.ToLower(method)
	base, err := b.molCharges(method, mi)
	if err != nil {
		return nil, "", err
	}
	inc, err := chargeIncrements(b, c.increments, mi)
	if err != nil {
		return nil, "", err
	}
	floats.Add(base, inc)
	r := make([]molCharge, n)
	for i := range r {
		r[i] = molCharge{base[i], PotentialKey{ID: moleculeID(mi), Mult: i, AssociatedHandler: source}}
	}
	return r, source, nil
}

//libraryCharges returns the library charges matched in molecule mi, by atom.
func libraryCharges(b *builder, defs []*ff.Handler, mi int) (map[int]molCharge, error) {
	r := make(map[int]molCharge)
	for _, d := range defs {
		for _, p := range d.Parameters {
			q := p.Indexed("charge")
			ms, err := b.molMatches(p.SMIRKS, mi)
			if err != nil {
				return nil, err
			}
			for _, m := range ms {
				if len(q) != len(m) {
					return nil, errors.Newf("library charge %s has %d charges for %d tagged atoms", p.Label(), len(q), len(m))
				}
				for pos, atom := range m {
					r[atom] = molCharge{q[pos].In(units.ElementaryCharge), PotentialKey{ID: p.SMIRKS, Mult: pos, AssociatedHandler: SourceLibraryCharges}}
				}
			}
		}
	}
	return r, nil
}

//increments returns the charge increments of a parameter for a match of the given
//size. With one increment fewer than atoms, the last one balances the rest.
func increments(p *ff.ParameterType, prefix string, atoms int) ([]float64, error) {
	qs := p.Indexed(prefix)
	r := make([]float64, 0, atoms)
	for _, q := range qs {
		v, err := q.To(units.ElementaryCharge)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %s", p.Label())
		}
		r = append(r, v.Magnitude)
	}
	switch len(r) {
	case atoms:
	case atoms - 1:
		r = append(r, -floats.Sum(r))
	default:
		return nil, errors.Newf("parameter %s has %d charge increments for %d tagged atoms", p.Label(), len(r), atoms)
	}
	return r, nil
}

//incMatch is a matched tuple of atoms with its charge increments.
type incMatch struct {
	atoms []int
	inc   []float64
}

//chargeIncrements returns, per atom of molecule mi, the sum of the charge
//increments that apply to it. Each matched tuple gets the increments of the
//last parameter matching it, and the increments of different tuples add up.
func chargeIncrements(b *builder, defs []*ff.Handler, mi int) ([]float64, error) {
	n := b.top.Molecule(mi).Len()
	won := newOrdered[string, incMatch]()
	for _, d := range defs {
		for _, p := range d.Parameters {
			ms, err := b.molMatches(p.SMIRKS, mi)
			if err != nil {
				return nil, err
			}
			for _, m := range ms {
				inc, err := increments(p, "charge_increment", len(m))
				if err != nil {
					return nil, err
				}
				won.set(fmt.Sprint(m), incMatch{m, inc})
			}
		}
	}
	r := make([]float64, n)
	for _, t := range won.all() {
		for i, v := range t.inc {
			r[t.atoms[i]] += v
		}
	}
	return r, nil
}
