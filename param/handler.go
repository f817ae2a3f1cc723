/*
 * handler.go, part of smirnoff.
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
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/smirks"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"go.uber.org/zap"
)

//Handler is the read-only view of one interaction category after a build.
type Handler interface {
	Name() string
	Slots() SlotMap
	Potentials() PotentialTable
}

//SMIRKSHandler holds the slots and potentials of a category. The concrete
//handlers embed it.
type SMIRKSHandler struct {
	name       string
	slots      *ordered[TopologyKey, PotentialKey]
	potentials *ordered[PotentialKey, *Potential]
}

func newSMIRKSHandler(name string) SMIRKSHandler {
	return SMIRKSHandler{name: name, slots: newOrdered[TopologyKey, PotentialKey](), potentials: newOrdered[PotentialKey, *Potential]()}
}

//Name returns the category name.
func (h *SMIRKSHandler) Name() string { return h.name }

//Slots returns the slot map.
func (h *SMIRKSHandler) Slots() SlotMap { return SlotMap{h.slots} }

//Potentials returns the potentials table.
func (h *SMIRKSHandler) Potentials() PotentialTable { return PotentialTable{h.potentials} }

//Potential returns the potential assigned to a slot.
func (h *SMIRKSHandler) Potential(k TopologyKey) (*Potential, bool) {
	pk, ok := h.slots.get(k)
	if !ok {
		return nil, false
	}
	return h.potentials.get(pk)
}

//Parameter returns one parameter of the potential assigned to a slot.
func (h *SMIRKSHandler) Parameter(k TopologyKey, name string) (units.Quantity, bool) {
	p, ok := h.Potential(k)
	if !ok {
		return units.Quantity{}, false
	}
	return p.Get(name)
}

func (h *SMIRKSHandler) store(tk TopologyKey, pk PotentialKey, p *Potential) {
	h.slots.set(tk, pk)
	h.potentials.set(pk, p)
}

//assignment is the parameter that won a canonical key, with the atoms it
//matched, in global indexes and map order.
type assignment struct {
	param *ff.ParameterType
	atoms []int
}

//builder carries what the handlers share during one build.
type builder struct {
	ctx     context.Context
	top     *topology.Topology
	opts    *options
	log     *zap.Logger
	matches map[matchKey][][]int
	cache   *oracleCache
	orders  map[orderKey][]float64
}

type matchKey struct {
	smirks string
	mol    *topology.Molecule
}

type orderKey struct {
	method string
	mol    int
}

func newBuilder(ctx context.Context, top *topology.Topology, o *options) *builder {
	return &builder{
		ctx:     ctx,
		top:     top,
		opts:    o,
		log:     o.logger,
		matches: make(map[matchKey][][]int),
		cache:   newOracleCache(o.logger),
		orders:  make(map[orderKey][]float64),
	}
}

//molMatches returns the matches of a pattern in molecule mi, in the molecule's indexes.
func (b *builder) molMatches(s string, mi int) ([][]int, error) {
	m := b.top.Molecule(mi)
	k := matchKey{s, m}
	if r, ok := b.matches[k]; ok {
		return r, nil
	}
	r, err := b.opts.matcher.FindMatches(s, m)
	if err != nil {
		return nil, errors.Wrapf(err, "matching %s against %s", s, m.Name)
	}
	b.matches[k] = r
	return r, nil
}

//assign matches the parameters of the definitions in declared order. Each match
//is keyed with canon, and later parameters overwrite earlier ones with the same
//key. Keys come in the order they were first matched.
func (b *builder) assign(defs []*ff.Handler, tags int, canon func([]int) Indices) (*ordered[Indices, assignment], error) {
	r := newOrdered[Indices, assignment]()
	for _, d := range defs {
		for _, p := range d.Parameters {
			if err := b.ctx.Err(); err != nil {
				return nil, err
			}
			for mi := 0; mi < b.top.NMolecules(); mi++ {
				ms, err := b.molMatches(p.SMIRKS, mi)
				if err != nil {
					return nil, err
				}
				off := b.top.Offset(mi)
				for _, m := range ms {
					if len(m) != tags {
						return nil, errors.Newf("parameter %s tags %d atoms, not %d", p.Label(), len(m), tags)
					}
					g := make([]int, len(m))
					for i, v := range m {
						g[i] = v + off
					}
					r.set(canon(g), assignment{param: p, atoms: g})
				}
			}
		}
	}
	return r, nil
}

//symbols returns the element symbols of the atoms with the given global indexes.
func (b *builder) symbols(I Indices) []string {
	r := make([]string, I.Len())
	for i := range r {
		r[i] = b.top.Atom(I.At(i)).Symbol
	}
	return r
}

//bondOrder returns the fractional order of the bond between two global atoms,
//obtained with the given method.
func (b *builder) bondOrder(method string, g1, g2 int) (float64, error) {
	mi, l1 := b.top.Locate(g1)
	mj, l2 := b.top.Locate(g2)
	m := b.top.Molecule(mi)
	bond := m.BondBetween(l1, l2)
	if mi != mj || bond == nil {
		return 0, errors.Newf("atoms %d and %d are not bonded", g1, g2)
	}
	orders, err := b.molBondOrders(method, mi)
	if err != nil {
		return 0, err
	}
	return orders[bond.Index()], nil
}

//molBondOrders returns the fractional bond orders of molecule mi, taken from an
//identical reference molecule if one was given, from the oracle otherwise.
func (b *builder) molBondOrders(method string, mi int) ([]float64, error) {
	k := orderKey{method, mi}
	if r, ok := b.orders[k]; ok {
		return r, nil
	}
	m := b.top.Molecule(mi)
	var r []float64
	for _, ref := range b.opts.bondOrderRefs {
		corr, ok := smirks.Correspondence(ref, m)
		if !ok {
			continue
		}
		if !ref.HasFractionalBondOrders() {
			return nil, errors.WithHint(errors.Newf("molecule %s was given as a bond order source but has no fractional bond orders", ref.Name),
				"set them with SetFractionalBondOrders or in the bond.dprop.FractionalBondOrder SDF item")
		}
		ro := make([]float64, ref.NBonds())
		for i, bond := range ref.Bonds() {
			ro[i] = bond.FractionalOrder
		}
		var err error
		if r, err = remapBondOrders(ref, m, corr, ro); err != nil {
			return nil, err
		}
		b.log.Debug("bond orders from reference molecule", zap.String("molecule", m.Name))
		break
	}
	if r == nil {
		var err error
		r, err = b.cache.bondOrders(b.ctx, b.opts.boOracle, method, m)
		if err != nil {
			return nil, errors.Wrapf(err, "fractional bond orders for %s", m.Name)
		}
	}
	b.orders[k] = r
	return r, nil
}

//molCharges returns the oracle charges of molecule mi.
func (b *builder) molCharges(method string, mi int) ([]float64, error) {
	m := b.top.Molecule(mi)
	q, err := b.cache.charges(b.ctx, b.opts.chargeOracle, method, m)
	if err != nil {
		return nil, errors.Wrapf(err, "partial charges for %s", m.Name)
	}
	return slices.Clone(q), nil
}
