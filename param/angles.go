/*
 * angles.go, part of smirnoff.
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

//AngleHandler holds the harmonic angle potentials.
type AngleHandler struct {
	SMIRKSHandler
}

func buildAngles(b *builder, defs []*ff.Handler) (*AngleHandler, error) {
	asg, err := b.assign(defs, 3, func(g []int) Indices { return canonicalChain(Idx(g...)) })
	if err != nil {
		return nil, err
	}
	h := &AngleHandler{newSMIRKSHandler(Angles)}
	missing := &UnassignedValenceParameterError{unassigned{Category: Angles}}
	for _, angle := range b.top.Angles() {
		key := Idx(angle[:]...)
		a, ok := asg.get(key)
		if !ok {
			missing.Missing = append(missing.Missing, key)
			missing.Symbols = append(missing.Symbols, b.symbols(key))
			continue
		}
		p := a.param
		k, ok1 := p.Get("k")
		theta, ok2 := p.Get("angle")
		if !ok1 || !ok2 {
			return nil, errors.Newf("angle parameter %s needs k and angle", p.Label())
		}
		h.store(TopologyKey{AtomIndices: key}, PotentialKey{ID: p.SMIRKS, AssociatedHandler: Angles},
			NewPotential(map[string]units.Quantity{"k": k, "angle": theta}))
	}
	if len(missing.Missing) > 0 {
		return nil, errors.WithHint(missing, "add a more general angle parameter, such as [*:1]~[*:2]~[*:3]")
	}
	b.log.Debug("assigned angles", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}
