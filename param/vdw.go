/*
 * vdw.go, part of smirnoff.
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
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/units"
	"go.uber.org/zap"
)

//rmin_half = sigma * 2^(1/6) / 2
var sigmaPerRminHalf = 2 / math.Pow(2, 1.0/6.0)

//VdWHandler holds the Lennard-Jones sigma and epsilon of each atom, and the
//settings of the interaction.
type VdWHandler struct {
	SMIRKSHandler
	Cutoff         units.Quantity
	SwitchWidth    units.Quantity
	Scale12        float64
	Scale13        float64
	Scale14        float64
	Scale15        float64
	Method         string
	CombiningRules string
}

//sigmaEpsilon reads the Lennard-Jones parameters of a vdW or virtual site
//parameter, converting rmin_half into sigma.
func sigmaEpsilon(p *ff.ParameterType) (units.Quantity, units.Quantity, error) {
	eps, ok := p.Get("epsilon")
	if !ok {
		return units.Quantity{}, units.Quantity{}, errors.Newf("parameter %s has no epsilon", p.Label())
	}
	if sigma, ok := p.Get("sigma"); ok {
		return sigma, eps, nil
	}
	rmin, ok := p.Get("rmin_half")
	if !ok {
		return units.Quantity{}, units.Quantity{}, errors.Newf("parameter %s has neither sigma nor rmin_half", p.Label())
	}
	return rmin.Scale(sigmaPerRminHalf), eps, nil
}

//settings holds the attribute parsing shared by the nonbonded handlers.
type settings struct {
	defs []*ff.Handler
	err  error
}

//attr returns the attribute from the last definition that sets it.
func (s *settings) attr(name, def string) string {
	for i := len(s.defs) - 1; i >= 0; i-- {
		if v, ok := s.defs[i].Attrs[name]; ok {
			return v
		}
	}
	return def
}

func (s *settings) quantity(name string, def units.Quantity) units.Quantity {
	v := s.attr(name, "")
	if v == "" || s.err != nil {
		return def
	}
	q, err := units.Parse(v)
	if err != nil {
		s.err = errors.Wrapf(err, "attribute %s", name)
		return def
	}
	return q
}

func (s *settings) float(name string, def float64) float64 {
	v := s.attr(name, "")
	if v == "" || s.err != nil {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.err = errors.Wrapf(err, "attribute %s", name)
		return def
	}
	return f
}

func buildVdW(b *builder, defs []*ff.Handler) (*VdWHandler, error) {
	s := &settings{defs: defs}
	h := &VdWHandler{
		SMIRKSHandler:  newSMIRKSHandler(VdW),
		Cutoff:         s.quantity("cutoff", units.Q(9, units.Angstrom)),
		SwitchWidth:    s.quantity("switch_width", units.Q(1, units.Angstrom)),
		Scale12:        s.float("scale12", 0),
		Scale13:        s.float("scale13", 0),
		Scale14:        s.float("scale14", 0.5),
		Scale15:        s.float("scale15", 1),
		Method:         s.attr("method", "cutoff"),
		CombiningRules: s.attr("combining_rules", "Lorentz-Berthelot"),
	}
	if s.err != nil {
		return nil, errors.Wrap(s.err, "vdW settings")
	}
	asg, err := b.assign(defs, 1, func(g []int) Indices { return Idx(g[0]) })
	if err != nil {
		return nil, err
	}
	missing := &UnassignedValenceParameterError{unassigned{Category: VdW}}
	for g := 0; g < b.top.NAtoms(); g++ {
		key := Idx(g)
		a, ok := asg.get(key)
		if !ok {
			missing.Missing = append(missing.Missing, key)
			missing.Symbols = append(missing.Symbols, b.symbols(key))
			continue
		}
		sigma, eps, err := sigmaEpsilon(a.param)
		if err != nil {
			return nil, err
		}
		h.store(TopologyKey{AtomIndices: key}, PotentialKey{ID: a.param.SMIRKS, AssociatedHandler: VdW},
			NewPotential(map[string]units.Quantity{"sigma": sigma, "epsilon": eps}))
	}
	if len(missing.Missing) > 0 {
		return nil, errors.WithHint(missing, "add a generic vdW parameter, such as [*:1]")
	}
	b.log.Debug("assigned vdW", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}
