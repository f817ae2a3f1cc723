/*
 * torsions.go, part of smirnoff.
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
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/units"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/combin"
)

//idivf values that "auto" stands for.
const (
	AutoIDivfProper   = 1.0
	AutoIDivfImproper = 3.0
)

//ProperTorsionHandler holds the periodic proper torsion potentials. A torsion
//with n terms has n slots, with Mult 0 to n-1.
type ProperTorsionHandler struct {
	SMIRKSHandler
}

//ImproperTorsionHandler holds the periodic improper torsion potentials. Each
//matched center gives 3 slots per term, one for each rotation of the outer atoms.
type ImproperTorsionHandler struct {
	SMIRKSHandler
}

//ImproperRotations are the orders in which the 3 sorted outer atoms of an
//improper follow the central atom: the even permutations of (0, 1, 2) in
//lexicographic order, that is, (a,b,d), (b,d,a) and (d,a,b).
var ImproperRotations = evenPermutations(3)

func evenPermutations(n int) [][]int {
	var r [][]int
	for _, p := range combin.Permutations(n, n) {
		inversions := 0
		for i := range p {
			for j := i + 1; j < len(p); j++ {
				if p[i] > p[j] {
					inversions++
				}
			}
		}
		if inversions%2 == 0 {
			r = append(r, p)
		}
	}
	slices.SortFunc(r, slices.Compare[[]int])
	return r
}

//defaultIDivf reads default_idivf from the definitions. "auto" (the default)
//gives auto.
func defaultIDivf(defs []*ff.Handler, auto float64) (units.Quantity, error) {
	v := "auto"
	for _, d := range defs {
		if s := d.Attr("default_idivf", ""); s != "" {
			v = s
		}
	}
	if v == "auto" {
		return units.Scalar(auto), nil
	}
	q, err := units.Parse(v)
	if err != nil || !q.Dimensionless() {
		return units.Quantity{}, errors.Newf("default_idivf must be \"auto\" or a number, not %q", v)
	}
	return q, nil
}

//torsionTerms extracts the terms of a periodic torsion parameter. The boolean
//reports whether any k was interpolated at the bond order.
func torsionTerms(p *ff.ParameterType, bo func() (float64, error), idivf units.Quantity) ([]map[string]units.Quantity, bool, error) {
	n := p.NTerms("k")
	if n == 0 {
		return nil, false, errors.Newf("torsion parameter %s has no k1", p.Label())
	}
	interpolated := false
	terms := make([]map[string]units.Quantity, n)
	for i := 1; i <= n; i++ {
		idx := strconv.Itoa(i)
		k, interp, err := value(p, "k"+idx, bo)
		if err != nil {
			return nil, false, err
		}
		interpolated = interpolated || interp
		per, ok1 := p.Get("periodicity" + idx)
		phase, ok2 := p.Get("phase" + idx)
		if !ok1 || !ok2 {
			return nil, false, errors.Newf("torsion parameter %s has k%s but no periodicity%s and phase%s", p.Label(), idx, idx, idx)
		}
		d, ok := p.Get("idivf" + idx)
		if !ok {
			d = idivf
		}
		terms[i-1] = map[string]units.Quantity{"k": k, "periodicity": per, "phase": phase, "idivf": d}
	}
	return terms, interpolated, nil
}

func buildProperTorsions(b *builder, defs []*ff.Handler) (*ProperTorsionHandler, error) {
	idivf, err := defaultIDivf(defs, AutoIDivfProper)
	if err != nil {
		return nil, err
	}
	method := bondOrderMethod(defs)
	asg, err := b.assign(defs, 4, func(g []int) Indices { return canonicalChain(Idx(g...)) })
	if err != nil {
		return nil, err
	}
	h := &ProperTorsionHandler{newSMIRKSHandler(ProperTorsions)}
	missing := &UnassignedProperTorsionParameterError{unassigned{Category: ProperTorsions}}
	for _, t := range b.top.ProperTorsions() {
		key := Idx(t[:]...)
		a, ok := asg.get(key)
		if !ok {
			missing.Missing = append(missing.Missing, key)
			missing.Symbols = append(missing.Symbols, b.symbols(key))
			continue
		}
		var bo float64
		boFn := func() (float64, error) {
			var err error
			bo, err = b.bondOrder(method, t[1], t[2])
			return bo, err
		}
		terms, interpolated, err := torsionTerms(a.param, boFn, idivf)
		if err != nil {
			return nil, err
		}
		for i, term := range terms {
			tk := TopologyKey{AtomIndices: key, Mult: i}
			pk := PotentialKey{ID: a.param.SMIRKS, Mult: i, AssociatedHandler: ProperTorsions}
			if interpolated {
				tk.BondOrder, tk.HasBondOrder = bo, true
				pk.BondOrder, pk.HasBondOrder = bo, true
			}
			h.store(tk, pk, NewPotential(term))
		}
	}
	if len(missing.Missing) > 0 {
		return nil, errors.WithHint(missing, "add a more general torsion parameter, such as [*:1]~[*:2]~[*:3]~[*:4]")
	}
	b.log.Debug("assigned proper torsions", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}

//improperKey is the central atom (map index 2) followed by the sorted outer atoms.
//g must hold 4 atoms.
func improperKey(g []int) Indices {
	outer := []int{g[0], g[2], g[3]}
	slices.Sort(outer)
	return Idx(g[1], outer[0], outer[1], outer[2])
}

func buildImproperTorsions(b *builder, defs []*ff.Handler) (*ImproperTorsionHandler, error) {
	idivf, err := defaultIDivf(defs, AutoIDivfImproper)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		for _, p := range d.Parameters {
			if p.HasBondOrderValues() {
				return nil, errors.Newf("improper torsion parameter %s cannot depend on the bond order", p.Label())
			}
		}
	}
	asg, err := b.assign(defs, 4, improperKey)
	if err != nil {
		return nil, err
	}
	noBondOrder := func() (float64, error) { return 0, errors.New("impropers have no bond order") }
	h := &ImproperTorsionHandler{newSMIRKSHandler(ImproperTorsions)}
	for key, a := range asg.all() {
		terms, _, err := torsionTerms(a.param, noBondOrder, idivf)
		if err != nil {
			return nil, err
		}
		c := key.At(0)
		outer := []int{key.At(1), key.At(2), key.At(3)}
		for r, rot := range ImproperRotations {
			atoms := Idx(c, outer[rot[0]], outer[rot[1]], outer[rot[2]])
			for i, term := range terms {
				tk := TopologyKey{AtomIndices: atoms, Mult: r*len(terms) + i}
				pk := PotentialKey{ID: a.param.SMIRKS, Mult: i, AssociatedHandler: ImproperTorsions}
				h.store(tk, pk, NewPotential(term))
			}
		}
	}
	b.log.Debug("assigned improper torsions", zap.Int("slots", h.slots.len()), zap.Int("potentials", h.potentials.len()))
	return h, nil
}
