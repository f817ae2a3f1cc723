/*
 * param_test.go, part of smirnoff.
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
	"testing"

	"github.com/cockroachdb/errors"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//handler builds a definition with the given tag, attributes and parameters.
func handler(tag string, attrs map[string]string, params ...map[string]string) *ff.Handler {
	h := ff.NewHandler(tag, attrs)
	for _, p := range params {
		h.Add(ff.MustParameter(ff.ParameterElements[tag], p))
	}
	return h
}

//oracle is a charge and bond order oracle that counts its calls. Charges
//depend only on the element, and every bond gets the same order.
type oracle struct {
	calls   int
	methods []string
	bo      float64
}

func (o *oracle) PartialCharges(_ context.Context, m *topology.Molecule, method string) ([]float64, error) {
	o.calls++
	o.methods = append(o.methods, method)
	q := make([]float64, m.Len())
	for i, a := range m.Atoms() {
		q[i] = 0.01 * float64(a.AtomicNumber)
	}
	return q, nil
}

func (o *oracle) FractionalBondOrders(_ context.Context, m *topology.Molecule, method string) ([]float64, error) {
	o.calls++
	o.methods = append(o.methods, method)
	b := make([]float64, m.NBonds())
	for i := range b {
		b[i] = o.bo
	}
	return b, nil
}

func mini(Te *testing.T) *ff.ForceField {
	F, err := ff.FileRead("../test/mini.offxml")
	require.NoError(Te, err)
	return F
}

func TestFromSMIRNOFF(Te *testing.T) {
	o := &oracle{}
	C, err := FromSMIRNOFF(context.Background(), mini(Te), topology.New(testmol.Ethanol()), WithChargeOracle(o))
	require.NoError(Te, err)
	assert.Equal(Te, []string{Bonds, Constraints, Angles, ProperTorsions, ImproperTorsions, VdW, Electrostatics}, C.Names())

	bonds := C.Bonds()
	assert.Equal(Te, 8, bonds.Slots().Len())
	assert.Equal(Te, 4, bonds.Potentials().Len())
	k, ok := bonds.Slot(1, 0)
	require.True(Te, ok)
	pk, _ := bonds.Slots().Get(k)
	assert.Equal(Te, "[#6X4:1]-[#6X4:2]", pk.ID)
	length, ok := bonds.Parameter(k, "length")
	require.True(Te, ok)
	assert.InDelta(Te, 1.526, length.In(units.Angstrom), 1e-12)
	k, _ = bonds.Slot(2, 1)
	pk, _ = bonds.Slots().Get(k)
	assert.Equal(Te, "[#6X4:1]-[#8:2]", pk.ID)

	//the hydrogens are constrained, the heavy atom bonds are not.
	assert.Equal(Te, 6, C.Constraints().Slots().Len())
	assert.Equal(Te, 2, C.Constraints().Potentials().Len())
	assert.Equal(Te, []TopologyKey{Key(0, 1), Key(1, 2)}, bonds.FlexibleSlots())
	d, ok := C.Constraints().Distance(8, 2)
	require.True(Te, ok)
	assert.InDelta(Te, 0.9572, d.In(units.Angstrom), 1e-12)

	assert.Equal(Te, 13, C.Angles().Slots().Len())
	assert.Equal(Te, 1, C.Angles().Potentials().Len())

	//6 H-C-C-H torsions with 2 terms, and 6 more with one.
	pt := C.ProperTorsions()
	assert.Equal(Te, 18, pt.Slots().Len())
	assert.Equal(Te, 3, pt.Potentials().Len())
	idivf, ok := pt.Parameter(TopologyKey{AtomIndices: Idx(3, 0, 1, 6), Mult: 1}, "idivf")
	require.True(Te, ok)
	assert.Equal(Te, 1.0, idivf.Magnitude)

	assert.Equal(Te, 0, C.ImproperTorsions().Slots().Len())

	vdw := C.VdW()
	assert.Equal(Te, 9, vdw.Slots().Len())
	assert.Equal(Te, 3, vdw.Potentials().Len())
	sigma, ok := vdw.Parameter(Key(2), "sigma")
	require.True(Te, ok)
	assert.InDelta(Te, 1.6612*2/1.122462048309373, sigma.In(units.Angstrom), 1e-9)
	assert.Equal(Te, 0.5, vdw.Scale14)
	assert.InDelta(Te, 9, vdw.Cutoff.In(units.Angstrom), 1e-12)

	es := C.Electrostatics()
	assert.Equal(Te, SourceToolkitAM1BCC, es.Source(0))
	assert.Equal(Te, []string{AM1BCCMethod}, o.methods)
	q, err := C.Charges()
	require.NoError(Te, err)
	require.Len(Te, q, 9)
	assert.InDelta(Te, 0.08, q[2].In(units.ElementaryCharge), 1e-12)
	assert.Equal(Te, "Ewald3D-ConductingBoundary", es.PotentialForm(true))
	assert.Equal(Te, "Coulomb", es.PotentialForm(false))

	h, ok := C.Handler(VdW)
	require.True(Te, ok)
	assert.Equal(Te, VdW, h.Name())
	_, ok = C.Handler(VirtualSites)
	assert.False(Te, ok)
	assert.Equal(Te, 9, C.NParticles())
	assert.Nil(Te, C.Box())
	_, err = C.Positions()
	assert.Error(Te, err)
}

func TestUnmatchedBond(Te *testing.T) {
	defs := map[string][]*ff.Handler{
		Bonds: {handler(ff.TagBonds, nil, map[string]string{"smirks": "[#1:1]-[#6:2]", "k": "300 * kilocalorie_per_mole/angstrom**2", "length": "1.07 * angstrom"})},
	}
	_, err := FromHandlers(context.Background(), defs, topology.New(testmol.HCN()))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ErrUnassignedValence))
	var u *UnassignedValenceParameterError
	require.True(Te, errors.As(err, &u))
	assert.Equal(Te, []Indices{Idx(1, 2)}, u.Missing)
	assert.Equal(Te, [][]string{{"C", "N"}}, u.Symbols)
	assert.NotEmpty(Te, errors.GetAllHints(err))
}

func TestUnmatchedAnglesAndTorsions(Te *testing.T) {
	defs := map[string][]*ff.Handler{
		Angles: {handler(ff.TagAngles, nil, map[string]string{"smirks": "[#1:1]-[#6:2]-[#1:3]", "k": "50 * kilocalorie_per_mole/radian**2", "angle": "109.5 * degree"})},
	}
	_, err := FromHandlers(context.Background(), defs, topology.New(testmol.Ethane()))
	assert.True(Te, errors.Is(err, ErrUnassignedValence))
	var u *UnassignedValenceParameterError
	require.True(Te, errors.As(err, &u))
	assert.Len(Te, u.Missing, 6)

	defs = map[string][]*ff.Handler{
		ProperTorsions: {handler(ff.TagProperTorsions, nil, map[string]string{"smirks": "[#1:1]-[#6X4:2]-[#6X4:3]-[#1:4]", "k1": "0.1 * kilocalorie_per_mole", "periodicity1": "3", "phase1": "0 * degree"})},
	}
	_, err = FromHandlers(context.Background(), defs, topology.New(testmol.Ethane()))
	require.NoError(Te, err)
	_, err = FromHandlers(context.Background(), defs, topology.New(testmol.Ethanol()))
	assert.True(Te, errors.Is(err, ErrUnassignedProperTorsion))
	assert.False(Te, errors.Is(err, ErrUnassignedValence))

	defs = map[string][]*ff.Handler{
		VdW: {handler(ff.TagVdW, nil, map[string]string{"smirks": "[#6:1]", "epsilon": "0.1 * kilocalorie_per_mole", "sigma": "3 * angstrom"})},
	}
	_, err = FromHandlers(context.Background(), defs, topology.New(testmol.Methane()))
	require.True(Te, errors.As(err, &u))
	assert.Equal(Te, VdW, u.Category)
	assert.Len(Te, u.Missing, 4)
}

func TestLaterParameterWins(Te *testing.T) {
	generic := map[string]string{"smirks": "[*:1]~[*:2]", "k": "500 * kilocalorie_per_mole/angstrom**2", "length": "1.5 * angstrom"}
	specific := map[string]string{"smirks": "[#6:1]-[#1:2]", "k": "680 * kilocalorie_per_mole/angstrom**2", "length": "1.09 * angstrom"}
	top := topology.New(testmol.Methane())

	C, err := FromHandlers(context.Background(), map[string][]*ff.Handler{Bonds: {handler(ff.TagBonds, nil, generic, specific)}}, top)
	require.NoError(Te, err)
	for _, pk := range C.Bonds().Slots().All() {
		assert.Equal(Te, specific["smirks"], pk.ID)
	}
	assert.Equal(Te, 1, C.Bonds().Potentials().Len())

	C, err = FromHandlers(context.Background(), map[string][]*ff.Handler{Bonds: {handler(ff.TagBonds, nil, specific, generic)}}, top)
	require.NoError(Te, err)
	for _, pk := range C.Bonds().Slots().All() {
		assert.Equal(Te, generic["smirks"], pk.ID)
	}
	//the slots keep the topology order.
	assert.Equal(Te, []TopologyKey{Key(0, 1), Key(0, 2), Key(0, 3), Key(0, 4)}, C.Bonds().Slots().Keys())
}

func TestImpropers(Te *testing.T) {
	F := mini(Te)
	defs := map[string][]*ff.Handler{ImproperTorsions: {F.Handler(ff.TagImproperTorsions)}}
	C, err := FromHandlers(context.Background(), defs, topology.New(testmol.Formaldehyde()))
	require.NoError(Te, err)
	h := C.ImproperTorsions()
	want := []TopologyKey{
		{AtomIndices: Idx(0, 1, 2, 3), Mult: 0},
		{AtomIndices: Idx(0, 2, 3, 1), Mult: 1},
		{AtomIndices: Idx(0, 3, 1, 2), Mult: 2},
	}
	assert.Equal(Te, want, h.Slots().Keys())
	assert.Equal(Te, 1, h.Potentials().Len())
	idivf, ok := h.Parameter(want[2], "idivf")
	require.True(Te, ok)
	assert.Equal(Te, AutoIDivfImproper, idivf.Magnitude)

	//two terms give six slots, Mult = rotation*2+term.
	two := handler(ff.TagImproperTorsions, map[string]string{"default_idivf": "2"}, map[string]string{
		"smirks": "[*:1]~[#6X3:2](~[*:3])~[*:4]",
		"k1":     "1.1 * kilocalorie_per_mole", "periodicity1": "2", "phase1": "180 * degree",
		"k2": "0.5 * kilocalorie_per_mole", "periodicity2": "1", "phase2": "0 * degree",
	})
	C, err = FromHandlers(context.Background(), map[string][]*ff.Handler{ImproperTorsions: {two}}, topology.New(testmol.Formaldehyde()))
	require.NoError(Te, err)
	h = C.ImproperTorsions()
	assert.Equal(Te, 6, h.Slots().Len())
	pk, ok := h.Slots().Get(TopologyKey{AtomIndices: Idx(0, 3, 1, 2), Mult: 5})
	require.True(Te, ok)
	assert.Equal(Te, 1, pk.Mult)
	idivf, _ = h.Parameter(TopologyKey{AtomIndices: Idx(0, 1, 2, 3), Mult: 0}, "idivf")
	assert.Equal(Te, 2.0, idivf.Magnitude)
}

func TestBondOrderInterpolation(Te *testing.T) {
	F := mini(Te)
	defs := map[string][]*ff.Handler{Bonds: {F.Handler(ff.TagBonds)}}
	o := &oracle{bo: 1.55}
	top := topology.New(testmol.Formaldehyde(), testmol.Formaldehyde())
	C, err := FromHandlers(context.Background(), defs, top, WithBondOrderOracle(o))
	require.NoError(Te, err)
	assert.Equal(Te, 1, o.calls)
	assert.Equal(Te, []string{"AM1-Wiberg"}, o.methods)

	k, ok := C.Bonds().Slot(0, 1)
	require.True(Te, ok)
	assert.True(Te, k.HasBondOrder)
	assert.Equal(Te, 1.55, k.BondOrder)
	kq, ok := C.Bonds().Parameter(k, "k")
	require.True(Te, ok)
	assert.InDelta(Te, 113.1, kq.In(units.KcalPerMolAngstrom2), 1e-9)
	pk, _ := C.Bonds().Slots().Get(k)
	assert.True(Te, pk.HasBondOrder)

	ch, _ := C.Bonds().Slot(0, 2)
	assert.False(Te, ch.HasBondOrder)

	//bond orders from a reference molecule, in a different atom order.
	ref, err := testmol.Formaldehyde().Remap([]int{1, 0, 3, 2})
	require.NoError(Te, err)
	orders := make([]float64, ref.NBonds())
	for i, b := range ref.Bonds() {
		orders[i] = float64(b.Order)
	}
	require.NoError(Te, ref.SetFractionalBondOrders(orders))
	o = &oracle{bo: 1}
	C, err = FromHandlers(context.Background(), defs, topology.New(testmol.Formaldehyde()), WithBondOrderOracle(o), WithPartialBondOrdersFromMolecules(ref))
	require.NoError(Te, err)
	assert.Equal(Te, 0, o.calls)
	k, _ = C.Bonds().Slot(0, 1)
	assert.Equal(Te, 2.0, k.BondOrder)
	kq, _ = C.Bonds().Parameter(k, "k")
	assert.InDelta(Te, 123, kq.In(units.KcalPerMolAngstrom2), 1e-9)

	noOrders := testmol.Formaldehyde()
	_, err = FromHandlers(context.Background(), defs, topology.New(testmol.Formaldehyde()), WithPartialBondOrdersFromMolecules(noOrders))
	assert.Error(Te, err)
}

func TestTorsionInterpolation(Te *testing.T) {
	defs := map[string][]*ff.Handler{ProperTorsions: {handler(ff.TagProperTorsions, nil, map[string]string{
		"smirks":        "[*:1]~[#6X4:2]-[#6X4:3]~[*:4]",
		"k1_bondorder1": "1.0 * kilocalorie_per_mole", "k1_bondorder2": "1.8 * kilocalorie_per_mole",
		"periodicity1": "3", "phase1": "0 * degree",
	})}}
	C, err := FromHandlers(context.Background(), defs, topology.New(testmol.Ethane()), WithBondOrderOracle(&oracle{bo: 1.25}))
	require.NoError(Te, err)
	for tk := range C.ProperTorsions().Slots().All() {
		assert.True(Te, tk.HasBondOrder)
		k, ok := C.ProperTorsions().Parameter(tk, "k")
		require.True(Te, ok)
		assert.InDelta(Te, 1.2, k.In(units.KilocaloriePerMole), 1e-9)
	}
	assert.Equal(Te, 1, C.ProperTorsions().Potentials().Len())
}

func TestConfigurationErrors(Te *testing.T) {
	ctx := context.Background()
	top := topology.New(testmol.Methane())

	_, err := FromHandlers(ctx, map[string][]*ff.Handler{Bonds: {ff.NewHandler(ff.TagAngles, nil)}}, top)
	assert.True(Te, errors.Is(err, ErrInvalidParameterHandler))
	var inv *InvalidParameterHandlerError
	require.True(Te, errors.As(err, &inv))
	assert.Equal(Te, Bonds, inv.Category)
	assert.Equal(Te, ff.TagAngles, inv.Tag)

	_, err = FromHandlers(ctx, map[string][]*ff.Handler{Electrostatics: {ff.NewHandler(ff.TagVdW, nil)}}, top)
	assert.True(Te, errors.Is(err, ErrInvalidParameterHandler))

	_, err = FromHandlers(ctx, map[string][]*ff.Handler{"GBSA": {ff.NewHandler("GBSA", nil)}}, top)
	assert.True(Te, errors.Is(err, ErrUnsupportedHandler))

	F := mini(Te)
	F.GetOrCreate("GBSA")
	_, err = FromSMIRNOFF(ctx, F, top)
	var uns *UnsupportedHandlerError
	require.True(Te, errors.As(err, &uns))
	assert.Equal(Te, "GBSA", uns.Tag)

	quad := handler(ff.TagBonds, map[string]string{"fractional_bondorder_interpolation": "quadratic"})
	_, err = FromHandlers(ctx, map[string][]*ff.Handler{Bonds: {quad}}, top)
	assert.True(Te, errors.Is(err, ErrUnsupportedInterpolation))
	var im *InterpolationMethodError
	require.True(Te, errors.As(err, &im))
	assert.Equal(Te, "quadratic", im.Method)

	quad.Tag = ff.TagProperTorsions
	_, err = FromHandlers(ctx, map[string][]*ff.Handler{ProperTorsions: {quad}}, top)
	assert.True(Te, errors.Is(err, ErrUnsupportedInterpolation))

	bad := handler(ff.TagBonds, nil, map[string]string{"smirks": "[#6:1]-[#1:2", "k": "1", "length": "1"})
	_, err = FromHandlers(ctx, map[string][]*ff.Handler{Bonds: {bad}}, top)
	assert.Error(Te, err)

	//parameters tagging the wrong number of atoms are errors, not panics.
	wide := map[string][]*ff.Handler{
		Bonds:            {handler(ff.TagBonds, nil, map[string]string{"smirks": "[#6:1]", "k": "500 * kilocalorie_per_mole / angstrom**2", "length": "1.09 * angstrom"})},
		ImproperTorsions: {handler(ff.TagImproperTorsions, nil, map[string]string{"smirks": "[#1:1]-[#6:2](-[#1:3])(-[#1:4])-[#1:5]", "k1": "1.1 * kilocalorie_per_mole", "periodicity1": "2", "phase1": "180 * degree"})},
	}
	for name, d := range wide {
		_, err = FromHandlers(ctx, map[string][]*ff.Handler{name: d}, top)
		assert.Error(Te, err, name)
	}

	ctx2, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FromSMIRNOFF(ctx2, mini(Te), top)
	assert.True(Te, errors.Is(err, context.Canceled))
}

func TestConstraints(Te *testing.T) {
	F := mini(Te)
	defs := map[string][]*ff.Handler{
		Bonds:       {F.Handler(ff.TagBonds)},
		Constraints: {F.Handler(ff.TagConstraints)},
	}
	for _, c := range []struct {
		mol   *topology.Molecule
		slots int
	}{{testmol.Methane(), 4}, {testmol.Ethane(), 6}} {
		C, err := FromHandlers(context.Background(), defs, topology.New(c.mol))
		require.NoError(Te, err)
		assert.Equal(Te, c.slots, C.Constraints().Slots().Len(), c.mol.Name)
		assert.Equal(Te, 1, C.Constraints().Potentials().Len(), c.mol.Name)
		d, ok := C.Constraints().Distance(0, 2)
		require.True(Te, ok)
		assert.InDelta(Te, 1.09, d.In(units.Angstrom), 1e-12)
	}

	tip3p := handler(ff.TagConstraints, nil,
		map[string]string{"smirks": "[#1:1]-[#8X2H2+0:2]-[#1]", "distance": "0.9572 * angstrom"},
		map[string]string{"smirks": "[#1:1]-[#8X2H2+0]-[#1:2]", "distance": "1.5139 * angstrom"},
	)
	C, err := FromHandlers(context.Background(), map[string][]*ff.Handler{Bonds: {F.Handler(ff.TagBonds)}, Constraints: {tip3p}}, topology.New(testmol.Water()))
	require.NoError(Te, err)
	assert.Equal(Te, 3, C.Constraints().Slots().Len())
	assert.Equal(Te, 2, C.Constraints().Potentials().Len())
	d, ok := C.Constraints().Distance(2, 1)
	require.True(Te, ok)
	assert.InDelta(Te, 1.5139, d.In(units.Angstrom), 1e-12)
	assert.Empty(Te, C.Bonds().FlexibleSlots())

	//without a distance and without bonds, there is nothing to constrain to.
	_, err = FromHandlers(context.Background(), map[string][]*ff.Handler{Constraints: {F.Handler(ff.TagConstraints)}}, topology.New(testmol.Water()))
	assert.Error(Te, err)
}
