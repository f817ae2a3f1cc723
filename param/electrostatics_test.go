/*
 * electrostatics_test.go, part of smirnoff.
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
	"github.com/rmera/smirnoff/charges"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func magnitudes(q []units.Quantity) []float64 {
	r := make([]float64, len(q))
	for i, v := range q {
		r[i] = v.In(units.ElementaryCharge)
	}
	return r
}

func electrostatics(defs ...*ff.Handler) map[string][]*ff.Handler {
	return map[string][]*ff.Handler{Electrostatics: defs}
}

func TestLibraryCharges(Te *testing.T) {
	F := mini(Te)
	o := &oracle{}
	top := topology.New(testmol.Water(), testmol.Water())
	C, err := FromSMIRNOFF(context.Background(), F, top, WithChargeOracle(o))
	require.NoError(Te, err)
	assert.Equal(Te, 0, o.calls)
	assert.Equal(Te, 0, C.OracleCalls())
	es := C.Electrostatics()
	assert.Equal(Te, SourceLibraryCharges, es.Source(1))
	q, err := C.Charges()
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, []float64{-0.834, 0.417, 0.417, -0.834, 0.417, 0.417}, magnitudes(q), 1e-12)

	pk, ok := es.Slots().Get(Key(3))
	require.True(Te, ok)
	assert.Equal(Te, PotentialKey{ID: "[#1:2]-[#8X2H2+0:1]-[#1:3]", Mult: 0, AssociatedHandler: ff.TagLibraryCharges}, pk)
	pk, _ = es.Slots().Get(Key(5))
	assert.Contains(Te, []int{1, 2}, pk.Mult)
	//both waters share the library potentials.
	assert.Equal(Te, 3, es.Potentials().Len())
}

func TestOracleOncePerMolecule(Te *testing.T) {
	F := mini(Te)
	o := &oracle{}
	order := []int{2, 8, 0, 1, 3, 7, 4, 6, 5}
	shuffled, err := testmol.Ethanol().Remap(order)
	require.NoError(Te, err)
	top := topology.New(testmol.Ethanol(), testmol.Methane(), shuffled, testmol.Ethanol())
	C, err := FromSMIRNOFF(context.Background(), F, top, WithChargeOracle(o))
	require.NoError(Te, err)
	assert.Equal(Te, 2, o.calls)
	assert.Equal(Te, 2, C.OracleCalls())

	q := magnitudes(C.Electrostatics().Charges())
	first := q[:9]
	third := q[14:23]
	for i, j := range order {
		assert.Equal(Te, first[j], third[i])
	}
	assert.Equal(Te, first, q[23:])
}

func TestChargeFromMolecules(Te *testing.T) {
	ref := testmol.Ethanol()
	qref := []float64{-0.15, 0.10, -0.65, 0.05, 0.05, 0.05, 0.07, 0.07, 0.41}
	require.NoError(Te, ref.SetPartialCharges(qref))
	order := []int{8, 2, 1, 0, 7, 6, 5, 4, 3}
	shuffled, err := testmol.Ethanol().Remap(order)
	require.NoError(Te, err)

	failing := charges.ChargeFunc(func(context.Context, *topology.Molecule) ([]float64, error) {
		return nil, errors.New("the oracle must not be called")
	})
	top := topology.New(testmol.Ethanol(), shuffled, testmol.Water())
	C, err := FromSMIRNOFF(context.Background(), mini(Te), top, WithChargeFromMolecules(ref), WithChargeOracle(failing))
	require.NoError(Te, err)
	es := C.Electrostatics()
	assert.Equal(Te, SourceChargeFromMolecules, es.Source(0))
	assert.Equal(Te, SourceChargeFromMolecules, es.Source(1))
	assert.Equal(Te, SourceLibraryCharges, es.Source(2))
	q := magnitudes(es.Charges())
	//exact equality, the charges are copied, not recomputed.
	assert.Equal(Te, qref, q[:9])
	for i, j := range order {
		assert.Equal(Te, qref[j], q[9+i])
	}

	//the reference wins over library charges too.
	wref := testmol.Water()
	require.NoError(Te, wref.SetPartialCharges([]float64{-0.8, 0.4, 0.4}))
	C, err = FromSMIRNOFF(context.Background(), mini(Te), topology.New(testmol.Water()), WithChargeFromMolecules(wref))
	require.NoError(Te, err)
	assert.Equal(Te, []float64{-0.8, 0.4, 0.4}, magnitudes(C.Electrostatics().Charges()))

	_, err = FromSMIRNOFF(context.Background(), mini(Te), topology.New(testmol.Water()), WithChargeFromMolecules(testmol.Water()))
	assert.True(Te, errors.Is(err, ErrMissingPartialCharges))
	var mp *MissingPartialChargesError
	require.True(Te, errors.As(err, &mp))
	assert.Equal(Te, "water", mp.Molecule)
}

func cim(method string, params ...map[string]string) *ff.Handler {
	return handler(ff.TagChargeIncrementModel, map[string]string{"partial_charge_method": method}, params...)
}

func TestChargeIncrements(Te *testing.T) {
	ctx := context.Background()
	hcn := cim("formal_charge",
		map[string]string{"smirks": "[#1:1]-[#6:2]", "charge_increment1": "0.111 * elementary_charge", "charge_increment2": "-0.111 * elementary_charge"},
		map[string]string{"smirks": "[#6X2:1]#[#7:2]", "charge_increment1": "0.5 * elementary_charge", "charge_increment2": "-0.5 * elementary_charge"},
	)
	C, err := FromHandlers(ctx, electrostatics(hcn), topology.New(testmol.HCN()))
	require.NoError(Te, err)
	assert.Equal(Te, SourceChargeIncrements, C.Electrostatics().Source(0))
	assert.InDeltaSlice(Te, []float64{0.111, 0.389, -0.5}, magnitudes(C.Electrostatics().Charges()), 1e-12)

	//with one increment missing, the last one balances the others.
	short := cim("formal_charge",
		map[string]string{"smirks": "[#1:1]-[#6:2]", "charge_increment1": "0.111 * elementary_charge"},
		map[string]string{"smirks": "[#6X2:1]#[#7:2]", "charge_increment1": "0.5 * elementary_charge"},
	)
	C, err = FromHandlers(ctx, electrostatics(short), topology.New(testmol.HCN()))
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, []float64{0.111, 0.389, -0.5}, magnitudes(C.Electrostatics().Charges()), 1e-12)


	bad := cim("formal_charge", map[string]string{"smirks": "[#1:1]-[#6:2]#[#7:3]", "charge_increment1": "0.1 * elementary_charge"})
	_, err = FromHandlers(ctx, electrostatics(bad), topology.New(testmol.HCN()))
	assert.Error(Te, err)
}

func TestPartialLibraryCharges(Te *testing.T) {
	ctx := context.Background()
	lib := handler(ff.TagLibraryCharges, nil, map[string]string{"smirks": "[#7:1]", "charge1": "-0.3 * elementary_charge"})
	hcn := cim("formal_charge",
		map[string]string{"smirks": "[#1:1]-[#6:2]", "charge_increment1": "0.111 * elementary_charge", "charge_increment2": "-0.111 * elementary_charge"},
		map[string]string{"smirks": "[#6X2:1]#[#7:2]", "charge_increment1": "0.5 * elementary_charge", "charge_increment2": "-0.5 * elementary_charge"},
	)
	//library charges that leave atoms out give way to the oracle charges.
	C, err := FromHandlers(ctx, electrostatics(lib, hcn), topology.New(testmol.HCN()))
	require.NoError(Te, err)
	assert.Equal(Te, SourceChargeIncrements, C.Electrostatics().Source(0))
	assert.InDeltaSlice(Te, []float64{0.111, 0.389, -0.5}, magnitudes(C.Electrostatics().Charges()), 1e-12)

	C, err = FromHandlers(ctx, electrostatics(lib, cim("formal_charge")), topology.New(testmol.HCN()))
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, []float64{0, 0, 0}, magnitudes(C.Electrostatics().Charges()), 1e-12)

	//without an oracle method, the uncovered atoms are reported.
	_, err = FromHandlers(ctx, electrostatics(lib), topology.New(testmol.HCN()))
	var uc *UnassignedChargeError
	require.True(Te, errors.As(err, &uc))
	assert.Equal(Te, []int{0, 1}, uc.Atoms)
}

func TestManyTaggedIncrements(Te *testing.T) {
	inc := cim("zeros", map[string]string{
		"smirks":            "[#6:1](-[#1:2])(-[#1:3])(-[#1:4])-[#1:5]",
		"charge_increment1": "-0.4 * elementary_charge",
		"charge_increment2": "0.1 * elementary_charge",
		"charge_increment3": "0.1 * elementary_charge",
		"charge_increment4": "0.1 * elementary_charge",
	})
	C, err := FromHandlers(context.Background(), electrostatics(inc), topology.New(testmol.Methane()))
	require.NoError(Te, err)
	q := magnitudes(C.Electrostatics().Charges())
	assert.Less(Te, q[0], 0.0)
	for _, v := range q[2:] {
		assert.InDelta(Te, q[1], v, 1e-12)
	}
	assert.InDelta(Te, -4*q[1], q[0], 1e-12)
	assert.InDelta(Te, 0, floats.Sum(q), 1e-12)
}

func TestSymmetricIncrements(Te *testing.T) {
	inc := cim("zeros", map[string]string{"smirks": "[#6X4:1]-[#6X4:2]", "charge_increment1": "0.1 * elementary_charge", "charge_increment2": "-0.1 * elementary_charge"})
	C, err := FromHandlers(context.Background(), electrostatics(inc), topology.New(testmol.Ethane()))
	require.NoError(Te, err)
	q := magnitudes(C.Electrostatics().Charges())
	assert.InDelta(Te, 0, q[0], 1e-12)
	assert.InDelta(Te, 0, q[1], 1e-12)
	assert.InDelta(Te, 0, floats.Sum(q), 1e-12)

	//a later parameter matching the same atoms replaces the earlier increments.
	inc.Add(ff.MustParameter("ChargeIncrement", map[string]string{"smirks": "[#6:1]-[#6:2]", "charge_increment1": "0.2 * elementary_charge", "charge_increment2": "0 * elementary_charge"}))
	C, err = FromHandlers(context.Background(), electrostatics(inc), topology.New(testmol.Ethane()))
	require.NoError(Te, err)
	q = magnitudes(C.Electrostatics().Charges())
	assert.InDelta(Te, 0.2, q[0], 1e-12)
	assert.InDelta(Te, 0.2, q[1], 1e-12)
}

func TestEmptyIncrementsMatchOracle(Te *testing.T) {
	m := testmol.Ethanol()
	C, err := FromHandlers(context.Background(), electrostatics(cim("gasteiger")), topology.New(m))
	require.NoError(Te, err)
	want, err := charges.Gasteiger(context.Background(), m)
	require.NoError(Te, err)
	assert.Equal(Te, want, magnitudes(C.Electrostatics().Charges()))

	//the default method is AM1-Mulliken, which the oracle gets lowercased.
	o := &oracle{}
	_, err = FromHandlers(context.Background(), electrostatics(handler(ff.TagChargeIncrementModel, nil)), topology.New(m), WithChargeOracle(o))
	require.NoError(Te, err)
	assert.Equal(Te, []string{"am1-mulliken"}, o.methods)
}

func TestUnassignedCharge(Te *testing.T) {
	F := mini(Te)
	_, err := FromHandlers(context.Background(), electrostatics(F.Handler(ff.TagElectrostatics), F.Handler(ff.TagLibraryCharges)), topology.New(testmol.Water(), testmol.Methane()))
	require.Error(Te, err)
	assert.True(Te, errors.Is(err, ErrUnassignedCharge))
	var u *UnassignedChargeError
	require.True(Te, errors.As(err, &u))
	assert.Equal(Te, "methane", u.Molecule)
	assert.Equal(Te, []int{0, 1, 2, 3, 4}, u.Atoms)

	_, err = FromHandlers(context.Background(), electrostatics(F.Handler(ff.TagToolkitAM1BCC)), topology.New(testmol.Methane()))
	assert.True(Te, errors.Is(err, charges.ErrUnsupportedMethod))
}

func TestLibraryChargeFromMolecule(Te *testing.T) {
	m := testmol.Ethanol()
	qref := []float64{-0.15, 0.10, -0.65, 0.05, 0.05, 0.05, 0.07, 0.07, 0.41}
	_, err := LibraryChargeFromMolecule(m)
	assert.True(Te, errors.Is(err, ErrMissingPartialCharges))

	require.NoError(Te, m.SetPartialCharges(qref))
	p, err := LibraryChargeFromMolecule(m)
	require.NoError(Te, err)
	assert.Len(Te, p.Indexed("charge"), 9)
	assert.Equal(Te, "ethanol", p.Attr("name", ""))

	lib := ff.NewHandler(ff.TagLibraryCharges, nil)
	lib.Add(p)
	C, err := FromHandlers(context.Background(), electrostatics(lib), topology.New(testmol.Ethanol()))
	require.NoError(Te, err)
	assert.InDeltaSlice(Te, qref, magnitudes(C.Electrostatics().Charges()), 1e-12)
}
