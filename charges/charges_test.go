/*
 * charges_test.go, part of smirnoff.
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

package charges

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestBuiltins(Te *testing.T) {
	ctx := context.Background()
	R := NewRegistry()
	assert.Equal(Te, []string{"formal_charge", "gasteiger", "zeros"}, R.ChargeMethods())

	q, err := R.PartialCharges(ctx, testmol.Acetate(), "Formal_Charge")
	require.NoError(Te, err)
	assert.Equal(Te, []float64{0, 0, 0, -1, 0, 0, 0}, q)

	q, err = R.PartialCharges(ctx, testmol.Ethanol(), "zeros")
	require.NoError(Te, err)
	assert.Equal(Te, make([]float64, 9), q)

	b, err := R.FractionalBondOrders(ctx, testmol.Benzene(), "formal")
	require.NoError(Te, err)
	assert.Equal(Te, 1.5, b[0])
	assert.Equal(Te, 1.0, b[1])
}

func TestGasteiger(Te *testing.T) {
	q, err := Gasteiger(context.Background(), testmol.Water())
	require.NoError(Te, err)
	assert.Less(Te, q[0], 0.0)
	assert.Greater(Te, q[1], 0.0)
	assert.InDelta(Te, q[1], q[2], 1e-12)
	assert.InDelta(Te, 0, floats.Sum(q), 1e-12)

	q, err = Gasteiger(context.Background(), testmol.Acetate())
	require.NoError(Te, err)
	assert.InDelta(Te, -1, floats.Sum(q), 1e-12)

	odd := topology.NewMolecule("xenon")
	require.NoError(Te, odd.AddAtoms("Xe"))
	_, err = Gasteiger(context.Background(), odd)
	assert.Error(Te, err)
}

func TestAliases(Te *testing.T) {
	R := NewRegistry()
	calls := 0
	R.RegisterBondOrders("xtb-wiberg", BondOrderFunc(func(_ context.Context, m *topology.Molecule) ([]float64, error) {
		calls++
		return make([]float64, m.NBonds()), nil
	}))
	R.Alias("AM1-Wiberg", "xtb-wiberg")
	assert.Equal(Te, "xtb-wiberg", R.Canonical("am1-wiberg"))
	_, err := R.FractionalBondOrders(context.Background(), testmol.Ethane(), "AM1-Wiberg")
	require.NoError(Te, err)
	assert.Equal(Te, 1, calls)

	R.Alias("a", "b")
	R.Alias("b", "a")
	assert.NotPanics(Te, func() { R.Canonical("a") })
}

func TestRegistryErrors(Te *testing.T) {
	R := NewRegistry()
	_, err := R.PartialCharges(context.Background(), testmol.Water(), "am1bcc")
	assert.True(Te, errors.Is(err, ErrUnsupportedMethod))
	_, err = R.FractionalBondOrders(context.Background(), testmol.Water(), "am1-wiberg")
	assert.True(Te, errors.Is(err, ErrUnsupportedMethod))

	R.RegisterCharges("short", ChargeFunc(func(_ context.Context, _ *topology.Molecule) ([]float64, error) {
		return []float64{1}, nil
	}))
	_, err = R.PartialCharges(context.Background(), testmol.Water(), "short")
	assert.Error(Te, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = R.PartialCharges(ctx, testmol.Water(), "zeros")
	assert.ErrorIs(Te, err, context.Canceled)
}
