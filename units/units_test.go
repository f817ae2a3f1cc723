/*
 * units_test.go, part of smirnoff.
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

package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(Te *testing.T) {
	q, err := Parse("101.0 * kilocalories_per_mole/angstrom**2")
	require.NoError(Te, err)
	assert.Equal(Te, 101.0, q.Magnitude)
	assert.True(Te, q.Unit.Compatible(KcalPerMolAngstrom2))
	assert.Equal(Te, "kilocalories_per_mole/angstrom**2", q.Unit.Name())
	assert.InDelta(Te, 101.0*4.184*100, q.In(KilojoulePerMole.Div(Nanometer.Pow(2))), 1e-9)

	q, err = Parse("109.5 * degree")
	require.NoError(Te, err)
	assert.InDelta(Te, 109.5*math.Pi/180, q.In(Radian), 1e-12)

	q, err = Parse("2")
	require.NoError(Te, err)
	assert.True(Te, q.Dimensionless())
	assert.Equal(Te, 2.0, q.Magnitude)

	q, err = Parse("-0.5 * elementary_charge")
	require.NoError(Te, err)
	assert.Equal(Te, -0.5, q.In(ElementaryCharge))

	q, err = Parse("1.2e-3 * kilojoule / (mole * nanometer**2)")
	require.NoError(Te, err)
	assert.InDelta(Te, 1.2e-3, q.In(KilojoulePerMole.Div(Nanometer.Pow(2))), 1e-15)
}

func TestParseErrors(Te *testing.T) {
	for _, s := range []string{"", "1.0 * parsec", "1.0 * (angstrom", "2 * angstrom**x", "1 2"} {
		_, err := Parse(s)
		assert.Error(Te, err, s)
	}
}

func TestConvert(Te *testing.T) {
	q := Q(1.5, Angstrom)
	nm, err := q.To(Nanometer)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.15, nm.Magnitude, 1e-15)
	_, err = q.To(Degree)
	assert.Error(Te, err)
	//same unit conversions must not touch the magnitude
	c := Q(0.1+0.2, ElementaryCharge)
	assert.Equal(Te, 0.1+0.2, c.In(ElementaryCharge))
	s, err := Q(1, Kilocalorie).Add(Q(4.184, Kilojoule))
	require.NoError(Te, err)
	assert.InDelta(Te, 2.0, s.Magnitude, 1e-12)
	assert.Panics(Te, func() { Q(1, Mole).In(Angstrom) })
}

func TestString(Te *testing.T) {
	assert.Equal(Te, "1.5 * angstrom", Q(1.5, Angstrom).String())
	assert.Equal(Te, "3", Scalar(3).String())
	u, err := ParseUnit("kilocalories_per_mole")
	require.NoError(Te, err)
	assert.True(Te, u.Compatible(KilojoulePerMole))
}
