/*
 * v3_test.go, part of smirnoff.
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

package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(Te, err)
	assert.Equal(Te, 3, A.NVecs())
	assert.Equal(Te, r3.Vec{X: 4, Y: 5, Z: 6}, A.Vec(1))

	v := A.VecView(2)
	v.Set(0, 0, 70)
	assert.Equal(Te, 70.0, A.At(2, 0))

	B := A.SomeVecs([]int{2, 0})
	assert.Equal(Te, r3.Vec{X: 70, Y: 8, Z: 9}, B.Vec(0))
	assert.Equal(Te, r3.Vec{X: 1, Y: 2, Z: 3}, B.Vec(1))

	S := A.Stack(B)
	assert.Equal(Te, 5, S.NVecs())
	assert.Equal(Te, B.Vec(1), S.Vec(4))

	C := A.Copy()
	C.SetVec(0, r3.Vec{})
	assert.Equal(Te, 1.0, A.At(0, 0))
}

func TestNewMatrixErrors(Te *testing.T) {
	_, err := NewMatrix([]float64{1, 2})
	require.Error(Te, err)
	e, ok := err.(Error)
	require.True(Te, ok)
	assert.True(Te, e.Critical())
	assert.Equal(Te, []string{"NewMatrix", "test"}, e.Decorate("test"))
	_, err = NewMatrix(nil)
	assert.Error(Te, err)
}

func TestFromVecs(Te *testing.T) {
	M := FromVecs([]r3.Vec{{X: 1}, {Y: 1}})
	assert.Equal(Te, 2, M.NVecs())
	assert.Contains(Te, M.String(), "1.00000")
}
