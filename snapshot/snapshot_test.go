/*
 * snapshot_test.go, part of smirnoff.
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

package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/smirnoff/charges"
	ff "github.com/rmera/smirnoff/forcefield"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/param"
	"github.com/rmera/smirnoff/topology"
	"github.com/rmera/smirnoff/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collection(Te *testing.T) *param.Collection {
	F, err := ff.FileRead("../test/mini.offxml")
	require.NoError(Te, err)
	C, err := param.FromSMIRNOFF(context.Background(), F, topology.New(testmol.Ethanol(), testmol.Water()), param.WithChargeOracle(charges.ChargeFunc(charges.Gasteiger)))
	require.NoError(Te, err)
	return C
}

func TestFromCollection(Te *testing.T) {
	C := collection(Te)
	S, jerr := FromCollection(C)
	require.Nil(Te, jerr)
	assert.Equal(Te, 12, S.Info.Atoms)
	assert.Equal(Te, 12, S.Info.Particles)
	assert.Equal(Te, 2, S.Info.Molecules)
	assert.Equal(Te, C.Names(), S.Info.Categories)
	assert.Equal(Te, []string{param.SourceToolkitAM1BCC, param.SourceLibraryCharges}, S.Info.Sources)
	require.Len(Te, S.Info.Charges, 12)
	assert.InDelta(Te, -0.834, S.Info.Charges[9], 1e-12)
	require.Len(Te, S.Info.Positions, 12)
	assert.Equal(Te, []float64{0.9572, 0, 0}, S.Info.Positions[10])

	bonds := S.Handler(param.Bonds)
	require.NotNil(Te, bonds)
	assert.Len(Te, bonds.Slots, C.Bonds().Slots().Len())
	assert.Len(Te, bonds.Potentials, C.Bonds().Potentials().Len())
	p, ok := bonds.Potential(0, 1, 2)
	require.True(Te, ok)
	assert.Equal(Te, "[#6X4:1]-[#8:2]", p.ID)
	length, err := p.Parameters["length"].Quantity()
	require.NoError(Te, err)
	want, _ := C.Bonds().Parameter(param.Key(1, 2), "length")
	assert.InDelta(Te, want.In(units.Angstrom), length.In(units.Angstrom), 1e-12)
	assert.Nil(Te, S.Handler("Nonexistent"))
}

func TestSendRead(Te *testing.T) {
	S, jerr := FromCollection(collection(Te))
	require.Nil(Te, jerr)
	var buf bytes.Buffer
	require.Nil(Te, S.Send(&buf))
	assert.Equal(Te, len(S.Handlers)+1, strings.Count(buf.String(), "\n"))

	R, jerr := Read(bufio.NewReader(&buf))
	require.Nil(Te, jerr)
	assert.Equal(Te, S, R)

	//a truncated stream is an error.
	var short bytes.Buffer
	require.Nil(Te, S.Send(&short))
	lines := strings.SplitAfter(short.String(), "\n")
	_, jerr = Read(bufio.NewReader(strings.NewReader(strings.Join(lines[:3], ""))))
	require.NotNil(Te, jerr)
	assert.True(Te, jerr.InTransport)
	assert.Contains(Te, string(jerr.Marshal()), "\"IsError\":true")
}

func TestFiles(Te *testing.T) {
	S, jerr := FromCollection(collection(Te))
	require.Nil(Te, jerr)
	dir := Te.TempDir()
	for _, name := range []string{"snap.json", "snap.json.gz", "snap.json.zst"} {
		p := filepath.Join(dir, name)
		require.NoError(Te, S.WriteFile(p), name)
		R, err := ReadFile(p)
		require.NoError(Te, err, name)
		assert.Equal(Te, S.Info, R.Info, name)
	}
	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(Te, err)
}

func TestValue(Te *testing.T) {
	v := value(units.Q(1.5, units.KcalPerMolAngstrom2))
	q, err := v.Quantity()
	require.NoError(Te, err)
	assert.InDelta(Te, 1.5, q.In(units.KcalPerMolAngstrom2), 1e-12)
	v = value(units.Scalar(3))
	assert.Equal(Te, Value{Magnitude: 3}, v)
	q, err = v.Quantity()
	require.NoError(Te, err)
	assert.True(Te, q.Dimensionless())
	_, err = Value{Magnitude: 1, Unit: "furlong"}.Quantity()
	assert.Error(Te, err)
}
