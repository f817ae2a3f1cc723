/*
 * forcefield_test.go, part of smirnoff.
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

package forcefield

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rmera/smirnoff/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const miniFF = "../test/mini.offxml"

func TestFileRead(Te *testing.T) {
	F, err := FileRead(miniFF)
	require.NoError(Te, err)
	assert.Equal(Te, []string{TagConstraints, TagBonds, TagAngles, TagProperTorsions, TagImproperTorsions,
		TagVdW, TagElectrostatics, TagLibraryCharges, TagToolkitAM1BCC}, F.Tags())
	assert.Equal(Te, "smirnoff test suite", F.Meta["Author"])
	assert.Equal(Te, "OEAroModel_MDL", F.Aromaticity)

	b := F.Handler(TagBonds)
	require.NotNil(Te, b)
	assert.Equal(Te, "0.4", b.Version)
	assert.Equal(Te, "AM1-Wiberg", b.FractionalBondOrderMethod())
	assert.Equal(Te, "linear", b.FractionalBondOrderInterpolation())
	require.Len(Te, b.Parameters, 6)
	p := b.Parameter("b2")
	require.NotNil(Te, p)
	assert.Equal(Te, "[#6:1]-[#1:2]", p.SMIRKS)
	l, ok := p.Get("length")
	require.True(Te, ok)
	assert.InDelta(Te, 0.109, l.In(units.Nanometer), 1e-12)
	k, _ := p.Get("k")
	assert.InDelta(Te, 680*4.184*100, k.In(units.KilojoulePerMole.Div(units.Nanometer.Pow(2))), 1e-6)

	p = b.Parameter("b5")
	assert.True(Te, p.IsBondOrderDependent("k"))
	assert.False(Te, p.IsBondOrderDependent("length"))
	assert.True(Te, p.HasBondOrderValues())
	bos, qs := p.BondOrderAnchors("k")
	assert.Equal(Te, []float64{1, 2}, bos)
	assert.Equal(Te, 101.0, qs[0].Magnitude)
	assert.Equal(Te, 123.0, qs[1].Magnitude)

	t := F.Handler(TagProperTorsions)
	assert.Equal(Te, "auto", t.Attr("default_idivf", ""))
	t2 := t.Parameter("t2")
	assert.Equal(Te, 2, t2.NTerms("k"))
	assert.Len(Te, t2.Indexed("periodicity"), 2)
	assert.Len(Te, t2.Indexed("idivf"), 1)

	v := F.Handler(TagVdW)
	c, err := v.Quantity("cutoff", units.Q(1, units.Nanometer))
	require.NoError(Te, err)
	assert.InDelta(Te, 0.9, c.In(units.Nanometer), 1e-12)
	sw, err := v.Quantity("nonexistent", units.Q(1, units.Nanometer))
	require.NoError(Te, err)
	assert.Equal(Te, 1.0, sw.Magnitude)

	lc := F.Handler(TagLibraryCharges).Parameters[0]
	assert.Equal(Te, "TIP3P", lc.Attr("name", ""))
	assert.Equal(Te, "TIP3P", lc.Label())
	assert.Len(Te, lc.Indexed("charge"), 3)
}

func TestReadErrors(Te *testing.T) {
	_, err := ReadString(`<NotSMIRNOFF/>`)
	assert.Error(Te, err)
	_, err = ReadString(``)
	assert.Error(Te, err)
	_, err = ReadString(`<SMIRNOFF><Bonds><Bond id="b1" length="1 * angstrom"/></Bonds></SMIRNOFF>`)
	assert.Error(Te, err)
	_, err = ReadString(`<SMIRNOFF><Bonds version="0.3"></Bonds><Bonds version="0.3"></Bonds></SMIRNOFF>`)
	assert.Error(Te, err)
	_, err = ReadString(`<SMIRNOFF><Bonds><Bond smirks="[*:1]~[*:2]"><Extra/></Bond></Bonds></SMIRNOFF>`)
	assert.Error(Te, err)
	_, err = FileRead()
	assert.Error(Te, err)
}

func TestMerge(Te *testing.T) {
	extra := `<SMIRNOFF version="0.3">
	<Bonds version="0.4" potential="harmonic">
		<Bond smirks="[#6:1]-[#1:2]" id="b2x" length="1.1 * angstrom" k="600 * kilocalorie/mole/angstrom**2"/>
	</Bonds>
	<vdW version="0.3" cutoff="0.9 * nanometer"/>
	<GBSA version="0.3"/>
</SMIRNOFF>`
	dir := Te.TempDir()
	name := filepath.Join(dir, "extra.offxml.gz")
	f, err := os.Create(name)
	require.NoError(Te, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(extra))
	require.NoError(Te, err)
	require.NoError(Te, w.Close())
	require.NoError(Te, f.Close())

	F, err := FileRead(miniFF, name)
	require.NoError(Te, err)
	b := F.Handler(TagBonds)
	require.Len(Te, b.Parameters, 7)
	assert.Equal(Te, "b2x", b.Parameters[6].ID)
	//0.9 nm and 9 angstrom are the same cutoff.
	assert.Equal(Te, "0.9 * nanometer", F.Handler(TagVdW).Attr("cutoff", ""))
	assert.NotNil(Te, F.Handler("GBSA"))

	bad := New()
	require.NoError(Te, bad.Register(NewHandler(TagVdW, map[string]string{"cutoff": "8.0 * angstrom"})))
	F, err = FileRead(miniFF)
	require.NoError(Te, err)
	assert.Error(Te, F.Merge(bad))
}

func TestRegistry(Te *testing.T) {
	F := New()
	h := NewHandler(TagBonds, map[string]string{"version": "0.4", "potential": "harmonic"})
	assert.Equal(Te, "0.4", h.Version)
	_, hasVersion := h.Attrs["version"]
	assert.False(Te, hasVersion)
	require.NoError(Te, F.Register(h))
	assert.Error(Te, F.Register(NewHandler(TagBonds, nil)))
	assert.Same(Te, h, F.GetOrCreate(TagBonds))
	a := F.GetOrCreate(TagAngles)
	assert.Equal(Te, []string{TagBonds, TagAngles}, F.Tags())
	assert.Same(Te, a, F.Handler(TagAngles))
	assert.True(Te, F.Deregister(TagBonds))
	assert.False(Te, F.Deregister(TagBonds))
	assert.Nil(Te, F.Handler(TagBonds))
	assert.Len(Te, F.Handlers(), 1)
}

func TestParameter(Te *testing.T) {
	p, err := NewParameter("VirtualSite", map[string]string{"smirks": "[#1:2]-[#8X2H2+0:1]-[#1:3]",
		"type": "DivalentLonePair", "name": "EP", "match": "once", "distance": "-0.15 * angstrom",
		"outOfPlaneAngle": "0.0 * degree", "charge_increment1": "0.0 * elementary_charge",
		"charge_increment2": "0.52 * elementary_charge", "charge_increment3": "0.52 * elementary_charge",
		"sigma": "1.0 * angstrom", "epsilon": "0.0 * kilocalorie_per_mole"})
	require.NoError(Te, err)
	assert.Equal(Te, "DivalentLonePair", p.Attr("type", ""))
	assert.Equal(Te, "EP", p.Attr("name", ""))
	assert.Equal(Te, "once", p.Attr("match", "all_permutations"))
	assert.Equal(Te, "x", p.Attr("nothing", "x"))
	assert.Len(Te, p.Indexed("charge_increment"), 3)
	d, _ := p.Get("distance")
	assert.InDelta(Te, -0.015, d.In(units.Nanometer), 1e-12)
	assert.Equal(Te, "[#1:2]-[#8X2H2+0:1]-[#1:3]", p.Label())
	_, err = NewParameter("Bond", map[string]string{"id": "b1"})
	assert.Error(Te, err)
	assert.Panics(Te, func() { MustParameter("Bond", nil) })
}
