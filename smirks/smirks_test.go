/*
 * smirks_test.go, part of smirnoff.
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

package smirks

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rmera/smirnoff/internal/testmol"
	"github.com/rmera/smirnoff/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrors(Te *testing.T) {
	bad := []string{"", "[#6", "C(", "C)", "C1CC", "C.C", "[C@H]", "[13C]", "[#6:1][#6:1]",
		"C-", "[#6:x]", "C>>C", "[$(C]", "[#6]==[#6]x", "Q"}
	for _, s := range bad {
		_, err := Parse(s)
		if assert.Error(Te, err, s) {
			assert.True(Te, errors.Is(err, ErrSyntax), "%s: %v", s, err)
		}
	}
}

func TestParse(Te *testing.T) {
	P, err := Parse("[*:1]~[#6X3:2](~[*:3])~[*:4]")
	require.NoError(Te, err)
	assert.Equal(Te, 4, P.NAtoms())
	assert.Equal(Te, 4, P.NTagged())
	assert.Equal(Te, []int{1, 2, 3, 4}, P.MapIndexes())
	assert.Equal(Te, "[*:1]~[#6X3:2](~[*:3])~[*:4]", P.String())

	P = MustParse("[#1:2]-[#8X2H2+0:1]-[#1:3]")
	assert.Equal(Te, []int{1, 2, 3}, P.MapIndexes())
	assert.Panics(Te, func() { MustParse("[") })
}

func TestValenceMatches(Te *testing.T) {
	methane := testmol.Methane()
	assert.Equal(Te, [][]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}}, MustParse("[#6X4:1]-[#1:2]").Match(methane))
	assert.Len(Te, MustParse("[*:1]~[*:2]").Match(testmol.Ethanol()), 16)
	assert.Len(Te, MustParse("[*:1]~[*:2]~[*:3]").Match(testmol.Ethanol()), 26)
	assert.Len(Te, MustParse("[*:1]~[*:2]~[*:3]~[*:4]").Match(testmol.Ethanol()), 24)
	assert.Equal(Te, [][]int{{1, 0, 2}, {2, 0, 1}}, MustParse("[#1:1]-[#8:2]-[#1:3]").Match(testmol.Water()))
}

func TestImproperMatches(Te *testing.T) {
	m := MustParse("[*:1]~[#6X3:2](~[*:3])~[*:4]").Match(testmol.Formaldehyde())
	assert.Equal(Te, [][]int{{1, 0, 2, 3}, {1, 0, 3, 2}, {2, 0, 1, 3}, {2, 0, 3, 1}, {3, 0, 1, 2}, {3, 0, 2, 1}}, m)
}

func TestPrimitives(Te *testing.T) {
	ethanol := testmol.Ethanol()
	benzene := testmol.Benzene()
	acetate := testmol.Acetate()
	cases := []struct {
		smirks string
		mol    *topology.Molecule
		want   [][]int
	}{
		{"[#6,#8:1]", ethanol, [][]int{{0}, {1}, {2}}},
		{"[!#1:1]", ethanol, [][]int{{0}, {1}, {2}}},
		{"[#6&X4:1]", ethanol, [][]int{{0}, {1}}},
		{"[#6;H2:1]", ethanol, [][]int{{1}}},
		{"[CH3:1]", ethanol, [][]int{{0}}},
		{"[#6R0:1]", ethanol, [][]int{{0}, {1}}},
		{"[#8D2h0:1]", ethanol, [][]int{{2}}},
		{"[#6v4:1]", ethanol, [][]int{{0}, {1}}},
		{"[#1:1]-[$([#6]-[#8]):2]", ethanol, [][]int{{6, 1}, {7, 1}}},
		{"[#8-1:1]", acetate, [][]int{{3}}},
		{"[#8X1-:1]", acetate, [][]int{{3}}},
		{"[#8+0:1]", acetate, [][]int{{2}}},
		{"[O:1]=[C:2]", acetate, [][]int{{2, 1}}},
		{"[C:1]", benzene, nil},
		{"[c:1]-[#1:2]", benzene, [][]int{{0, 6}, {1, 7}, {2, 8}, {3, 9}, {4, 10}, {5, 11}}},
		{"[#6X3:1]-[#1:2]", benzene, [][]int{{0, 6}, {1, 7}, {2, 8}, {3, 9}, {4, 10}, {5, 11}}},
		{"[#6r6:1]", benzene, [][]int{{0}, {1}, {2}, {3}, {4}, {5}}},
		{"[#6;R1;x2:1]", benzene, [][]int{{0}, {1}, {2}, {3}, {4}, {5}}},
		{"[a:1]", benzene, [][]int{{0}, {1}, {2}, {3}, {4}, {5}}},
		{"[#6r3:1]", testmol.Cyclopropane(), [][]int{{0}, {1}, {2}}},
		{"[H:1]", testmol.Water(), [][]int{{1}, {2}}},
		{"[Cl:1]-[C:2]", testmol.Chloromethane(), [][]int{{1, 0}}},
		{"ClC", testmol.Chloromethane(), [][]int{{1, 0}}},
		{"[#1:1]-[#6:2]#[#7:3]", testmol.HCN(), [][]int{{0, 1, 2}}},
	}
	for _, c := range cases {
		P, err := Parse(c.smirks)
		require.NoError(Te, err, c.smirks)
		assert.Equal(Te, c.want, P.Match(c.mol), c.smirks)
	}
	assert.Len(Te, MustParse("[*:1]@[*:2]").Match(benzene), 12)
	assert.Len(Te, MustParse("[*:1]:[*:2]").Match(benzene), 12)
	assert.Len(Te, MustParse("[*:1]!@[*:2]").Match(benzene), 12)
	assert.Len(Te, MustParse("C1CC1").Match(testmol.Cyclopropane()), 6)
	assert.True(Te, MustParse("[#6]=[#8]").Matches(testmol.Formaldehyde()))
	assert.False(Te, MustParse("[#6]#[#8]").Matches(testmol.Formaldehyde()))
}

func TestCorrespondence(Te *testing.T) {
	ref := testmol.Ethanol()
	r, ok := Correspondence(ref, testmol.Ethanol())
	require.True(Te, ok)
	assert.Equal(Te, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, r)

	target, err := ref.Remap([]int{8, 7, 6, 5, 4, 3, 2, 1, 0})
	require.NoError(Te, err)
	r, ok = Correspondence(ref, target)
	require.True(Te, ok)
	assert.Equal(Te, []int{8, 7, 6}, r[:3])
	assert.Equal(Te, 0, r[8])
	for i, a := range ref.Atoms() {
		assert.Equal(Te, a.Symbol, target.Atom(r[i]).Symbol)
	}
	for _, b := range ref.Bonds() {
		assert.NotNil(Te, target.BondBetween(r[b.At1], r[b.At2]))
	}

	_, ok = Correspondence(ref, testmol.Methane())
	assert.False(Te, ok)
	ether, err := ref.Remap([]int{0, 2, 1, 3, 4, 5, 6, 7, 8})
	require.NoError(Te, err)
	//same order of elements, different graph: C0 O1 C2 is not an ethanol relabeling
	ether2 := topology.NewMolecule("dimethyl ether")
	require.NoError(Te, ether2.AddAtoms("C", "O", "C", "H", "H", "H", "H", "H", "H"))
	for _, b := range [][2]int{{0, 1}, {1, 2}, {0, 3}, {0, 4}, {0, 5}, {2, 6}, {2, 7}, {2, 8}} {
		_, err := ether2.AddBond(b[0], b[1], 1)
		require.NoError(Te, err)
	}
	_, ok = Correspondence(ether, ether2)
	assert.False(Te, ok)
}

func TestFromMolecule(Te *testing.T) {
	s, err := FromMolecule(testmol.Ethanol())
	require.NoError(Te, err)
	assert.Equal(Te, "[C+0:1](-[C+0:2](-[O+0:3]-[#1+0:9])(-[#1+0:7])-[#1+0:8])(-[#1+0:4])(-[#1+0:5])-[#1+0:6]", s)
	P, err := Parse(s)
	require.NoError(Te, err)
	assert.Contains(Te, P.Match(testmol.Ethanol()), []int{0, 1, 2, 3, 4, 5, 6, 7, 8})

	s, err = FromMolecule(testmol.Benzene())
	require.NoError(Te, err)
	P, err = Parse(s)
	require.NoError(Te, err, s)
	assert.Len(Te, P.Match(testmol.Benzene()), 12)

	s, err = FromMolecule(testmol.Acetate())
	require.NoError(Te, err)
	assert.Contains(Te, s, "[O-1:4]")

	broken := topology.NewMolecule("two waters")
	require.NoError(Te, broken.AddAtoms("O", "O"))
	_, err = FromMolecule(broken)
	assert.Error(Te, err)
}

func TestCachingMatcher(Te *testing.T) {
	M := NewMatcher()
	var _ Matcher = M
	m, err := M.FindMatches("[#6:1]-[#1:2]", testmol.Methane())
	require.NoError(Te, err)
	assert.Len(Te, m, 4)
	_, err = M.FindMatches("[#6:1]-[#1:2]", testmol.Ethane())
	require.NoError(Te, err)
	assert.Len(Te, M.patterns, 1)
	_, err = M.FindMatches("[#6:1", testmol.Ethane())
	assert.True(Te, errors.Is(err, ErrSyntax))
}
