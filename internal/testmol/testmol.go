/*
 * testmol.go, part of smirnoff.
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

//Package testmol builds the small molecules used across the test suites.
//Atom orders follow the usual heavy-atoms-first convention of SMILES parsers.
package testmol

import (
	"github.com/rmera/smirnoff/topology"
	v3 "github.com/rmera/smirnoff/v3"
)

type bond struct{ a, b, order int }

func build(name string, symbols []string, charges []int, bonds []bond, coords []float64) *topology.Molecule {
	m := topology.NewMolecule(name)
	for i, s := range symbols {
		q := 0
		if charges != nil {
			q = charges[i]
		}
		if _, err := m.AddAtom(s, q); err != nil {
			panic(err.Error())
		}
	}
	for _, b := range bonds {
		if _, err := m.AddBond(b.a, b.b, b.order); err != nil {
			panic(err.Error())
		}
	}
	if coords != nil {
		c, err := v3.NewMatrix(coords)
		if err != nil {
			panic(err.Error())
		}
		if err := m.AddConformer(c); err != nil {
			panic(err.Error())
		}
	}
	return m
}

//Methane is C0 with H1-H4.
func Methane() *topology.Molecule {
	return build("methane", []string{"C", "H", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}},
		[]float64{0, 0, 0, 0.629, 0.629, 0.629, -0.629, -0.629, 0.629, -0.629, 0.629, -0.629, 0.629, -0.629, -0.629})
}

//Ethane is C0-C1, H2-H4 on C0 and H5-H7 on C1.
func Ethane() *topology.Molecule {
	return build("ethane", []string{"C", "C", "H", "H", "H", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}, {1, 5, 1}, {1, 6, 1}, {1, 7, 1}}, nil)
}

//Ethanol is C0-C1-O2, H3-H5 on C0, H6 H7 on C1 and H8 on O2.
func Ethanol() *topology.Molecule {
	return build("ethanol", []string{"C", "C", "O", "H", "H", "H", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {1, 2, 1}, {0, 3, 1}, {0, 4, 1}, {0, 5, 1}, {1, 6, 1}, {1, 7, 1}, {2, 8, 1}}, nil)
}

//Formaldehyde is C0=O1 with H2 and H3 on C0.
func Formaldehyde() *topology.Molecule {
	return build("formaldehyde", []string{"C", "O", "H", "H"}, nil,
		[]bond{{0, 1, 2}, {0, 2, 1}, {0, 3, 1}},
		[]float64{0, 0, 0, 1.21, 0, 0, -0.55, 0.94, 0, -0.55, -0.94, 0})
}

//Water is O0 with H1 and H2.
func Water() *topology.Molecule {
	return build("water", []string{"O", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {0, 2, 1}},
		[]float64{0, 0, 0, 0.9572, 0, 0, -0.2400, 0.9266, 0})
}

//HCN is H0-C1#N2.
func HCN() *topology.Molecule {
	return build("hydrogen cyanide", []string{"H", "C", "N"}, nil,
		[]bond{{0, 1, 1}, {1, 2, 3}},
		[]float64{-1.06, 0, 0, 0, 0, 0, 1.16, 0, 0})
}

//Acetylene is C0#C1, H2 on C0 and H3 on C1.
func Acetylene() *topology.Molecule {
	return build("acetylene", []string{"C", "C", "H", "H"}, nil,
		[]bond{{0, 1, 3}, {0, 2, 1}, {1, 3, 1}},
		[]float64{0, 0, 0, 1.2, 0, 0, -1.06, 0, 0, 2.26, 0, 0})
}

//Chloromethane is C0-Cl1 with H2-H4 on C0.
func Chloromethane() *topology.Molecule {
	return build("chloromethane", []string{"C", "Cl", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}, {0, 4, 1}},
		[]float64{0, 0, 0, 1.78, 0, 0, -0.36, 1.03, 0, -0.36, -0.51, 0.89, -0.36, -0.51, -0.89})
}

//Ammonia is N0 with H1-H3.
func Ammonia() *topology.Molecule {
	return build("ammonia", []string{"N", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {0, 2, 1}, {0, 3, 1}},
		[]float64{0, 0, 0.38, 0.94, 0, 0, -0.47, 0.814, 0, -0.47, -0.814, 0})
}

//Benzene is the aromatic ring C0-C5 with H6-H11, Hi+6 on Ci.
func Benzene() *topology.Molecule {
	b := make([]bond, 0, 12)
	for i := 0; i < 6; i++ {
		b = append(b, bond{i, (i + 1) % 6, topology.Aromatic}, bond{i, i + 6, 1})
	}
	return build("benzene", []string{"C", "C", "C", "C", "C", "C", "H", "H", "H", "H", "H", "H"}, nil, b, nil)
}

//Acetate is C0-C1(=O2)-O3(-), H4-H6 on C0.
func Acetate() *topology.Molecule {
	return build("acetate", []string{"C", "C", "O", "O", "H", "H", "H"}, []int{0, 0, 0, -1, 0, 0, 0},
		[]bond{{0, 1, 1}, {1, 2, 2}, {1, 3, 1}, {0, 4, 1}, {0, 5, 1}, {0, 6, 1}}, nil)
}

//Cyclopropane is the ring C0-C2 with two hydrogens per carbon, H3 H4 on C0, H5 H6 on C1, H7 H8 on C2.
func Cyclopropane() *topology.Molecule {
	return build("cyclopropane", []string{"C", "C", "C", "H", "H", "H", "H", "H", "H"}, nil,
		[]bond{{0, 1, 1}, {1, 2, 1}, {2, 0, 1}, {0, 3, 1}, {0, 4, 1}, {1, 5, 1}, {1, 6, 1}, {2, 7, 1}, {2, 8, 1}}, nil)
}
