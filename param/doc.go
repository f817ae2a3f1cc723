/*
 * doc.go, part of smirnoff.
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

/*
Package param assigns the parameters of a SMIRNOFF force field to a topology.

A build goes over the interaction categories in a fixed order (bonds,
constraints, angles, proper and improper torsions, vdW, electrostatics and
virtual sites). For each one, the SMIRKS patterns of its parameters are matched
against every molecule, in the order they are declared, and the last parameter
matching a set of atoms wins. Each handler ends up with a slot map, which
takes a TopologyKey (the atoms, and a multiplicity for terms with several
components) to a PotentialKey, and a table of potentials keyed by PotentialKey.

Bonds and proper torsions may give their parameters as a function of the
fractional bond order, which is then taken from reference molecules or from a
bond order oracle, and interpolated linearly.

Charges come, for each molecule, from an identical reference molecule, from
library charges, or from a charge oracle corrected with library charges and
charge increments. Virtual sites take charge from the atoms that orient them.

	F, err := forcefield.FileRead("openff-2.0.0.offxml")
	...
	C, err := param.FromSMIRNOFF(ctx, F, topology.New(mols...), param.WithLogger(logger))
	if err != nil {
		...
	}
	for k, pk := range C.Bonds().Slots().All() {
		...
	}

Builds are not safe for concurrent use when they share an oracle or matcher
that is not.
*/
package param
