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
Top writes GROMACS topologies from parameter collections (not to be confused
with the topology package, which holds molecular graphs).

Each molecule of the collection becomes one [ moleculetype ], with its own
atom types, so no parameter is lost to type merging. Lengths are written in
nm, energies in kJ/mol and angles in degrees, with sigma/epsilon Lennard-Jones
terms (comb-rule 2). Virtual sites are written as virtual_sites2 (linear) or
virtual_sites3 (3out) constructions, fitted to the first conformer of their
molecule.
*/
package top
